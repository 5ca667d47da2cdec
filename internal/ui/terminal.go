// Package ui provides terminal styling and table rendering for the volumectl
// CLI.
package ui

import (
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsTerminal reports whether stdout is attached to a TTY. Output rendering
// falls back to plain text when it is not, so piped/scripted invocations get
// machine-parseable lines instead of box-drawing characters.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ShouldUseColor reports whether styled output should be emitted: stdout is
// attached to a TTY and the environment advertises at least ANSI color
// support (NO_COLOR, TERM=dumb and friends all land on the Ascii profile).
func ShouldUseColor() bool {
	return IsTerminal() && termenv.EnvColorProfile() != termenv.Ascii
}

// Width returns the terminal width, or a sane default when it can't be
// determined (not a TTY, or the ioctl fails).
func Width() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 100
	}
	return w
}
