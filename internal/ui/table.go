package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

// NewTable builds a rounded-border lipgloss table sized to the given width.
func NewTable(width int) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Width(width)
}

// Render renders headers and rows as a styled table when attached to a
// color-capable terminal, or as tab-separated plain text otherwise, so piped
// output stays script-friendly.
func Render(headers []string, rows [][]string) string {
	if !ShouldUseColor() {
		return renderPlain(headers, rows)
	}
	return NewTable(Width()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		String()
}

func renderPlain(headers []string, rows [][]string) string {
	out := ""
	for i, h := range headers {
		if i > 0 {
			out += "\t"
		}
		out += h
	}
	out += "\n"
	for _, row := range rows {
		for i, c := range row {
			if i > 0 {
				out += "\t"
			}
			out += c
		}
		out += "\n"
	}
	return out
}

// Muted applies the low-emphasis style used for hints and secondary text.
func Muted(s string) string {
	return mutedStyle.Render(s)
}
