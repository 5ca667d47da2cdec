package main

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rsc.io/script"
)

// runCLI executes the root command in-process with args, capturing everything
// the subcommands print to os.Stdout.
func runCLI(args []string) (stdout, stderr string, err error) {
	old := os.Stdout
	r, w, pipeErr := os.Pipe()
	if pipeErr != nil {
		return "", "", pipeErr
	}
	os.Stdout = w

	var errBuf bytes.Buffer
	rootCmd.SetErr(&errBuf)
	rootCmd.SetArgs(args)
	execErr := rootCmd.ExecuteContext(context.Background())

	w.Close()
	os.Stdout = old
	out, _ := io.ReadAll(r)
	r.Close()
	return string(out), errBuf.String(), execErr
}

const cliScript = `
# create a volume from a YAML construction request
volumectl create -f vol.yaml --json
stdout '"TimeDeleted": null'
stdout '10.0.0.1:1000'

# the stored row round-trips through list
volumectl list --json
stdout '10.0.0.1:1000'
`

// TestScriptCLI drives the CLI end to end through the script engine: each
// volumectl line runs the real command tree against a temp database, and the
// stdout assertions check what an operator would see.
func TestScriptCLI(t *testing.T) {
	workdir := t.TempDir()
	t.Setenv("VOLUMECTL_DB_PATH", filepath.Join(workdir, "volumes.db"))
	t.Setenv("VOLUMECTL_LOG_LEVEL", "error")
	t.Chdir(workdir)

	vol := "kind: region\nopts:\n  target:\n    - 10.0.0.1:1000\n  read_only: false\n"
	if err := os.WriteFile(filepath.Join(workdir, "vol.yaml"), []byte(vol), 0o644); err != nil {
		t.Fatalf("write vol.yaml: %v", err)
	}

	eng := script.NewEngine()
	eng.Cmds["volumectl"] = script.Command(
		script.CmdUsage{Summary: "run the volumectl CLI in-process", Args: "args..."},
		func(s *script.State, args ...string) (script.WaitFunc, error) {
			out, errOut, err := runCLI(args)
			return func(*script.State) (string, string, error) { return out, errOut, err }, nil
		},
	)

	state, err := script.NewState(context.Background(), workdir, os.Environ())
	if err != nil {
		t.Fatalf("script.NewState: %v", err)
	}

	var log bytes.Buffer
	if err := eng.Execute(state, "cli.txt", bufio.NewReader(strings.NewReader(cliScript)), &log); err != nil {
		t.Fatalf("script failed: %v\n%s", err, log.String())
	}
}
