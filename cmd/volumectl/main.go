// Command volumectl is a local operator CLI over the volume reference-counting
// core: it can create and inspect volumes, soft-delete them, and run the
// sweeper that hard-deletes fully-reclaimed ones. It is not part of the
// core's contract; a real deployment drives the core from a saga executor
// and a sled-agent sweeper, not from a terminal.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
