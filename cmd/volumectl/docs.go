package main

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

const reclaimSetDoc = `# The ReclaimSet envelope

A ` + "`ReclaimSet`" + ` is what ` + "`delete`" + ` hands back: the resources a volume's
soft-delete released and that a sled agent must still physically destroy.

- **version**: currently ` + "`V1`" + `. A reader that sees a tag it doesn't know
  fails loudly instead of silently dropping resources.
- **datasets_and_regions**: read/write regions exclusively owned by the
  deleted volume. These become reclaimable the moment the volume is gone,
  provided no live snapshot still protects them.
- **datasets_and_snapshots**: shared, read-only snapshot rows that reached
  zero references as a result of this delete, or any earlier delete whose
  set was never consumed. This half of the set is computed globally, not
  scoped to one volume, because a snapshot can be shared across many.

The set is persisted onto the volume row in the same transaction that
computes it, so replaying ` + "`delete`" + ` on the same id (the way a saga step
might after a crash) returns the exact same set rather than recomputing
and potentially double-decrementing anything.
`

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Render embedded help topics",
}

var docsReclaimSetCmd = &cobra.Command{
	Use:   "reclaim-set",
	Short: "Explain the versioned ReclaimSet envelope",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
		if err != nil {
			return err
		}
		out, err := r.Render(reclaimSetDoc)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

func init() {
	docsCmd.AddCommand(docsReclaimSetCmd)
	rootCmd.AddCommand(docsCmd)
}
