package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	GroupID: "volumes",
	Short:   "Soft-delete a volume and report its reclaim set",
	Long: `delete calls DecreaseAndSoftDelete, which is idempotent: running it again on
the same id returns the same reclaim set rather than decrementing reference
counts a second time, the property a replaying saga step depends on.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("parse volume id: %w", err)
		}

		ctx := cmd.Context()
		s, _, err := loadStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		set, err := s.DecreaseAndSoftDelete(ctx, id)
		if err != nil {
			return err
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(set)
		}
		fmt.Println(renderReclaimSetTable(set))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
