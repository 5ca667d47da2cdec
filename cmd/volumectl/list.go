package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"
)

var listSince string

var listCmd = &cobra.Command{
	Use:     "list",
	GroupID: "volumes",
	Short:   "List volumes, optionally restricted to recent soft-deletes",
	Long: `list prints every volume row. With --since, it is restricted to volumes
soft-deleted at or after the given time, parsed as a natural-language
expression (e.g. --since "2 hours ago", --since "yesterday").`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var since *time.Time
		if listSince != "" {
			t, err := parseWhen(listSince)
			if err != nil {
				return fmt.Errorf(`parse --since %q: %w`, listSince, err)
			}
			since = t
		}

		ctx := cmd.Context()
		s, _, err := loadStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		vols, err := s.ListVolumes(ctx, since)
		if err != nil {
			return err
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(vols)
		}
		fmt.Println(renderVolumesTable(vols))
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listSince, "since", "", `only volumes soft-deleted since this time, e.g. "yesterday"`)
	rootCmd.AddCommand(listCmd)
}

// parseWhen resolves a natural-language time expression against the current
// moment, the same library and registered rule sets (en, common) the
// sweeper's --older-than flag uses.
func parseWhen(expr string) (*time.Time, error) {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	r, err := w.Parse(expr, time.Now())
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("could not parse time expression %q", expr)
	}
	return &r.Time, nil
}
