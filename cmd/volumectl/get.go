package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:     "get <id>",
	GroupID: "volumes",
	Short:   "Show a single volume by id",
	Args:    cobra.ExactArgs(1),
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

		v, err := s.VolumeGet(ctx, id)
		if err != nil {
			return err
		}
		return printVolume(v)
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
