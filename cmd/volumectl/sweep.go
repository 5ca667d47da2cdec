package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sabledisk/volumectl/internal/sweeper"
)

var (
	sweepOnce      bool
	sweepOlderThan string
)

var sweepCmd = &cobra.Command{
	Use:     "sweep",
	GroupID: "ops",
	Short:   "Hard-delete fully-reclaimed volumes",
	Long: `sweep stands in for the sled agents' reclamation pathway: it polls
FindFullyReleasedVolumes and hard-deletes every soft-deleted volume none of
whose owned regions is still protected by a referenced snapshot.

By default it runs the daemon poll loop until interrupted, taking an
exclusive file lock so two sweepers never run against the same database at
once. --once runs a single pass and exits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, cfg, err := loadStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		sw := sweeper.New(s, cfg)
		if sweepOlderThan != "" {
			cutoff, err := parseWhen(sweepOlderThan)
			if err != nil {
				return fmt.Errorf(`parse --older-than %q: %w`, sweepOlderThan, err)
			}
			sw = sw.WithMinAge(time.Since(*cutoff))
		}

		if sweepOnce {
			return sw.SweepOnce(ctx)
		}

		log.Info().Dur("interval", cfg.SweepInterval).Msg("sweeper: starting poll loop")
		return sw.Run(ctx, cfg.ConfigDir)
	},
}

func init() {
	sweepCmd.Flags().BoolVar(&sweepOnce, "once", false, "run a single sweep pass and exit instead of polling")
	sweepCmd.Flags().StringVar(&sweepOlderThan, "older-than", "", `only hard-delete volumes soft-deleted before this time, e.g. "2 hours ago"`)
	rootCmd.AddCommand(sweepCmd)
}
