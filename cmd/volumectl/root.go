package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sabledisk/volumectl/internal/config"
	"github.com/sabledisk/volumectl/internal/store"
	"github.com/sabledisk/volumectl/internal/store/sqlite"
)

var jsonOutput bool

var rootCmd = &cobra.Command{
	Use:   "volumectl",
	Short: "Inspect and drive the volume reference-counting core",
	Long: `volumectl is a local operator tool over the volume reference-counting and
reclamation core. It stands in for the saga executor (create/delete) and the
sled-agent sweeper (sweep) for local development and demonstration; it is not
part of the core's own contract.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit machine-readable JSON instead of styled tables")
	rootCmd.AddGroup(
		&cobra.Group{ID: "volumes", Title: "Volume lifecycle:"},
		&cobra.Group{ID: "ops", Title: "Operations:"},
	)
}

// initLogging configures the global zerolog logger from cfg.LogLevel, using
// a console writer so interactive runs get a human-readable timestamped line
// rather than raw JSON.
func initLogging(cfg config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
}

// loadStore resolves configuration, configures logging, and opens the
// cached SQLite-backed store every subcommand operates against.
func loadStore(ctx context.Context) (store.Storage, config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("load config: %w", err)
	}
	initLogging(cfg)

	backing, err := sqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("open store: %w", err)
	}
	cached, err := store.NewCachedStore(backing, 256)
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("wrap cache: %w", err)
	}
	return cached, cfg, nil
}
