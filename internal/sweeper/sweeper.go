// Package sweeper runs the background loop that hard-deletes soft-deleted
// volumes once no live snapshot protects any of their regions.
package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/sabledisk/volumectl/internal/config"
	"github.com/sabledisk/volumectl/internal/store"
)

// Sweeper periodically hard-deletes the volumes
// store.FindFullyReleasedVolumes reports, removing each volume's row together
// with the regions it owns.
type Sweeper struct {
	store    store.Storage
	interval time.Duration
	lockPath string

	// minAge, when non-zero, holds back hard-deletion of a volume until its
	// TimeDeleted is at least this old. Set via WithMinAge; zero means sweep
	// everything FindFullyReleasedVolumes reports.
	minAge time.Duration
}

func New(s store.Storage, cfg config.Config) *Sweeper {
	return &Sweeper{store: s, interval: cfg.SweepInterval, lockPath: cfg.LockPath}
}

// WithMinAge returns a copy of sw that only hard-deletes volumes soft-deleted
// at least age ago, for an operator who wants a grace window before
// reclamation (the CLI's `sweep --older-than` flag).
func (sw *Sweeper) WithMinAge(age time.Duration) *Sweeper {
	out := *sw
	out.minAge = age
	return &out
}

// SweepOnce runs a single sweep pass and returns, for callers (like the CLI's
// `sweep --once`) that want one pass instead of the daemon poll loop.
func (sw *Sweeper) SweepOnce(ctx context.Context) error {
	return sw.sweepOnce(ctx)
}

// Run acquires an exclusive file lock so only one sweeper runs against a
// given database at a time, then polls on cfg.SweepInterval until ctx is
// canceled. A sibling goroutine watches the config file's directory and logs
// when it changes.
func (sw *Sweeper) Run(ctx context.Context, configDir string) error {
	lock := flock.New(sw.lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring sweeper lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another sweeper instance holds %s", sw.lockPath)
	}
	defer func() { _ = lock.Unlock() }()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sw.pollLoop(ctx) })
	if configDir != "" {
		g.Go(func() error { return watchConfig(ctx, configDir) })
	}
	return g.Wait()
}

func (sw *Sweeper) pollLoop(ctx context.Context) error {
	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	for {
		if err := sw.sweepOnce(ctx); err != nil {
			log.Error().Err(err).Msg("sweep pass failed")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// sweepOnce runs a single pass: it finds every soft-deleted volume with no
// region still protected by a referenced snapshot and hard-deletes it. Each
// hard-deleted volume is logged with the number of its regions
// FindDeletedVolumeRegions reports as reclaimable; volumes that still have a
// protected region are not logged.
func (sw *Sweeper) sweepOnce(ctx context.Context) error {
	released, err := sw.store.FindFullyReleasedVolumes(ctx)
	if err != nil {
		return fmt.Errorf("find fully released volumes: %w", err)
	}

	regions, err := sw.store.FindDeletedVolumeRegions(ctx)
	if err != nil {
		return fmt.Errorf("find deleted volume regions: %w", err)
	}
	regionsByVolume := map[uuid.UUID]int{}
	for _, r := range regions {
		regionsByVolume[r.Volume.ID]++
	}

	for _, v := range released {
		if v.TimeDeleted == nil {
			continue
		}
		if sw.minAge > 0 && time.Since(*v.TimeDeleted) < sw.minAge {
			log.Debug().Stringer("volume_id", v.ID).Msg("sweep: below minimum age, deferring")
			continue
		}
		if err := sw.store.VolumeHardDelete(ctx, v.ID); err != nil {
			log.Error().Err(err).Stringer("volume_id", v.ID).Msg("sweep: hard delete failed")
			continue
		}
		log.Info().Stringer("volume_id", v.ID).
			Int("regions_reclaimed", regionsByVolume[v.ID]).
			Msg("sweep: volume hard-deleted")
	}
	return nil
}

func watchConfig(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify.NewWatcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				log.Info().Str("path", event.Name).Msg("config changed; restart sweeper to pick it up")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("config watcher error")
		}
	}
}
