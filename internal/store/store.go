// Package store defines the interface for the volume reference-counting and
// reclamation backend.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/sabledisk/volumectl/internal/volume"
)

// ErrNotFound is returned by VolumeGet and VolumeHardDelete when no row
// matches the requested id.
var ErrNotFound = errors.New("volume not found")

// Transaction exposes the subset of Storage operations that run inside a
// single database transaction, so a caller can compose a multi-step workflow
// (e.g. creation followed by a caller-side audit write) atomically.
//
// # Transaction Semantics
//
//   - All operations within the transaction share the same database connection.
//   - Changes are not visible to other connections until commit.
//   - If any operation returns an error, the transaction is rolled back.
//   - On successful return from the callback, the transaction is committed.
type Transaction interface {
	VolumeCreate(ctx context.Context, v volume.Volume) (volume.Volume, error)
	VolumeGet(ctx context.Context, id uuid.UUID) (volume.Volume, error)
}

// Storage is the interface for the volume reference-counting backend.
type Storage interface {
	// VolumeCreate idempotently inserts a volume and raises reference counts
	// for its read-only targets exactly once, even under retry or concurrent
	// duplicate calls.
	VolumeCreate(ctx context.Context, v volume.Volume) (volume.Volume, error)

	// VolumeGet returns ErrNotFound if no row matches id.
	VolumeGet(ctx context.Context, id uuid.UUID) (volume.Volume, error)

	// VolumeHardDelete unconditionally removes the row. The caller must have
	// already consumed the volume's ReclaimSet.
	VolumeHardDelete(ctx context.Context, id uuid.UUID) error

	// DecreaseAndSoftDelete is idempotent: called repeatedly with the same id,
	// it always returns the same ReclaimSet.
	DecreaseAndSoftDelete(ctx context.Context, id uuid.UUID) (volume.ReclaimSet, error)

	// FindDeletedVolumeRegions returns regions of soft-deleted volumes that no
	// live snapshot protects, for the sweeper to hard-delete.
	FindDeletedVolumeRegions(ctx context.Context) ([]volume.DeletedVolumeRegion, error)

	// FindFullyReleasedVolumes returns soft-deleted volumes none of whose
	// regions is protected by a snapshot with live references, including
	// volumes that own no regions at all. These are safe to hard-delete.
	FindFullyReleasedVolumes(ctx context.Context) ([]volume.Volume, error)

	// ListVolumes returns every volume row, optionally restricted to those
	// soft-deleted at or after sinceDeleted. A nil sinceDeleted returns every
	// volume regardless of deletion state. This is an operator-facing listing,
	// not part of the core's saga-facing contract; it is never cached.
	ListVolumes(ctx context.Context, sinceDeleted *time.Time) ([]volume.Volume, error)

	// RunInTransaction executes fn within a single database transaction,
	// committing on a nil return and rolling back otherwise.
	RunInTransaction(ctx context.Context, fn func(Transaction) error) error

	Close() error
}
