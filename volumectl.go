// Package volumectl provides a minimal public API for embedding the volume
// reference-counting and reclamation core.
//
// Most callers are sagas or sweepers that create volumes, soft-delete them to
// obtain the resources released, and hard-delete them once those resources
// are physically gone. This package exports only the types and constructors
// needed to drive that lifecycle programmatically; the cmd/volumectl CLI is
// built on the same surface.
package volumectl

import (
	"context"

	"github.com/sabledisk/volumectl/internal/store"
	"github.com/sabledisk/volumectl/internal/store/sqlite"
	"github.com/sabledisk/volumectl/internal/volume"
)

// Storage is the interface for volume storage operations.
type Storage = store.Storage

// Transaction provides atomic multi-operation support within a database
// transaction. Use Storage.RunInTransaction to obtain one.
type Transaction = store.Transaction

// ErrNotFound is returned by lookups and hard-deletes of absent volumes.
var ErrNotFound = store.ErrNotFound

// Volume is a logical disk assembled from a tree of construction requests.
type Volume = volume.Volume

// ConstructionRequest describes how to assemble a volume from sub-volumes,
// regions, URLs, and files.
type ConstructionRequest = volume.ConstructionRequest

// ReclaimSet is the durable record of resources released by a soft-delete.
type ReclaimSet = volume.ReclaimSet

// Construction request variants.
const (
	KindVolume = volume.KindVolume
	KindURL    = volume.KindURL
	KindRegion = volume.KindRegion
	KindFile   = volume.KindFile
)

// NewSQLiteStorage opens (or creates) a SQLite-backed store at dbPath.
func NewSQLiteStorage(ctx context.Context, dbPath string) (Storage, error) {
	return sqlite.Open(ctx, dbPath)
}

// NewCachedStorage wraps backing with an LRU read cache of up to size
// volumes, invalidated on every write.
func NewCachedStorage(backing Storage, size int) (Storage, error) {
	return store.NewCachedStore(backing, size)
}
