package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/sabledisk/volumectl/internal/volume"
)

// CachedStore wraps a Storage with a read-through cache of VolumeGet results,
// keyed by volume id. Every write that could change a cached volume's row
// invalidates that entry rather than updating it in place, since the
// underlying row can be touched by more than just the call that's holding the
// cache wrapper (the sweeper hard-deletes independently of any create/delete
// call going through this wrapper).
type CachedStore struct {
	Storage
	cache *lru.Cache[uuid.UUID, volume.Volume]
}

// NewCachedStore wraps backing with an LRU cache holding up to size entries.
func NewCachedStore(backing Storage, size int) (*CachedStore, error) {
	cache, err := lru.New[uuid.UUID, volume.Volume](size)
	if err != nil {
		return nil, err
	}
	return &CachedStore{Storage: backing, cache: cache}, nil
}

func (c *CachedStore) VolumeGet(ctx context.Context, id uuid.UUID) (volume.Volume, error) {
	if v, ok := c.cache.Get(id); ok {
		return v, nil
	}
	v, err := c.Storage.VolumeGet(ctx, id)
	if err != nil {
		return volume.Volume{}, err
	}
	c.cache.Add(id, v)
	return v, nil
}

func (c *CachedStore) VolumeCreate(ctx context.Context, v volume.Volume) (volume.Volume, error) {
	out, err := c.Storage.VolumeCreate(ctx, v)
	if err != nil {
		return volume.Volume{}, err
	}
	c.cache.Remove(out.ID)
	return out, nil
}

func (c *CachedStore) VolumeHardDelete(ctx context.Context, id uuid.UUID) error {
	err := c.Storage.VolumeHardDelete(ctx, id)
	c.cache.Remove(id)
	return err
}

func (c *CachedStore) DecreaseAndSoftDelete(ctx context.Context, id uuid.UUID) (volume.ReclaimSet, error) {
	set, err := c.Storage.DecreaseAndSoftDelete(ctx, id)
	c.cache.Remove(id)
	return set, err
}

// ListVolumes always reads through to the backing store: a bulk listing is
// not a cache-worthy single-key lookup, the same reasoning that keeps
// FindDeletedVolumeRegions uncached.
func (c *CachedStore) ListVolumes(ctx context.Context, sinceDeleted *time.Time) ([]volume.Volume, error) {
	return c.Storage.ListVolumes(ctx, sinceDeleted)
}
