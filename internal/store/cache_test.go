package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/sabledisk/volumectl/internal/volume"
)

// countingStore is an in-memory Storage that counts VolumeGet round trips, so
// tests can tell a cache hit from a read-through.
type countingStore struct {
	volumes map[uuid.UUID]volume.Volume
	gets    int
}

func newCountingStore() *countingStore {
	return &countingStore{volumes: map[uuid.UUID]volume.Volume{}}
}

func (c *countingStore) VolumeCreate(_ context.Context, v volume.Volume) (volume.Volume, error) {
	if existing, ok := c.volumes[v.ID]; ok {
		return existing, nil
	}
	c.volumes[v.ID] = v
	return v, nil
}

func (c *countingStore) VolumeGet(_ context.Context, id uuid.UUID) (volume.Volume, error) {
	c.gets++
	v, ok := c.volumes[id]
	if !ok {
		return volume.Volume{}, ErrNotFound
	}
	return v, nil
}

func (c *countingStore) VolumeHardDelete(_ context.Context, id uuid.UUID) error {
	if _, ok := c.volumes[id]; !ok {
		return ErrNotFound
	}
	delete(c.volumes, id)
	return nil
}

func (c *countingStore) DecreaseAndSoftDelete(_ context.Context, id uuid.UUID) (volume.ReclaimSet, error) {
	v, ok := c.volumes[id]
	if !ok {
		return volume.EmptyReclaimSet(), nil
	}
	if v.TimeDeleted == nil {
		now := time.Now().UTC()
		encoded, err := volume.EmptyReclaimSet().Encode()
		if err != nil {
			return volume.ReclaimSet{}, err
		}
		v.TimeDeleted = &now
		v.ResourcesToCleanUp = &encoded
		c.volumes[id] = v
	}
	return volume.EmptyReclaimSet(), nil
}

func (c *countingStore) FindDeletedVolumeRegions(context.Context) ([]volume.DeletedVolumeRegion, error) {
	return nil, nil
}

func (c *countingStore) FindFullyReleasedVolumes(context.Context) ([]volume.Volume, error) {
	return nil, nil
}

func (c *countingStore) ListVolumes(context.Context, *time.Time) ([]volume.Volume, error) {
	out := []volume.Volume{}
	for _, v := range c.volumes {
		out = append(out, v)
	}
	return out, nil
}

func (c *countingStore) RunInTransaction(context.Context, func(Transaction) error) error {
	return nil
}

func (c *countingStore) Close() error { return nil }

var _ Storage = (*countingStore)(nil)

func TestCachedStoreServesRepeatGetsFromCache(t *testing.T) {
	ctx := context.Background()
	backing := newCountingStore()
	cached, err := NewCachedStore(backing, 8)
	require.NoError(t, err)

	v, err := cached.VolumeCreate(ctx, volume.Volume{ID: uuid.New(), Data: `{"kind":"url"}`})
	require.NoError(t, err)

	first, err := cached.VolumeGet(ctx, v.ID)
	require.NoError(t, err)
	second, err := cached.VolumeGet(ctx, v.ID)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, 1, backing.gets, "second get must be a cache hit")
}

func TestCachedStoreInvalidatesOnSoftDelete(t *testing.T) {
	ctx := context.Background()
	backing := newCountingStore()
	cached, err := NewCachedStore(backing, 8)
	require.NoError(t, err)

	v, err := cached.VolumeCreate(ctx, volume.Volume{ID: uuid.New(), Data: `{"kind":"url"}`})
	require.NoError(t, err)

	_, err = cached.VolumeGet(ctx, v.ID)
	require.NoError(t, err)

	_, err = cached.DecreaseAndSoftDelete(ctx, v.ID)
	require.NoError(t, err)

	got, err := cached.VolumeGet(ctx, v.ID)
	require.NoError(t, err)
	require.NotNil(t, got.TimeDeleted, "get after soft-delete must not serve the stale live row")
	require.Equal(t, 2, backing.gets)
}

func TestCachedStoreInvalidatesOnHardDelete(t *testing.T) {
	ctx := context.Background()
	backing := newCountingStore()
	cached, err := NewCachedStore(backing, 8)
	require.NoError(t, err)

	v, err := cached.VolumeCreate(ctx, volume.Volume{ID: uuid.New(), Data: `{"kind":"url"}`})
	require.NoError(t, err)
	_, err = cached.VolumeGet(ctx, v.ID)
	require.NoError(t, err)

	require.NoError(t, cached.VolumeHardDelete(ctx, v.ID))

	_, err = cached.VolumeGet(ctx, v.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
