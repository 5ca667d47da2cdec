package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/sabledisk/volumectl/internal/store"
	"github.com/sabledisk/volumectl/internal/volume"
)

func TestVolumeCreateThenGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	req := volume.ConstructionRequest{Kind: volume.KindURL}
	v := mustCreateVolume(t, s, req)

	got, err := s.VolumeGet(ctx, v.ID)
	if err != nil {
		t.Fatalf("VolumeGet: %v", err)
	}
	if got.ID != v.ID || got.Data != v.Data {
		t.Fatalf("got %+v, want %+v", got, v)
	}
}

func TestVolumeGetMissingReturnsErrNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.VolumeGet(context.Background(), uuid.New())
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestVolumeCreateIsIdempotentUnderDuplicateCall(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	datasetID := insertDataset(t, s)
	_, _ = insertSnapshot(t, s, datasetID, "10.0.0.9:9000", 0)

	req := volume.ConstructionRequest{
		Kind: volume.KindRegion,
		Opts: volume.RegionOpts{Target: []string{"10.0.0.9:9000"}, ReadOnly: true},
	}
	encoded, err := req.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	id := uuid.New()

	first, err := s.VolumeCreate(ctx, volume.Volume{ID: id, Data: encoded})
	if err != nil {
		t.Fatalf("first VolumeCreate: %v", err)
	}
	second, err := s.VolumeCreate(ctx, volume.Volume{ID: id, Data: encoded})
	if err != nil {
		t.Fatalf("second VolumeCreate: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("ids diverged: %v vs %v", first.ID, second.ID)
	}

	var refs int
	row := s.db.QueryRowContext(ctx, `SELECT volume_references FROM region_snapshot WHERE snapshot_addr = ?`, "10.0.0.9:9000")
	if err := row.Scan(&refs); err != nil {
		t.Fatalf("scan refs: %v", err)
	}
	if refs != 1 {
		t.Fatalf("refs = %d, want 1 (duplicate create must not double-bump)", refs)
	}
}

func TestVolumeCreateBumpsReadOnlyTargetsOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	datasetID := insertDataset(t, s)
	_, _ = insertSnapshot(t, s, datasetID, "10.0.0.1:1000", 0)

	req := volume.ConstructionRequest{
		Kind: volume.KindRegion,
		Opts: volume.RegionOpts{Target: []string{"10.0.0.1:1000"}, ReadOnly: false},
	}
	mustCreateVolume(t, s, req)

	var refs int
	row := s.db.QueryRowContext(ctx, `SELECT volume_references FROM region_snapshot WHERE snapshot_addr = ?`, "10.0.0.1:1000")
	if err := row.Scan(&refs); err != nil {
		t.Fatalf("scan refs: %v", err)
	}
	if refs != 0 {
		t.Fatalf("refs = %d, want 0 (read-write region target must not bump)", refs)
	}
}

func TestVolumeHardDeleteRemovesRowAndRegions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	v := mustCreateVolume(t, s, volume.ConstructionRequest{Kind: volume.KindURL})
	datasetID := insertDataset(t, s)
	insertRegion(t, s, v.ID, datasetID)

	if err := s.VolumeHardDelete(ctx, v.ID); err != nil {
		t.Fatalf("VolumeHardDelete: %v", err)
	}

	if _, err := s.VolumeGet(ctx, v.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected volume gone, got err=%v", err)
	}

	var count int
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM region WHERE volume_id = ?`, v.ID.String())
	if err := row.Scan(&count); err != nil {
		t.Fatalf("scan region count: %v", err)
	}
	if count != 0 {
		t.Fatalf("region count = %d, want 0", count)
	}
}

func TestVolumeHardDeleteMissingReturnsErrNotFound(t *testing.T) {
	s := newTestStore(t)
	if err := s.VolumeHardDelete(context.Background(), uuid.New()); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
