package sqlite

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/sabledisk/volumectl/internal/store"
	"github.com/sabledisk/volumectl/internal/volume"
)

// newTestStore opens a fresh file-backed database under t.TempDir. File-based
// databases behave more predictably than ":memory:" once a connection pool is
// involved.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := t.TempDir() + "/test.db"

	s, err := Open(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Open(%q): %v", dbPath, err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	})
	return s
}

// insertDataset inserts a bare dataset row and returns its id.
func insertDataset(t *testing.T, s *Store) uuid.UUID {
	t.Helper()
	id := uuid.New()
	if _, err := s.db.ExecContext(context.Background(), `INSERT INTO dataset (id) VALUES (?)`, id.String()); err != nil {
		t.Fatalf("insert dataset: %v", err)
	}
	return id
}

// insertRegion inserts a region owned by volumeID on datasetID and returns its id.
func insertRegion(t *testing.T, s *Store, volumeID, datasetID uuid.UUID) uuid.UUID {
	t.Helper()
	id := uuid.New()
	if _, err := s.db.ExecContext(context.Background(),
		`INSERT INTO region (id, volume_id, dataset_id) VALUES (?, ?, ?)`,
		id.String(), volumeID.String(), datasetID.String(),
	); err != nil {
		t.Fatalf("insert region: %v", err)
	}
	return id
}

// insertSnapshot inserts a region_snapshot row with the given reference count.
func insertSnapshot(t *testing.T, s *Store, datasetID uuid.UUID, addr string, refs int) (regionID, snapshotID uuid.UUID) {
	t.Helper()
	regionID = uuid.New()
	snapshotID = uuid.New()
	if _, err := s.db.ExecContext(context.Background(),
		`INSERT INTO region_snapshot (dataset_id, region_id, snapshot_id, snapshot_addr, volume_references)
		 VALUES (?, ?, ?, ?, ?)`,
		datasetID.String(), regionID.String(), snapshotID.String(), addr, refs,
	); err != nil {
		t.Fatalf("insert region_snapshot: %v", err)
	}
	return regionID, snapshotID
}

// mustCreateVolume creates a volume whose data is req's encoded form, failing
// the test on any error.
func mustCreateVolume(t *testing.T, s *Store, req volume.ConstructionRequest) volume.Volume {
	t.Helper()
	encoded, err := req.Encode()
	if err != nil {
		t.Fatalf("encode construction request: %v", err)
	}
	v, err := s.VolumeCreate(context.Background(), volume.Volume{ID: uuid.New(), Data: encoded})
	if err != nil {
		t.Fatalf("VolumeCreate: %v", err)
	}
	return v
}

// snapshotRefs reads back the current reference count for addr.
func snapshotRefs(t *testing.T, s *Store, addr string) int {
	t.Helper()
	var refs int
	row := s.db.QueryRowContext(context.Background(),
		`SELECT volume_references FROM region_snapshot WHERE snapshot_addr = ?`, addr)
	if err := row.Scan(&refs); err != nil {
		t.Fatalf("scan refs for %s: %v", addr, err)
	}
	return refs
}

// assertNoNegativeRefs asserts the non-negativity invariant over every
// snapshot row. The schema carries no CHECK for this; the create/delete
// pairing is what holds it, so tests re-check it after every history.
func assertNoNegativeRefs(t *testing.T, s *Store) {
	t.Helper()
	var negative int
	row := s.db.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM region_snapshot WHERE volume_references < 0`)
	if err := row.Scan(&negative); err != nil {
		t.Fatalf("scan negative ref count: %v", err)
	}
	if negative != 0 {
		t.Fatalf("%d snapshot rows have negative volume_references", negative)
	}
}

var _ store.Storage = (*Store)(nil)
