package volumectl_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/sabledisk/volumectl"
)

func TestVolumeLifecycleThroughPublicAPI(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "volumes.db")

	store, err := volumectl.NewSQLiteStorage(ctx, dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStorage failed: %v", err)
	}
	defer store.Close()

	req := volumectl.ConstructionRequest{Kind: volumectl.KindURL}
	data, err := req.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	created, err := store.VolumeCreate(ctx, volumectl.Volume{ID: uuid.New(), Data: data})
	if err != nil {
		t.Fatalf("VolumeCreate failed: %v", err)
	}

	set, err := store.DecreaseAndSoftDelete(ctx, created.ID)
	if err != nil {
		t.Fatalf("DecreaseAndSoftDelete failed: %v", err)
	}
	if len(set.DatasetsAndRegions) != 0 || len(set.DatasetsAndSnapshots) != 0 {
		t.Errorf("expected empty reclaim set for a url volume, got %+v", set)
	}

	if err := store.VolumeHardDelete(ctx, created.ID); err != nil {
		t.Fatalf("VolumeHardDelete failed: %v", err)
	}
	if _, err := store.VolumeGet(ctx, created.ID); !errors.Is(err, volumectl.ErrNotFound) {
		t.Errorf("expected ErrNotFound after hard delete, got %v", err)
	}
}

func TestNewCachedStorage(t *testing.T) {
	ctx := context.Background()
	backing, err := volumectl.NewSQLiteStorage(ctx, filepath.Join(t.TempDir(), "volumes.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStorage failed: %v", err)
	}
	defer backing.Close()

	cached, err := volumectl.NewCachedStorage(backing, 16)
	if err != nil {
		t.Fatalf("NewCachedStorage failed: %v", err)
	}
	if cached == nil {
		t.Error("expected non-nil storage")
	}
}
