package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/sabledisk/volumectl/internal/store"
	"github.com/sabledisk/volumectl/internal/volume"
)

// DecreaseAndSoftDelete is idempotent: a volume already soft-deleted replays
// its previously computed ReclaimSet rather than recomputing one, since the
// reference decrements it represents must happen exactly once.
func (s *Store) DecreaseAndSoftDelete(ctx context.Context, id uuid.UUID) (volume.ReclaimSet, error) {
	var out volume.ReclaimSet
	err := s.RunInTransaction(ctx, func(txn store.Transaction) error {
		tx := txn.(*txRunner)

		v, err := volumeGet(ctx, tx.conn, id)
		if errors.Is(err, store.ErrNotFound) {
			// Already hard-deleted: nothing left to reclaim.
			out = volume.EmptyReclaimSet()
			return nil
		}
		if err != nil {
			return err
		}

		if v.TimeDeleted != nil {
			if v.ResourcesToCleanUp == nil {
				// CHECK(time_deleted, resources_to_clean_up) rules this out in
				// practice; treat it the same as "nothing to reclaim" rather
				// than erroring the caller.
				out = volume.EmptyReclaimSet()
				return nil
			}
			out, err = volume.DecodeReclaimSet(*v.ResourcesToCleanUp)
			return err
		}

		set, err := computeReclaimSet(ctx, tx.conn, v)
		if err != nil {
			return err
		}

		encoded, err := set.Encode()
		if err != nil {
			return err
		}

		res, err := tx.conn.ExecContext(ctx,
			`UPDATE volume SET time_deleted = ?, resources_to_clean_up = ? WHERE id = ?`,
			time.Now().UTC(), encoded, id.String(),
		)
		if err != nil {
			return wrapDBError("soft delete volume", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return wrapDBError("soft delete volume rows affected", err)
		} else if n == 0 {
			return store.ErrNotFound
		}

		out = set
		return nil
	})
	return out, err
}

// computeReclaimSet decrements the reference count of every read-only target
// the volume's construction request walks to, and collects what became
// reclaimable as a result: the volume's own read/write regions, provided no
// live snapshot still protects them, and every snapshot row that is now at
// zero references.
func computeReclaimSet(ctx context.Context, eq execQuerier, v volume.Volume) (volume.ReclaimSet, error) {
	req, err := volume.ParseConstructionRequest(v.Data)
	if err != nil {
		return volume.ReclaimSet{}, err
	}
	targets, err := volume.Walk(req)
	if err != nil {
		return volume.ReclaimSet{}, err
	}

	for _, addr := range targets {
		if err := bumpSnapshotRefcount(ctx, eq, addr, -1); err != nil {
			return volume.ReclaimSet{}, err
		}
	}

	regions, err := reclaimableRegions(ctx, eq, v.ID)
	if err != nil {
		return volume.ReclaimSet{}, err
	}

	// Deliberately global, not scoped to v's own targets: snapshots are
	// shared across volumes and carry no volume_id column, so any row sitting
	// at zero (including one dropped there by an earlier delete whose set was
	// never consumed) is harvested here.
	snapshots, err := zeroedSnapshots(ctx, eq)
	if err != nil {
		return volume.ReclaimSet{}, err
	}

	return volume.ReclaimSet{
		Version:              volume.ReclaimSetV1,
		DatasetsAndRegions:   regions,
		DatasetsAndSnapshots: snapshots,
	}, nil
}

// reclaimableRegions returns the regions volumeID owns that no live snapshot
// protects: a left join kept only where the matching snapshot row is absent
// or already at zero references, the same shape FindDeletedVolumeRegions
// uses. A region still shadowed by a referenced snapshot stays out of the
// reclaim set; it surfaces through the sweeper query once that snapshot is
// released.
func reclaimableRegions(ctx context.Context, eq execQuerier, volumeID uuid.UUID) ([]volume.DatasetRegion, error) {
	rows, err := eq.QueryContext(ctx, `
		SELECT region.id, region.dataset_id
		FROM region
		LEFT JOIN region_snapshot
			ON region_snapshot.region_id = region.id
			AND region_snapshot.dataset_id = region.dataset_id
		WHERE region.volume_id = ?
		GROUP BY region.id
		HAVING COALESCE(MAX(region_snapshot.volume_references), 0) = 0`,
		volumeID.String(),
	)
	if err != nil {
		return nil, wrapDBError("query reclaimable regions", err)
	}
	defer rows.Close()

	out := []volume.DatasetRegion{}
	for rows.Next() {
		var regionIDStr, datasetIDStr string
		if err := rows.Scan(&regionIDStr, &datasetIDStr); err != nil {
			return nil, wrapDBError("scan reclaimable region", err)
		}
		regionID, err := uuid.Parse(regionIDStr)
		if err != nil {
			return nil, err
		}
		datasetID, err := uuid.Parse(datasetIDStr)
		if err != nil {
			return nil, err
		}
		out = append(out, volume.DatasetRegion{
			Dataset: volume.Dataset{ID: datasetID},
			Region:  volume.Region{ID: regionID, VolumeID: volumeID, DatasetID: datasetID},
		})
	}
	return out, rows.Err()
}

// zeroedSnapshots is the find_zeroed scan: every region_snapshot row whose
// reference count is zero, paired with its dataset.
func zeroedSnapshots(ctx context.Context, eq execQuerier) ([]volume.DatasetSnapshot, error) {
	rows, err := eq.QueryContext(ctx,
		`SELECT dataset_id, region_id, snapshot_id, snapshot_addr, volume_references
		 FROM region_snapshot WHERE volume_references = 0`,
	)
	if err != nil {
		return nil, wrapDBError("query zeroed snapshots", err)
	}
	defer rows.Close()

	out := []volume.DatasetSnapshot{}

	for rows.Next() {
		var datasetIDStr, regionIDStr, snapshotIDStr, addr string
		var refs int
		if err := rows.Scan(&datasetIDStr, &regionIDStr, &snapshotIDStr, &addr, &refs); err != nil {
			return nil, wrapDBError("scan zeroed snapshot", err)
		}
		datasetID, err := uuid.Parse(datasetIDStr)
		if err != nil {
			return nil, err
		}
		regionID, err := uuid.Parse(regionIDStr)
		if err != nil {
			return nil, err
		}
		snapshotID, err := uuid.Parse(snapshotIDStr)
		if err != nil {
			return nil, err
		}
		out = append(out, volume.DatasetSnapshot{
			Dataset: volume.Dataset{ID: datasetID},
			Snapshot: volume.RegionSnapshot{
				DatasetID:        datasetID,
				RegionID:         regionID,
				SnapshotID:       snapshotID,
				SnapshotAddr:     addr,
				VolumeReferences: refs,
			},
		})
	}
	return out, rows.Err()
}

// FindDeletedVolumeRegions returns regions of soft-deleted volumes that no
// live snapshot protects: a left join from region to region_snapshot, kept
// only where the matching snapshot row is absent or already at zero
// references.
func (s *Store) FindDeletedVolumeRegions(ctx context.Context) ([]volume.DeletedVolumeRegion, error) {
	var out []volume.DeletedVolumeRegion
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `
			SELECT
				region.id, region.volume_id, region.dataset_id,
				volume.data, volume.time_deleted, volume.resources_to_clean_up
			FROM region
			JOIN volume ON volume.id = region.volume_id
			LEFT JOIN region_snapshot
				ON region_snapshot.region_id = region.id
				AND region_snapshot.dataset_id = region.dataset_id
			WHERE volume.time_deleted IS NOT NULL
			GROUP BY region.id
			HAVING COALESCE(MAX(region_snapshot.volume_references), 0) = 0
		`)
		if err != nil {
			return wrapDBError("query deleted volume regions", err)
		}
		defer rows.Close()

		out = []volume.DeletedVolumeRegion{}
		for rows.Next() {
			var regionIDStr, volumeIDStr, datasetIDStr, data string
			var timeDeleted sql.NullTime
			var cleanup sql.NullString
			if err := rows.Scan(&regionIDStr, &volumeIDStr, &datasetIDStr, &data, &timeDeleted, &cleanup); err != nil {
				return wrapDBError("scan deleted volume region", err)
			}
			regionID, err := uuid.Parse(regionIDStr)
			if err != nil {
				return err
			}
			volumeID, err := uuid.Parse(volumeIDStr)
			if err != nil {
				return err
			}
			datasetID, err := uuid.Parse(datasetIDStr)
			if err != nil {
				return err
			}
			v := volume.Volume{ID: volumeID, Data: data}
			if timeDeleted.Valid {
				t := timeDeleted.Time
				v.TimeDeleted = &t
			}
			if cleanup.Valid {
				c := cleanup.String
				v.ResourcesToCleanUp = &c
			}
			out = append(out, volume.DeletedVolumeRegion{
				Dataset: volume.Dataset{ID: datasetID},
				Region:  volume.Region{ID: regionID, VolumeID: volumeID, DatasetID: datasetID},
				Volume:  v,
			})
		}
		return rows.Err()
	})
	return out, err
}

// FindFullyReleasedVolumes returns every soft-deleted volume that is safe to
// hard-delete: none of its regions has a matching snapshot with live
// references. A volume that owns no regions qualifies vacuously. This is the
// query the sweeper drives hard-deletion from; FindDeletedVolumeRegions
// reports per-region detail, but deciding a whole volume is releasable needs
// the inverse check, that no protected region remains.
func (s *Store) FindFullyReleasedVolumes(ctx context.Context) ([]volume.Volume, error) {
	var out []volume.Volume
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `
			SELECT volume.id, volume.data, volume.time_deleted, volume.resources_to_clean_up
			FROM volume
			WHERE volume.time_deleted IS NOT NULL
			AND NOT EXISTS (
				SELECT 1 FROM region
				JOIN region_snapshot
					ON region_snapshot.region_id = region.id
					AND region_snapshot.dataset_id = region.dataset_id
				WHERE region.volume_id = volume.id
				AND region_snapshot.volume_references > 0
			)
			ORDER BY volume.id
		`)
		if err != nil {
			return wrapDBError("query fully released volumes", err)
		}
		defer rows.Close()

		out = []volume.Volume{}
		for rows.Next() {
			var (
				idStr       string
				data        string
				timeDeleted sql.NullTime
				cleanup     sql.NullString
			)
			if err := rows.Scan(&idStr, &data, &timeDeleted, &cleanup); err != nil {
				return wrapDBError("scan fully released volume", err)
			}
			id, err := uuid.Parse(idStr)
			if err != nil {
				return err
			}
			v := volume.Volume{ID: id, Data: data}
			if timeDeleted.Valid {
				t := timeDeleted.Time
				v.TimeDeleted = &t
			}
			if cleanup.Valid {
				c := cleanup.String
				v.ResourcesToCleanUp = &c
			}
			out = append(out, v)
		}
		return rows.Err()
	})
	return out, err
}
