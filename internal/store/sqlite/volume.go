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

// execQuerier is the subset of *sql.DB / *sql.Conn used by the query helpers
// in this package, so the same code runs whether or not a transaction is
// already open.
type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// VolumeCreate opens its own transaction and delegates to the shared helper.
func (s *Store) VolumeCreate(ctx context.Context, v volume.Volume) (volume.Volume, error) {
	var out volume.Volume
	err := s.RunInTransaction(ctx, func(tx store.Transaction) error {
		var err error
		out, err = tx.VolumeCreate(ctx, v)
		return err
	})
	return out, err
}

// VolumeCreate is the Transaction-scoped implementation: it inserts the
// volume row exactly once and, only on the transaction that wins the insert,
// bumps the reference count of every snapshot the volume's construction
// request reads from.
//
// The creation race is resolved by trusting only the INSERT's own
// rows-affected count, never a preceding SELECT: a SELECT-then-INSERT can
// still race with a concurrent caller between the two statements, but a
// losing INSERT is unambiguous.
func (tx *txRunner) VolumeCreate(ctx context.Context, v volume.Volume) (volume.Volume, error) {
	res, err := tx.conn.ExecContext(ctx,
		`INSERT INTO volume (id, data) VALUES (?, ?)`,
		v.ID.String(), v.Data,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return volumeGet(ctx, tx.conn, v.ID)
		}
		return volume.Volume{}, wrapDBError("insert volume", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return volume.Volume{}, wrapDBError("insert volume rows affected", err)
	}
	if n == 0 {
		return volumeGet(ctx, tx.conn, v.ID)
	}

	req, err := volume.ParseConstructionRequest(v.Data)
	if err != nil {
		return volume.Volume{}, err
	}
	targets, err := volume.Walk(req)
	if err != nil {
		return volume.Volume{}, err
	}
	for _, addr := range targets {
		if err := bumpSnapshotRefcount(ctx, tx.conn, addr, 1); err != nil {
			return volume.Volume{}, err
		}
	}

	return volume.Volume{ID: v.ID, Data: v.Data}, nil
}

// bumpSnapshotRefcount adjusts volume_references by delta for the snapshot at
// addr. A target whose snapshot row does not exist yet (created out-of-band
// and not yet represented) is silently skipped, not an error. Nothing here
// stops a buggy caller from driving a count negative; that invariant is held
// by the create/delete pairing and asserted in tests.
func bumpSnapshotRefcount(ctx context.Context, eq execQuerier, addr string, delta int) error {
	if _, err := eq.ExecContext(ctx,
		`UPDATE region_snapshot SET volume_references = volume_references + ? WHERE snapshot_addr = ?`,
		delta, addr,
	); err != nil {
		return wrapDBError("bump snapshot refcount", err)
	}
	return nil
}

func (s *Store) VolumeGet(ctx context.Context, id uuid.UUID) (volume.Volume, error) {
	var out volume.Volume
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		var err error
		out, err = volumeGet(ctx, conn, id)
		return err
	})
	return out, err
}

func (tx *txRunner) VolumeGet(ctx context.Context, id uuid.UUID) (volume.Volume, error) {
	return volumeGet(ctx, tx.conn, id)
}

func volumeGet(ctx context.Context, eq execQuerier, id uuid.UUID) (volume.Volume, error) {
	row := eq.QueryRowContext(ctx,
		`SELECT id, data, time_deleted, resources_to_clean_up FROM volume WHERE id = ?`,
		id.String(),
	)
	v, err := scanVolume(row)
	if errors.Is(err, sql.ErrNoRows) {
		return volume.Volume{}, store.ErrNotFound
	}
	if err != nil {
		return volume.Volume{}, wrapDBError("get volume", err)
	}
	return v, nil
}

func scanVolume(row *sql.Row) (volume.Volume, error) {
	var (
		idStr       string
		data        string
		timeDeleted sql.NullTime
		cleanup     sql.NullString
	)
	if err := row.Scan(&idStr, &data, &timeDeleted, &cleanup); err != nil {
		return volume.Volume{}, err
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return volume.Volume{}, err
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
	return v, nil
}

// VolumeHardDelete removes the volume row and every region it owns. The
// caller must have already drained the volume's ReclaimSet; this method does
// not touch region_snapshot rows, since those outlive the volume that
// referenced them.
func (s *Store) VolumeHardDelete(ctx context.Context, id uuid.UUID) error {
	return s.RunInTransaction(ctx, func(txn store.Transaction) error {
		tx := txn.(*txRunner)
		if _, err := tx.conn.ExecContext(ctx, `DELETE FROM region WHERE volume_id = ?`, id.String()); err != nil {
			return wrapDBError("delete volume regions", err)
		}
		res, err := tx.conn.ExecContext(ctx, `DELETE FROM volume WHERE id = ?`, id.String())
		if err != nil {
			return wrapDBError("delete volume", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return wrapDBError("delete volume rows affected", err)
		}
		if n == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

// ListVolumes returns every volume row, optionally filtered to those
// soft-deleted at or after sinceDeleted.
func (s *Store) ListVolumes(ctx context.Context, sinceDeleted *time.Time) ([]volume.Volume, error) {
	var out []volume.Volume
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		query := `SELECT id, data, time_deleted, resources_to_clean_up FROM volume`
		args := []any{}
		if sinceDeleted != nil {
			query += ` WHERE time_deleted IS NOT NULL AND time_deleted >= ?`
			args = append(args, *sinceDeleted)
		}
		query += ` ORDER BY id`

		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return wrapDBError("list volumes", err)
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
				return wrapDBError("scan volume", err)
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
