package sqlite

import (
	"context"
	"database/sql"
)

// migration is a named, idempotent schema step applied in order and recorded
// so it never reruns.
type migration struct {
	name string
	fn   func(ctx context.Context, db *sql.DB) error
}

// migrations is currently empty; schema.go's CREATE TABLE IF NOT EXISTS
// statements cover the full initial schema. New columns or backfills get
// appended here as the schema evolves.
var migrations = []migration{}

func runMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migration (
    name TEXT PRIMARY KEY,
    applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`); err != nil {
		return err
	}

	for _, m := range migrations {
		var already int
		row := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migration WHERE name = ?`, m.name)
		if err := row.Scan(&already); err != nil {
			return err
		}
		if already > 0 {
			continue
		}
		if err := m.fn(ctx, db); err != nil {
			return wrapDBError("migration "+m.name, err)
		}
		if _, err := db.ExecContext(ctx, `INSERT INTO schema_migration (name) VALUES (?)`, m.name); err != nil {
			return err
		}
	}
	return nil
}
