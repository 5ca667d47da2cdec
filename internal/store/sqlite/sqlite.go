// Package sqlite implements store.Storage on top of a local SQLite database,
// using the pure-Go ncruces/go-sqlite3 driver so the binary stays CGo-free.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/rs/zerolog/log"

	"github.com/sabledisk/volumectl/internal/store"
)

// Store is the SQLite-backed implementation of store.Storage: a single
// *sql.DB plus the BEGIN IMMEDIATE retry helper shared by every write path.
type Store struct {
	db *sql.DB
}

// Open creates (or reuses) the database file at dsn, enables foreign keys and
// WAL mode, and brings the schema up to date. dsn is a plain filesystem path;
// ":memory:" is accepted for tests.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, wrapDBError("open database", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, wrapDBError("ping database", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, wrapDBError(fmt.Sprintf("apply %q", p), err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, wrapDBError("apply schema", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, wrapDBError("run migrations", err)
	}

	log.Debug().Str("dsn", dsn).Msg("sqlite store opened")
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// beginImmediate starts a transaction that takes SQLite's write lock up
// front, retrying on SQLITE_BUSY with a short backoff. Taking the lock at
// BEGIN rather than first write means two concurrent deletes of the same
// volume serialize entirely; the loser sees the committed soft-delete.
func beginImmediate(ctx context.Context, conn *sql.Conn) error {
	const maxAttempts = 5
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		_, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE")
		if err == nil {
			return nil
		}
		lastErr = err
		if !isBusyError(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 20 * time.Millisecond):
		}
	}
	return lastErr
}

func isBusyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "SQLITE_BUSY")
}

// txRunner carries the raw connection and its manually managed transaction
// across the helper methods that implement store.Transaction.
type txRunner struct {
	conn      *sql.Conn
	committed bool
}

// RunInTransaction grabs a dedicated connection, opens it with BEGIN
// IMMEDIATE, and commits only if fn returns nil. The deferred rollback fires
// on every other exit path, including a panic unwinding through fn.
func (s *Store) RunInTransaction(ctx context.Context, fn func(store.Transaction) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return wrapDBError("acquire connection", err)
	}
	defer conn.Close()

	if err := beginImmediate(ctx, conn); err != nil {
		return wrapDBError("begin transaction", err)
	}

	tx := &txRunner{conn: conn}
	defer func() {
		if !tx.committed {
			if _, rbErr := conn.ExecContext(context.Background(), "ROLLBACK"); rbErr != nil {
				log.Warn().Err(rbErr).Msg("rollback failed")
			}
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return wrapDBError("commit transaction", err)
	}
	tx.committed = true
	return nil
}

// withConn runs fn against a short-lived connection outside of any explicit
// transaction, for reads where SQLite's own per-statement consistency is
// sufficient.
func (s *Store) withConn(ctx context.Context, fn func(*sql.Conn) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return wrapDBError("acquire connection", err)
	}
	defer conn.Close()
	return fn(conn)
}
