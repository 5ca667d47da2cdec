package sqlite

import (
	"fmt"
	"strings"
)

// isUniqueConstraintError reports whether err is a UNIQUE constraint
// violation. ncruces/go-sqlite3 surfaces the SQLite error text rather than a
// portable sentinel, so a substring check is the most reliable signal.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed: UNIQUE")
}

// wrapDBError annotates a database error with the operation that failed.
func wrapDBError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
