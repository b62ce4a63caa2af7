package store

import (
	"fmt"
	"strings"
)

// isSQLiteBusyError checks if the error is a SQLITE_BUSY error.
// This occurs when the database is locked by another connection.
func isSQLiteBusyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "SQLITE_BUSY")
}

// isSQLiteLockedError checks if the error is a "database is locked" error.
func isSQLiteLockedError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "database is locked")
}

// classifyWriteError wraps SQLite concurrency errors with ErrBusy so callers
// can tell a contended write from a broken backend.
func classifyWriteError(op string, err error) error {
	if err == nil {
		return nil
	}
	if isSQLiteBusyError(err) || isSQLiteLockedError(err) {
		return fmt.Errorf("%s: %w: %v", op, ErrBusy, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
