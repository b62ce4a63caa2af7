// Package store provides the key/value persistence backends for device state.
package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when no value is stored under a key.
	ErrNotFound = errors.New("key not found")

	// ErrBusy marks a write that failed because the backend was locked by
	// another writer. The value was not persisted.
	ErrBusy = errors.New("backend busy")
)

// Backend defines the interface for persisting independent state entries.
// Values are opaque bytes; writes are last-write-wins per key.
type Backend interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// DeletePrefix removes every key starting with prefix and returns how many
	// were removed. An empty prefix clears the whole backend.
	DeletePrefix(ctx context.Context, prefix string) (int64, error)

	// Ping verifies backend connectivity.
	Ping(ctx context.Context) error

	// Close releases the backend's resources.
	Close() error
}
