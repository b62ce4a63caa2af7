package appstate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ashureev/wildscan/internal/store"
)

// DeviceChangeFunc is invoked after a field of a device's state changed.
type DeviceChangeFunc func(deviceID, field string)

// Registry hands out one Store per device, loading it on first use.
type Registry struct {
	mu       sync.Mutex
	backend  store.Backend
	logger   *slog.Logger
	onChange DeviceChangeFunc
	stores   map[string]*Store
}

// NewRegistry creates a registry over backend. onChange may be nil.
func NewRegistry(backend store.Backend, logger *slog.Logger, onChange DeviceChangeFunc) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		backend:  backend,
		logger:   logger,
		onChange: onChange,
		stores:   make(map[string]*Store),
	}
}

// Get returns the device's state, loading it from the backend if needed.
func (r *Registry) Get(ctx context.Context, deviceID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.stores[deviceID]; ok {
		return s
	}

	var onChange ChangeFunc
	if r.onChange != nil {
		notify := r.onChange
		onChange = func(field string) { notify(deviceID, field) }
	}
	s := Load(ctx, r.backend, deviceID, r.logger, onChange)
	r.stores[deviceID] = s
	return s
}

// Reset drops the device's cached state and clears what was persisted for
// it, so the next Get starts from defaults.
func (r *Registry) Reset(ctx context.Context, deviceID string) error {
	r.mu.Lock()
	delete(r.stores, deviceID)
	r.mu.Unlock()

	if _, err := r.backend.DeletePrefix(ctx, store.DevicePrefix(deviceID)); err != nil {
		return fmt.Errorf("reset device state: %w", err)
	}
	return nil
}
