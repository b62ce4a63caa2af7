package chat

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ashureev/wildscan/internal/store"
)

// RegistryOptions configures the per-device stores a Registry creates.
type RegistryOptions struct {
	// OnNewChat is called with the device id after every Store.NewChat.
	OnNewChat func(ctx context.Context, deviceID string)
	// OnChange is called with the device and session id after any mutation.
	OnChange func(deviceID, sessionID string)
	Logger   *slog.Logger
}

// Registry hands out one Store per device, loading it on first use.
type Registry struct {
	mu      sync.Mutex
	backend store.Backend
	opts    RegistryOptions
	stores  map[string]*Store
}

// NewRegistry creates a registry over backend.
func NewRegistry(backend store.Backend, opts RegistryOptions) *Registry {
	return &Registry{
		backend: backend,
		opts:    opts,
		stores:  make(map[string]*Store),
	}
}

// Get returns the device's chat store.
func (r *Registry) Get(ctx context.Context, deviceID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.stores[deviceID]; ok {
		return s
	}

	opts := Options{Logger: r.opts.Logger}
	if fn := r.opts.OnNewChat; fn != nil {
		opts.OnNewChat = func(ctx context.Context) { fn(ctx, deviceID) }
	}
	if fn := r.opts.OnChange; fn != nil {
		opts.OnChange = func(sessionID string) { fn(deviceID, sessionID) }
	}
	s := Load(ctx, r.backend, deviceID, opts)
	r.stores[deviceID] = s
	return s
}

// Forget drops the cached store so the next Get reloads from the backend.
func (r *Registry) Forget(deviceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stores, deviceID)
}
