// Package events fans out state change notifications to a device's open
// WebSocket connections, so every tab of the same browser stays in sync.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ashureev/wildscan/internal/identity"
	"github.com/coder/websocket"
)

const (
	defaultBufferSize = 32
	writeTimeout      = 5 * time.Second
)

// Event types.
const (
	TypeState = "state"
	TypeChat  = "chat"
)

// Event tells a client which part of its state to refetch.
type Event struct {
	Type      string    `json:"type"`
	Field     string    `json:"field,omitempty"`
	SessionID string    `json:"sessionId,omitempty"`
	At        time.Time `json:"at"`
}

type subscriber struct {
	ch chan Event
}

// Hub routes events to per-device subscribers. Publishing never blocks: a
// subscriber whose buffer is full misses the event.
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]map[*subscriber]struct{}
	bufSize int
	logger  *slog.Logger

	originPatterns []string
}

// NewHub creates a hub. bufSize <= 0 uses the default buffer.
func NewHub(bufSize int, originPatterns []string, logger *slog.Logger) *Hub {
	if bufSize <= 0 {
		bufSize = defaultBufferSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subs:           make(map[string]map[*subscriber]struct{}),
		bufSize:        bufSize,
		logger:         logger,
		originPatterns: originPatterns,
	}
}

// Subscribe registers for a device's events. The returned cancel function
// must be called to release the subscription.
func (h *Hub) Subscribe(deviceID string) (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, h.bufSize)}

	h.mu.Lock()
	if h.subs[deviceID] == nil {
		h.subs[deviceID] = make(map[*subscriber]struct{})
	}
	h.subs[deviceID][sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[deviceID], sub)
			if len(h.subs[deviceID]) == 0 {
				delete(h.subs, deviceID)
			}
			h.mu.Unlock()
		})
	}
}

// Publish delivers ev to every subscriber of deviceID.
func (h *Hub) Publish(deviceID string, ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[deviceID] {
		select {
		case sub.ch <- ev:
		default:
			h.logger.Debug("Dropping event for slow subscriber", "device_id", deviceID, "type", ev.Type)
		}
	}
}

// StateChanged publishes a state event; it matches appstate.DeviceChangeFunc.
func (h *Hub) StateChanged(deviceID, field string) {
	h.Publish(deviceID, Event{Type: TypeState, Field: field})
}

// ChatChanged publishes a chat event for one session.
func (h *Hub) ChatChanged(deviceID, sessionID string) {
	h.Publish(deviceID, Event{Type: TypeChat, SessionID: sessionID})
}

// Subscribers returns the number of open subscriptions for deviceID.
func (h *Hub) Subscribers(deviceID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[deviceID])
}

// ServeHTTP upgrades the request to a WebSocket and streams the caller's
// events as JSON text frames until either side closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	deviceID := identity.DeviceIDFromContext(r.Context())
	if deviceID == "" {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.logger.Error("Failed to accept WebSocket", "error", err, "device_id", deviceID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "stream ended"); closeErr != nil {
			h.logger.Debug("WebSocket close", "error", closeErr, "device_id", deviceID)
		}
	}()

	events, cancel := h.Subscribe(deviceID)
	defer cancel()

	// Clients never send; CloseRead cancels ctx once the peer goes away.
	ctx := ws.CloseRead(r.Context())
	h.logger.Info("Event stream opened", "device_id", deviceID)

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Event stream closed", "device_id", deviceID)
			return
		case ev := <-events:
			if err := h.write(ctx, ws, ev); err != nil {
				h.logger.Debug("WebSocket write error", "error", err, "device_id", deviceID)
				return
			}
		}
	}
}

func (h *Hub) write(ctx context.Context, ws *websocket.Conn, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return ws.Write(ctx, websocket.MessageText, data)
}
