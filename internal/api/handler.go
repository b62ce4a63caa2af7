// Package api provides HTTP handlers for the WildScan API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/ashureev/wildscan/internal/appstate"
	"github.com/ashureev/wildscan/internal/assistant"
	"github.com/ashureev/wildscan/internal/chat"
	"github.com/ashureev/wildscan/internal/identity"
	"github.com/go-chi/chi/v5"
)

// maxRequestBodySize bounds JSON request bodies (1MB).
const maxRequestBodySize = 1 << 20

// Handler serves the state, chat and scan endpoints.
type Handler struct {
	states    *appstate.Registry
	chats     *chat.Registry
	assistant assistant.Assistant
	now       func() time.Time
}

// NewHandler creates a new Handler with its dependencies.
func NewHandler(states *appstate.Registry, chats *chat.Registry, a assistant.Assistant) *Handler {
	return &Handler{
		states:    states,
		chats:     chats,
		assistant: a,
		now:       time.Now,
	}
}

// RegisterRoutes registers the API routes. limit wraps the endpoints that
// call the assistant; nil disables limiting.
func (h *Handler) RegisterRoutes(r chi.Router, limit func(http.Handler) http.Handler) {
	if limit == nil {
		limit = func(next http.Handler) http.Handler { return next }
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(requireDevice)

		r.Route("/state", func(r chi.Router) {
			r.Get("/", h.GetSnapshot)
			r.Delete("/", h.ResetDevice)
			r.Put("/tab", h.SetTab)
			r.Put("/selection", h.SelectAnimal)
			r.Put("/sidebar", h.SetSidebar)

			r.Get("/stats", h.GetStats)
			r.Post("/stats/scans", h.IncrementScans)
			r.Post("/stats/chat-sessions", h.IncrementChatSessions)
			r.Post("/stats/unique-animals", h.AddUniqueAnimal)

			r.Get("/favorites", h.GetFavorites)
			r.Get("/favorites/{animalID}", h.IsFavorited)
			r.Post("/favorites/{animalID}/toggle", h.ToggleFavorite)

			r.Get("/settings", h.GetSettings)
			r.Patch("/settings", h.UpdateSetting)
			r.Post("/settings/dark-mode/toggle", h.ToggleDarkMode)
		})

		r.Route("/chat/sessions", func(r chi.Router) {
			r.Get("/", h.ListSessions)
			r.Post("/", h.CreateSession)
			r.Get("/{sessionID}", h.GetSession)
			r.Delete("/{sessionID}", h.DeleteSession)
			r.Post("/{sessionID}/messages", h.AppendMessage)
			r.With(limit).Post("/{sessionID}/send", h.SendMessage)
		})

		r.With(limit).Post("/scan", h.Scan)
		r.Get("/conservation/{status}", h.GetBadge)
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// decode reads a JSON body into v. An empty body leaves v untouched when
// allowEmpty is set.
func decode(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || (allowEmpty && errors.Is(err, io.EOF)) {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		Error(w, http.StatusRequestEntityTooLarge, "request body too large")
		return false
	}
	Error(w, http.StatusBadRequest, "invalid request body")
	return false
}

// requireDevice rejects requests that did not pass through the identity middleware.
func requireDevice(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identity.DeviceIDFromContext(r.Context()) == "" {
			Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) deviceState(ctx context.Context) *appstate.Store {
	return h.states.Get(ctx, identity.DeviceIDFromContext(ctx))
}

func (h *Handler) deviceChats(ctx context.Context) *chat.Store {
	return h.chats.Get(ctx, identity.DeviceIDFromContext(ctx))
}
