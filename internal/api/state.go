package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ashureev/wildscan/internal/appstate"
	"github.com/ashureev/wildscan/internal/domain"
	"github.com/ashureev/wildscan/internal/identity"
	"github.com/go-chi/chi/v5"
)

// GetSnapshot returns every state field at once.
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.deviceState(r.Context()).Snapshot())
}

// ResetDevice clears the caller's persisted state and chat history.
func (h *Handler) ResetDevice(w http.ResponseWriter, r *http.Request) {
	deviceID := identity.DeviceIDFromContext(r.Context())

	h.chats.Forget(deviceID)
	if err := h.states.Reset(r.Context(), deviceID); err != nil {
		slog.Error("Failed to reset device", "error", err, "device_id", deviceID)
		Error(w, http.StatusInternalServerError, "failed to reset state")
		return
	}

	slog.Info("Device state reset", "device_id", deviceID)
	JSON(w, http.StatusOK, h.deviceState(r.Context()).Snapshot())
}

// SetTab switches the active tab.
func (h *Handler) SetTab(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tab domain.Tab `json:"tab"`
	}
	if !decode(w, r, &req, false) {
		return
	}

	s := h.deviceState(r.Context())
	if err := s.SetTab(r.Context(), req.Tab); err != nil {
		if errors.Is(err, appstate.ErrInvalidTab) {
			Error(w, http.StatusBadRequest, err.Error())
			return
		}
		Error(w, http.StatusInternalServerError, "failed to set tab")
		return
	}
	JSON(w, http.StatusOK, map[string]any{"tab": s.Tab(), "selectedAnimal": s.SelectedAnimal()})
}

// SelectAnimal opens or closes the animal detail view.
func (h *Handler) SelectAnimal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AnimalID string `json:"animalId"`
	}
	if !decode(w, r, &req, false) {
		return
	}

	s := h.deviceState(r.Context())
	s.SelectAnimal(req.AnimalID)
	JSON(w, http.StatusOK, map[string]string{"selectedAnimal": s.SelectedAnimal()})
}

// SetSidebar shows or hides the chat sidebar.
func (h *Handler) SetSidebar(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Open *bool `json:"open"`
	}
	if !decode(w, r, &req, false) {
		return
	}
	if req.Open == nil {
		Error(w, http.StatusBadRequest, "open is required")
		return
	}

	s := h.deviceState(r.Context())
	s.SetChatSidebarOpen(r.Context(), *req.Open)
	JSON(w, http.StatusOK, map[string]bool{"open": s.ChatSidebarOpen()})
}

// GetStats returns the user statistics.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.deviceState(r.Context()).Stats())
}

// IncrementScans adds one to the scan counter.
func (h *Handler) IncrementScans(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.deviceState(r.Context()).IncrementScans(r.Context()))
}

// IncrementChatSessions adds one to the chat session counter.
func (h *Handler) IncrementChatSessions(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.deviceState(r.Context()).IncrementChatSessions(r.Context()))
}

// AddUniqueAnimal records a discovered animal.
func (h *Handler) AddUniqueAnimal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AnimalID string `json:"animalId"`
	}
	if !decode(w, r, &req, false) {
		return
	}
	if req.AnimalID == "" {
		Error(w, http.StatusBadRequest, "animalId is required")
		return
	}

	s := h.deviceState(r.Context())
	added := s.AddUniqueAnimal(r.Context(), req.AnimalID)
	JSON(w, http.StatusOK, map[string]any{"added": added, "stats": s.Stats()})
}

// GetFavorites lists favorite animal ids.
func (h *Handler) GetFavorites(w http.ResponseWriter, r *http.Request) {
	favorites := h.deviceState(r.Context()).Favorites()
	if favorites == nil {
		favorites = []string{}
	}
	JSON(w, http.StatusOK, map[string][]string{"favorites": favorites})
}

// IsFavorited reports whether an animal is a favorite.
func (h *Handler) IsFavorited(w http.ResponseWriter, r *http.Request) {
	animalID := chi.URLParam(r, "animalID")
	JSON(w, http.StatusOK, map[string]any{
		"animalId":  animalID,
		"favorited": h.deviceState(r.Context()).IsFavorited(animalID),
	})
}

// ToggleFavorite flips an animal's favorite membership.
func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	animalID := chi.URLParam(r, "animalID")
	s := h.deviceState(r.Context())
	favorited := s.ToggleFavorite(r.Context(), animalID)

	JSON(w, http.StatusOK, map[string]any{
		"animalId":       animalID,
		"favorited":      favorited,
		"favoritesCount": s.Stats().FavoritesCount,
	})
}

// GetSettings returns the settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.deviceState(r.Context()).Settings())
}

// UpdateSetting replaces a single setting.
func (h *Handler) UpdateSetting(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key   string `json:"key"`
		Value any    `json:"value"`
	}
	if !decode(w, r, &req, false) {
		return
	}

	settings, err := h.deviceState(r.Context()).UpdateSetting(r.Context(), req.Key, req.Value)
	if err != nil {
		if errors.Is(err, appstate.ErrInvalidSetting) {
			Error(w, http.StatusBadRequest, err.Error())
			return
		}
		Error(w, http.StatusInternalServerError, "failed to update setting")
		return
	}
	JSON(w, http.StatusOK, settings)
}

// ToggleDarkMode flips dark mode.
func (h *Handler) ToggleDarkMode(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.deviceState(r.Context()).ToggleDarkMode(r.Context()))
}
