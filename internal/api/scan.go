package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/ashureev/wildscan/internal/assistant"
	"github.com/ashureev/wildscan/internal/conservation"
	"github.com/ashureev/wildscan/internal/domain"
	"github.com/go-chi/chi/v5"
)

// maxPhotoSize bounds uploaded scan photos (10MB).
const maxPhotoSize = 10 << 20

// ScanResult is the response to a scan.
type ScanResult struct {
	assistant.Identification
	Badge           conservation.Badge `json:"badge"`
	NewlyDiscovered bool               `json:"newlyDiscovered"`
	Stats           domain.UserStats   `json:"stats"`
}

// Scan classifies the uploaded photo, counts the scan and records the animal
// as discovered. The request body is the raw image.
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	photo, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPhotoSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Error(w, http.StatusRequestEntityTooLarge, "photo too large")
			return
		}
		Error(w, http.StatusBadRequest, "failed to read photo")
		return
	}

	id, err := h.assistant.Classify(r.Context(), photo)
	if err != nil {
		slog.Error("Classification failed", "error", err)
		Error(w, http.StatusServiceUnavailable, "assistant unavailable")
		return
	}

	s := h.deviceState(r.Context())
	s.IncrementScans(r.Context())
	added := s.AddUniqueAnimal(r.Context(), id.AnimalID)

	slog.Info("Scan completed", "animal_id", id.AnimalID, "newly_discovered", added, "device_id", s.DeviceID())

	JSON(w, http.StatusOK, ScanResult{
		Identification:  id,
		Badge:           conservation.BadgeFor(id.Status),
		NewlyDiscovered: added,
		Stats:           s.Stats(),
	})
}

// GetBadge returns the display badge for a conservation status.
func (h *Handler) GetBadge(w http.ResponseWriter, r *http.Request) {
	status := domain.ConservationStatus(chi.URLParam(r, "status"))
	JSON(w, http.StatusOK, map[string]any{
		"badge": conservation.BadgeFor(status),
		"known": conservation.Known(status),
	})
}
