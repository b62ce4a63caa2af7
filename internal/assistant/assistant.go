// Package assistant defines the image classification and chat reply services
// that stand behind the scan and chat screens.
package assistant

import (
	"context"
	"errors"

	"github.com/ashureev/wildscan/internal/domain"
)

// ErrUnavailable is returned when the backing service cannot be reached.
var ErrUnavailable = errors.New("assistant unavailable")

// Identification is the result of classifying a photo.
type Identification struct {
	AnimalID string                    `json:"animalId"`
	Status   domain.ConservationStatus `json:"conservationStatus"`
}

// Classifier identifies the animal in a photo.
type Classifier interface {
	Classify(ctx context.Context, photo []byte) (Identification, error)
}

// Responder produces the assistant's reply to a chat message.
type Responder interface {
	Respond(ctx context.Context, text string, hasImage bool) (string, error)
}

// Assistant bundles both services.
type Assistant interface {
	Classifier
	Responder
	// Close releases resources.
	Close()
}

// Ensure implementations satisfy Assistant.
var (
	_ Assistant = (*Demo)(nil)
	_ Assistant = (*RemoteClient)(nil)
)
