// Package conservation maps conservation statuses to their display badge.
package conservation

import "github.com/ashureev/wildscan/internal/domain"

// Badge is the colors and label used to render a conservation status.
type Badge struct {
	Status     domain.ConservationStatus `json:"status"`
	Color      string                    `json:"color"`
	Background string                    `json:"backgroundColor"`
	Label      string                    `json:"label"`
}

var badges = map[domain.ConservationStatus]Badge{
	domain.StatusLeastConcern:         {domain.StatusLeastConcern, "#22c55e", "#dcfce7", "Least Concern"},
	domain.StatusNearThreatened:       {domain.StatusNearThreatened, "#f97316", "#fed7aa", "Near Threatened"},
	domain.StatusVulnerable:           {domain.StatusVulnerable, "#f97316", "#fed7aa", "Vulnerable"},
	domain.StatusEndangered:           {domain.StatusEndangered, "#ef4444", "#fecaca", "Endangered"},
	domain.StatusCriticallyEndangered: {domain.StatusCriticallyEndangered, "#dc2626", "#fca5a5", "Critically Endangered"},
	domain.StatusExtinct:              {domain.StatusExtinct, "#6b7280", "#f3f4f6", "Extinct"},
}

// BadgeFor returns the badge for status. Unknown statuses get the
// least-concern badge so callers always have something to render.
func BadgeFor(status domain.ConservationStatus) Badge {
	if b, ok := badges[status]; ok {
		return b
	}
	return badges[domain.StatusLeastConcern]
}

// Known reports whether status is one of the defined categories.
func Known(status domain.ConservationStatus) bool {
	_, ok := badges[status]
	return ok
}
