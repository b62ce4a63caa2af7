package conservation

import (
	"testing"

	"github.com/ashureev/wildscan/internal/domain"
)

func TestBadgeFor(t *testing.T) {
	tests := []struct {
		status     domain.ConservationStatus
		color      string
		background string
		label      string
	}{
		{domain.StatusLeastConcern, "#22c55e", "#dcfce7", "Least Concern"},
		{domain.StatusNearThreatened, "#f97316", "#fed7aa", "Near Threatened"},
		{domain.StatusVulnerable, "#f97316", "#fed7aa", "Vulnerable"},
		{domain.StatusEndangered, "#ef4444", "#fecaca", "Endangered"},
		{domain.StatusCriticallyEndangered, "#dc2626", "#fca5a5", "Critically Endangered"},
		{domain.StatusExtinct, "#6b7280", "#f3f4f6", "Extinct"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			b := BadgeFor(tt.status)
			if b.Color != tt.color || b.Background != tt.background || b.Label != tt.label {
				t.Fatalf("BadgeFor(%q) = %+v", tt.status, b)
			}
			if !Known(tt.status) {
				t.Fatalf("expected %q to be known", tt.status)
			}
		})
	}
}

func TestBadgeForUnknownFallsBack(t *testing.T) {
	for _, status := range []domain.ConservationStatus{"", "data-deficient", "ENDANGERED"} {
		if got, want := BadgeFor(status), BadgeFor(domain.StatusLeastConcern); got != want {
			t.Errorf("BadgeFor(%q) = %+v, want %+v", status, got, want)
		}
		if Known(status) {
			t.Errorf("expected %q to be unknown", status)
		}
	}
}
