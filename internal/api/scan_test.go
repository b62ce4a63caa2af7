package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ashureev/wildscan/internal/assistant"
	"github.com/ashureev/wildscan/internal/domain"
)

func postPhoto(t *testing.T, s *testServer, photo []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/scan", bytes.NewReader(photo))
	req.Header.Set("Content-Type", "image/jpeg")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestScan(t *testing.T) {
	s := newTestServer(t)

	w := postPhoto(t, s, []byte("jpeg-bytes"))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var first ScanResult
	decodeBody(t, w, &first)

	if s.asst.photoSize != len("jpeg-bytes") {
		t.Errorf("Expected classifier to receive the photo, got %d bytes", s.asst.photoSize)
	}
	if first.AnimalID != "jaguar-001" || first.Badge.Label != "Near Threatened" {
		t.Errorf("Unexpected result %+v", first)
	}
	if !first.NewlyDiscovered {
		t.Error("Expected first scan to discover the animal")
	}
	def := domain.DefaultUserStats()
	if first.Stats.TotalScans != def.TotalScans+1 || first.Stats.UniqueAnimalsFound != def.UniqueAnimalsFound+1 {
		t.Errorf("Unexpected stats %+v", first.Stats)
	}

	var second ScanResult
	decodeBody(t, postPhoto(t, s, []byte("jpeg-bytes")), &second)
	if second.NewlyDiscovered {
		t.Error("Expected repeat scan not to count as a discovery")
	}
	if second.Stats.TotalScans != def.TotalScans+2 || second.Stats.UniqueAnimalsFound != def.UniqueAnimalsFound+1 {
		t.Errorf("Unexpected stats after repeat %+v", second.Stats)
	}
}

func TestScanTooLarge(t *testing.T) {
	s := newTestServer(t)
	w := postPhoto(t, s, bytes.Repeat([]byte{0xff}, maxPhotoSize+1))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected status 413, got %d", w.Code)
	}
}

func TestScanClassifierUnavailable(t *testing.T) {
	s := newTestServer(t)
	s.asst.err = assistant.ErrUnavailable

	w := postPhoto(t, s, []byte("x"))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}

	var stats domain.UserStats
	decodeBody(t, s.do(t, http.MethodGet, "/api/state/stats", ""), &stats)
	if stats.TotalScans != domain.DefaultUserStats().TotalScans {
		t.Errorf("Failed scan must not be counted, got %d", stats.TotalScans)
	}
}

func TestGetBadge(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		status string
		label  string
		known  bool
	}{
		{"endangered", "Endangered", true},
		{"critically-endangered", "Critically Endangered", true},
		{"made-up", "Least Concern", false},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			var got struct {
				Badge struct {
					Label string `json:"label"`
				} `json:"badge"`
				Known bool `json:"known"`
			}
			decodeBody(t, s.do(t, http.MethodGet, "/api/conservation/"+tt.status, ""), &got)
			if got.Badge.Label != tt.label || got.Known != tt.known {
				t.Errorf("Expected %q known=%v, got %+v", tt.label, tt.known, got)
			}
		})
	}
}
