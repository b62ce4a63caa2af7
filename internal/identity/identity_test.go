package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func captureDevice(t *testing.T, req *http.Request) (string, *httptest.ResponseRecorder) {
	t.Helper()
	var got string
	h := Middleware(true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = DeviceIDFromContext(r.Context())
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return got, rr
}

func TestMiddlewareAssignsNewDevice(t *testing.T) {
	id, rr := captureDevice(t, httptest.NewRequest(http.MethodGet, "/api/state", nil))

	if !IsValidDeviceID(id) {
		t.Fatalf("expected generated device id, got %q", id)
	}
	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != AnonCookieName || cookies[0].Value != id {
		t.Fatalf("expected cookie carrying %q, got %+v", id, cookies)
	}
	if !cookies[0].HttpOnly {
		t.Fatal("expected HttpOnly cookie")
	}
}

func TestMiddlewareReusesValidCookie(t *testing.T) {
	existing, err := NewDeviceID()
	if err != nil {
		t.Fatalf("NewDeviceID: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	req.AddCookie(&http.Cookie{Name: AnonCookieName, Value: existing})

	id, _ := captureDevice(t, req)
	if id != existing {
		t.Fatalf("expected %q, got %q", existing, id)
	}
}

func TestMiddlewareReplacesForgedCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	req.AddCookie(&http.Cookie{Name: AnonCookieName, Value: "../../etc/passwd"})

	id, _ := captureDevice(t, req)
	if id == "../../etc/passwd" || !IsValidDeviceID(id) {
		t.Fatalf("expected forged id to be replaced, got %q", id)
	}
}

func TestDeviceIDFromEmptyContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := DeviceIDFromContext(req.Context()); got != "" {
		t.Fatalf("expected empty device id, got %q", got)
	}
}
