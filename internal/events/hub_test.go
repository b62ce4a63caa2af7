package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ashureev/wildscan/internal/identity"
	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestPublishRoutesByDevice(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := NewHub(4, nil, nil)
	a, cancelA := h.Subscribe("anon_a")
	defer cancelA()
	b, cancelB := h.Subscribe("anon_b")
	defer cancelB()

	h.StateChanged("anon_a", "favorites")

	select {
	case ev := <-a:
		assert.Equal(t, TypeState, ev.Type)
		assert.Equal(t, "favorites", ev.Field)
		assert.False(t, ev.At.IsZero())
	default:
		t.Fatal("expected event for anon_a")
	}
	select {
	case ev := <-b:
		t.Fatalf("unexpected event for anon_b: %+v", ev)
	default:
	}
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := NewHub(1, nil, nil)
	ch, cancel := h.Subscribe("anon_a")
	defer cancel()

	h.ChatChanged("anon_a", "s1")
	h.ChatChanged("anon_a", "s2")

	ev := <-ch
	assert.Equal(t, "s1", ev.SessionID)
	select {
	case ev := <-ch:
		t.Fatalf("expected second event to be dropped, got %+v", ev)
	default:
	}
}

func TestCancelUnsubscribes(t *testing.T) {
	h := NewHub(0, nil, nil)
	_, cancel := h.Subscribe("anon_a")
	require.Equal(t, 1, h.Subscribers("anon_a"))

	cancel()
	cancel()
	assert.Equal(t, 0, h.Subscribers("anon_a"))
	h.StateChanged("anon_a", "tab")
}

func TestServeHTTPStreamsEvents(t *testing.T) {
	h := NewHub(8, nil, nil)
	srv := httptest.NewServer(identity.Middleware(true)(h))
	defer srv.Close()

	deviceID, err := identity.NewDeviceID()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPHeader: http.Header{"Cookie": []string{identity.AnonCookieName + "=" + deviceID}},
	})
	require.NoError(t, err)
	defer conn.CloseNow()

	require.Eventually(t, func() bool { return h.Subscribers(deviceID) == 1 }, 2*time.Second, 10*time.Millisecond)

	h.StateChanged(deviceID, "tab")
	h.StateChanged("someone-else", "tab")
	h.ChatChanged(deviceID, "session-1")

	var got []Event
	for i := 0; i < 2; i++ {
		typ, data, err := conn.Read(ctx)
		require.NoError(t, err)
		require.Equal(t, websocket.MessageText, typ)
		var ev Event
		require.NoError(t, json.Unmarshal(data, &ev))
		got = append(got, ev)
	}
	assert.Equal(t, Event{Type: TypeState, Field: "tab"}, Event{Type: got[0].Type, Field: got[0].Field})
	assert.Equal(t, "session-1", got[1].SessionID)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, "done"))
	require.Eventually(t, func() bool { return h.Subscribers(deviceID) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestServeHTTPRequiresDevice(t *testing.T) {
	h := NewHub(0, nil, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ws/events", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
