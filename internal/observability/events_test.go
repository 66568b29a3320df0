package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildHeadersOmitsEmpty(t *testing.T) {
	assert.Empty(t, BuildHeaders("", ""))
	assert.Equal(t, map[string]string{"x-request-id": "req-1", "trace_id": "abc"}, BuildHeaders("req-1", "abc"))
}

func TestConnectionEnvelopeShape(t *testing.T) {
	at := time.Date(2024, 5, 1, 8, 0, 0, 0, time.FixedZone("X", 3600))
	env := NewConnectionEnvelope(ConnectionEvent{Kind: "notifications", ResourceID: 7, Event: "ws_connect", ConnID: "c1"},
		Identity{UserID: 7, IP: "10.0.0.1"}, at)

	raw, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded struct {
		EventType  string    `json:"event_type"`
		EventName  string    `json:"event_name"`
		Service    string    `json:"service"`
		OccurredAt time.Time `json:"occurred_at"`
		Payload    struct {
			WS       map[string]any `json:"ws"`
			Identity map[string]any `json:"identity"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "ws_events", decoded.EventType)
	assert.Equal(t, "ws_connect", decoded.EventName)
	assert.Equal(t, ServiceName, decoded.Service)
	assert.True(t, at.Equal(decoded.OccurredAt))
	assert.Equal(t, "c1", decoded.Payload.WS["conn_id"])
	assert.Equal(t, "10.0.0.1", decoded.Payload.Identity["ip"])
}

func TestClientInfoFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws/notifications", nil)
	r.RemoteAddr = "192.0.2.4:5555"
	r.Header.Set("X-Device-Id", "tablet-3")
	r.Header.Set("X-Request-Id", "req-9")
	assert.Equal(t, ClientInfo{DeviceID: "tablet-3", IP: "192.0.2.4", RequestID: "req-9"}, ClientInfoFromRequest(r))

	r.Header.Set("X-Forwarded-For", " 203.0.113.7 , 10.0.0.1")
	assert.Equal(t, "203.0.113.7", ClientInfoFromRequest(r).IP)
}

type failingPublisher struct{ calls int }

func (f *failingPublisher) PublishJSON(context.Context, string, any, map[string]string) error {
	f.calls++
	return errors.New("broker down")
}

func TestPublishEventWithoutPublisher(t *testing.T) {
	SetPublisher(nil)
	assert.NoError(t, PublishEvent(context.Background(), "ws_events.chat", EventEnvelope{}, nil))

	p := &failingPublisher{}
	SetPublisher(p)
	t.Cleanup(func() { SetPublisher(nil) })
	assert.Error(t, PublishEvent(context.Background(), "ws_events.chat", EventEnvelope{}, nil))
	assert.Equal(t, 1, p.calls)
}
