package observability

import "time"

// ServiceName identifies this service in traces and published events.
const ServiceName = "workforce-service"

// EventEnvelope wraps every event this service publishes to the broker.
type EventEnvelope struct {
	EventType  string    `json:"event_type"`
	EventName  string    `json:"event_name"`
	Service    string    `json:"service,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// ConnectionEvent describes a websocket connect, disconnect or error.
type ConnectionEvent struct {
	Kind       string `json:"kind"`
	ResourceID int    `json:"resource_id"`
	Event      string `json:"event"`
	ConnID     string `json:"conn_id"`
	DurationMS int64  `json:"duration_ms"`
	Reason     string `json:"reason,omitempty"`
}

// Identity is who held the connection.
type Identity struct {
	UserID   int    `json:"user_id"`
	DeviceID string `json:"device_id,omitempty"`
	IP       string `json:"ip,omitempty"`
}

type connectionPayload struct {
	WS       ConnectionEvent `json:"ws"`
	Identity Identity        `json:"identity"`
}

// NewConnectionEnvelope builds the ws_events envelope for ev.
func NewConnectionEnvelope(ev ConnectionEvent, who Identity, at time.Time) EventEnvelope {
	return EventEnvelope{
		EventType:  "ws_events",
		EventName:  ev.Event,
		Service:    ServiceName,
		OccurredAt: at.UTC(),
		Payload:    connectionPayload{WS: ev, Identity: who},
	}
}

// BuildHeaders returns the AMQP headers that correlate an event with its
// request and trace. Empty values are omitted.
func BuildHeaders(requestID, traceID string) map[string]string {
	headers := make(map[string]string, 2)
	if requestID != "" {
		headers["x-request-id"] = requestID
	}
	if traceID != "" {
		headers["trace_id"] = traceID
	}
	return headers
}
