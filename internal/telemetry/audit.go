package telemetry

import (
	"context"
	"log/slog"
	"time"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// Action names a privileged operation worth an audit record.
type Action string

const (
	ActionJobAssigned      Action = "job_card.assigned"
	ActionJobStatusChanged Action = "job_card.status_changed"
	ActionChatDeleted      Action = "chat.deleted"
	ActionMemberRemoved    Action = "chat.member_removed"
	ActionAuditTest        Action = "debug.audit_test"
)

// Entry is one audit record before it is enveloped.
type Entry struct {
	Action    Action
	Level     string
	RequestID string
	ActorID   *int64
	Fields    map[string]any
}

type AuditEnvelope struct {
	SchemaVersion int            `json:"schema_version"`
	EventType     string         `json:"event_type"`
	Action        Action         `json:"action"`
	Level         string         `json:"level"`
	OccurredAt    string         `json:"occurred_at"`
	Service       string         `json:"service"`
	Environment   string         `json:"environment"`
	RequestID     string         `json:"request_id"`
	ActorID       *int64         `json:"actor_id,omitempty"`
	Fields        map[string]any `json:"fields,omitempty"`
}

// AuditEmitter publishes audit records to the broker under
// <routingKey>.<action>. A nil emitter drops everything.
type AuditEmitter struct {
	publisher   Publisher
	routingKey  string
	service     string
	environment string
	logger      *slog.Logger
	now         func() time.Time
}

func NewAuditEmitter(publisher Publisher, routingKey, service, environment string, logger *slog.Logger) *AuditEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
		logger:      logger,
		now:         time.Now,
	}
}

// Record publishes entry. Publish failures are logged and never returned.
func (e *AuditEmitter) Record(ctx context.Context, entry Entry) {
	if e == nil || e.publisher == nil {
		return
	}
	if entry.Level == "" {
		entry.Level = "INFO"
	}

	envelope := AuditEnvelope{
		SchemaVersion: 2,
		EventType:     "audit_log",
		Action:        entry.Action,
		Level:         entry.Level,
		OccurredAt:    e.now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     entry.RequestID,
		ActorID:       entry.ActorID,
		Fields:        entry.Fields,
	}
	e.logger.Debug("audit record", "action", entry.Action, "request_id", entry.RequestID)

	if err := e.publisher.Publish(ctx, e.routingKey+"."+string(entry.Action), envelope); err != nil {
		e.logger.Warn("audit publish failed", "action", entry.Action, "error", err)
	}
}
