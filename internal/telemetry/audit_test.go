package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"workforce-service/internal/mocks"
)

func TestRecordPublishesEnvelope(t *testing.T) {
	pub := new(mocks.PublisherMock)
	emitter := NewAuditEmitter(pub, "audit.workforce", "workforce-service", "test", nil)
	emitter.now = func() time.Time { return time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC) }
	actor := int64(3)

	pub.On("Publish", mock.Anything, "audit.workforce.job_card.assigned", mock.MatchedBy(func(e AuditEnvelope) bool {
		return e.EventType == "audit_log" && e.Service == "workforce-service" &&
			e.Action == ActionJobAssigned && e.Level == "INFO" &&
			e.RequestID == "req-1" && *e.ActorID == 3 &&
			e.OccurredAt == "2024-05-01T08:00:00Z" &&
			e.Fields["job_card_id"] == 42
	})).Return(nil).Once()

	emitter.Record(context.Background(), Entry{
		Action:    ActionJobAssigned,
		RequestID: "req-1",
		ActorID:   &actor,
		Fields:    map[string]any{"job_card_id": 42},
	})
	pub.AssertExpectations(t)
}

func TestRecordSwallowsPublishError(t *testing.T) {
	pub := new(mocks.PublisherMock)
	pub.On("Publish", mock.Anything, "audit.chat.deleted", mock.Anything).Return(errors.New("broker down")).Once()

	emitter := NewAuditEmitter(pub, "audit", "workforce-service", "test", nil)
	assert.NotPanics(t, func() {
		emitter.Record(context.Background(), Entry{Action: ActionChatDeleted})
	})
	pub.AssertExpectations(t)
}

func TestRecordOnNilEmitter(t *testing.T) {
	var emitter *AuditEmitter
	assert.NotPanics(t, func() {
		emitter.Record(context.Background(), Entry{Action: ActionAuditTest})
	})
}
