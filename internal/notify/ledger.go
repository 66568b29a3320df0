package notify

import (
	"context"
	"log/slog"
	"sync"

	"workforce-service/internal/models"
)

// Acker acknowledges a notification on the server.
type Acker interface {
	MarkNotificationRead(ctx context.Context, notificationID string) error
}

// Ledger tracks which notifications were shown in the current session.
//
// Display is at most once per id. Acknowledgement is attempted once per id and
// never retried, so a failed ack can bring a notification back in a later
// session (the server still reports it pending) but never twice in this one.
type Ledger struct {
	mu        sync.Mutex
	displayed map[string]struct{}
	acked     map[string]struct{}
	store     SessionStore
	acker     Acker
	logger    *slog.Logger
}

// NewLedger builds a ledger seeded from store. A nil store keeps state in memory
// only.
func NewLedger(ctx context.Context, acker Acker, store SessionStore, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	if store == nil {
		store = NewMemoryStore()
	}
	l := &Ledger{
		displayed: map[string]struct{}{},
		acked:     map[string]struct{}{},
		store:     store,
		acker:     acker,
		logger:    logger,
	}

	ids, err := store.Load(ctx)
	if err != nil {
		logger.Warn("notification ledger load failed", "error", err)
	}
	for _, id := range ids {
		l.displayed[id] = struct{}{}
	}
	return l
}

// ShouldDisplay reports whether n has not been shown yet and records it as
// shown. Concurrent calls for the same id return true at most once.
// Notifications without an id cannot be tracked and are always shown.
func (l *Ledger) ShouldDisplay(ctx context.Context, n models.Notification) bool {
	if n.ID == "" {
		return true
	}

	l.mu.Lock()
	if _, seen := l.displayed[n.ID]; seen {
		l.mu.Unlock()
		return false
	}
	l.displayed[n.ID] = struct{}{}
	l.mu.Unlock()

	if err := l.store.Record(ctx, n.ID); err != nil {
		l.logger.Warn("notification ledger record failed", "id", n.ID, "error", err)
	}
	return true
}

// Acknowledge marks the notification read on the server once. Failures are
// logged only.
func (l *Ledger) Acknowledge(ctx context.Context, id string) {
	if id == "" || l.acker == nil {
		return
	}

	l.mu.Lock()
	if _, done := l.acked[id]; done {
		l.mu.Unlock()
		return
	}
	l.acked[id] = struct{}{}
	l.mu.Unlock()

	if err := l.acker.MarkNotificationRead(ctx, id); err != nil {
		l.logger.Warn("notification acknowledge failed", "id", id, "error", err)
	}
}

// Displayed reports whether id was shown in this session.
func (l *Ledger) Displayed(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.displayed[id]
	return ok
}

// Clear forgets every displayed id. Server read state is untouched.
func (l *Ledger) Clear(ctx context.Context) {
	l.mu.Lock()
	l.displayed = map[string]struct{}{}
	l.acked = map[string]struct{}{}
	l.mu.Unlock()

	if err := l.store.Reset(ctx); err != nil {
		l.logger.Warn("notification ledger reset failed", "error", err)
	}
}
