package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"workforce-service/internal/models"
)

var epoch = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

type ackRecorder struct {
	mu   sync.Mutex
	ids  []string
	fail bool
}

func (a *ackRecorder) MarkNotificationRead(_ context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ids = append(a.ids, id)
	if a.fail {
		return errors.New("ack failed")
	}
	return nil
}

func (a *ackRecorder) calls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.ids...)
}

type recordingSink struct {
	mu     sync.Mutex
	shown  []Alert
	hidden []string
}

func (s *recordingSink) Show(a Alert) {
	s.mu.Lock()
	s.shown = append(s.shown, a)
	s.mu.Unlock()
}

func (s *recordingSink) Hide(id string) {
	s.mu.Lock()
	s.hidden = append(s.hidden, id)
	s.mu.Unlock()
}

func (s *recordingSink) shownAlerts() []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Alert(nil), s.shown...)
}

func (s *recordingSink) hiddenIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.hidden...)
}

type pendingStub struct {
	mu    sync.Mutex
	calls int
	lists [][]models.Notification
	err   error
}

func (p *pendingStub) PendingNotifications(context.Context) ([]models.Notification, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	if len(p.lists) == 0 {
		return nil, nil
	}
	list := p.lists[0]
	if len(p.lists) > 1 {
		p.lists = p.lists[1:]
	}
	return list, nil
}

func (p *pendingStub) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}
