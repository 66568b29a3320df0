package notify

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"workforce-service/internal/clock"
	"workforce-service/internal/models"
)

const (
	DefaultSummaryInterval = 30 * time.Second
	RecentLimit            = 5
	badgeCap               = 99
)

// PendingSource lists the caller's unread notifications.
type PendingSource interface {
	PendingNotifications(ctx context.Context) ([]models.Notification, error)
}

// Summary is the bell: unread count, badge text and most recent items.
type Summary struct {
	Count     int
	Badge     string
	Recent    []models.Notification
	UpdatedAt time.Time
}

// Badge formats an unread count for display. Zero is blank.
func Badge(count int) string {
	switch {
	case count <= 0:
		return ""
	case count > badgeCap:
		return strconv.Itoa(badgeCap) + "+"
	default:
		return strconv.Itoa(count)
	}
}

// SummaryBoard keeps the bell in step with the server. The count is the
// server's unread state and ignores what the ledger has already shown.
type SummaryBoard struct {
	source   PendingSource
	clock    clock.Clock
	interval time.Duration
	onChange func(Summary)
	logger   *slog.Logger

	mu      sync.Mutex
	current Summary
	ticker  *clock.Ticker
	done    chan struct{}
	wg      sync.WaitGroup
}

type SummaryOption func(*SummaryBoard)

func WithSummaryClock(c clock.Clock) SummaryOption {
	return func(b *SummaryBoard) { b.clock = c }
}

func WithSummaryInterval(d time.Duration) SummaryOption {
	return func(b *SummaryBoard) {
		if d > 0 {
			b.interval = d
		}
	}
}

// OnSummaryChange registers a callback run after every successful refresh.
func OnSummaryChange(fn func(Summary)) SummaryOption {
	return func(b *SummaryBoard) { b.onChange = fn }
}

func WithSummaryLogger(logger *slog.Logger) SummaryOption {
	return func(b *SummaryBoard) { b.logger = logger }
}

func NewSummaryBoard(source PendingSource, opts ...SummaryOption) *SummaryBoard {
	b := &SummaryBoard{
		source:   source,
		clock:    clock.Real(),
		interval: DefaultSummaryInterval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Current returns the last refreshed summary.
func (b *SummaryBoard) Current() Summary {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Refresh fetches pending notifications and recomputes the summary. On
// failure the previous summary is kept and returned.
func (b *SummaryBoard) Refresh(ctx context.Context) Summary {
	list, err := b.source.PendingNotifications(ctx)
	if err != nil {
		b.logger.Warn("notification summary refresh failed", "error", err)
		return b.Current()
	}

	sorted := make([]models.Notification, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.After(sorted[j].CreatedAt) })
	if len(sorted) > RecentLimit {
		sorted = sorted[:RecentLimit]
	}

	s := Summary{
		Count:     len(list),
		Badge:     Badge(len(list)),
		Recent:    sorted,
		UpdatedAt: b.clock.Now(),
	}
	b.mu.Lock()
	b.current = s
	b.mu.Unlock()

	if b.onChange != nil {
		b.onChange(s)
	}
	return s
}

// Start refreshes immediately and then on every interval until Stop.
func (b *SummaryBoard) Start(ctx context.Context) {
	b.mu.Lock()
	if b.ticker != nil {
		b.mu.Unlock()
		return
	}
	b.ticker = b.clock.NewTicker(b.interval)
	b.done = make(chan struct{})
	ticks, done := b.ticker.C, b.done
	b.wg.Add(1)
	b.mu.Unlock()

	go func() {
		defer b.wg.Done()
		b.Refresh(ctx)
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticks:
				b.Refresh(ctx)
			}
		}
	}()
}

// Stop halts periodic refresh. It is safe to call more than once.
func (b *SummaryBoard) Stop() {
	b.mu.Lock()
	if b.ticker == nil {
		b.mu.Unlock()
		return
	}
	b.ticker.Stop()
	b.ticker = nil
	close(b.done)
	b.mu.Unlock()

	b.wg.Wait()
}
