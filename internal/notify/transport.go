package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"workforce-service/internal/clock"
	"workforce-service/internal/models"
)

const (
	DefaultPollInterval = 30 * time.Second
	LivePath            = "/ws/notifications"
)

// Source is the server side of the transport.
type Source interface {
	PendingNotifications(ctx context.Context) ([]models.Notification, error)
	WebSocketURL(path string) (string, error)
}

// Handler receives each normalized notification.
type Handler func(ctx context.Context, n models.Notification)

type Mode string

const (
	ModeIdle       Mode = "idle"
	ModeConnecting Mode = "connecting"
	ModeLive       Mode = "live"
	ModePolling    Mode = "polling"
	ModeStopped    Mode = "stopped"
)

// Transport delivers notifications from the live channel, or from polling when
// the live channel is unavailable. Delivery order is preserved within a source;
// nothing orders live events against polled ones, so handlers must tolerate
// duplicates.
type Transport struct {
	source   Source
	handler  Handler
	clock    clock.Clock
	interval time.Duration
	dialer   *websocket.Dialer
	logger   *slog.Logger

	mu     sync.Mutex
	mode   Mode
	conn   *websocket.Conn
	ticker *clock.Ticker
	done   chan struct{}
	wg     sync.WaitGroup
}

type TransportOption func(*Transport)

func WithClock(c clock.Clock) TransportOption {
	return func(t *Transport) { t.clock = c }
}

func WithPollInterval(d time.Duration) TransportOption {
	return func(t *Transport) {
		if d > 0 {
			t.interval = d
		}
	}
}

func WithDialer(d *websocket.Dialer) TransportOption {
	return func(t *Transport) { t.dialer = d }
}

func WithTransportLogger(logger *slog.Logger) TransportOption {
	return func(t *Transport) { t.logger = logger }
}

func NewTransport(source Source, handler Handler, opts ...TransportOption) *Transport {
	t := &Transport{
		source:   source,
		handler:  handler,
		clock:    clock.Real(),
		interval: DefaultPollInterval,
		dialer:   &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		logger:   slog.Default(),
		mode:     ModeIdle,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Mode reports the active delivery path.
func (t *Transport) Mode() Mode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mode
}

// Connect opens the live channel, falling back to polling when the dial fails.
// It never returns an error; the returned mode says which path is active. Only
// the first call dials; calls made while that dial is pending return
// ModeConnecting.
func (t *Transport) Connect(ctx context.Context) Mode {
	t.mu.Lock()
	if t.mode != ModeIdle {
		mode := t.mode
		t.mu.Unlock()
		return mode
	}
	// claim the dial; concurrent callers see ModeConnecting and return
	t.mode = ModeConnecting
	t.mu.Unlock()

	url, err := t.source.WebSocketURL(LivePath)
	if err == nil {
		var conn *websocket.Conn
		conn, _, err = t.dialer.DialContext(ctx, url, nil)
		if err == nil {
			t.mu.Lock()
			if t.mode != ModeConnecting {
				mode := t.mode
				t.mu.Unlock()
				conn.Close()
				return mode
			}
			t.conn = conn
			t.mode = ModeLive
			t.wg.Add(1)
			t.mu.Unlock()

			t.logger.Info("notification channel connected")
			go t.readLoop(context.WithoutCancel(ctx), conn)
			return ModeLive
		}
	}

	t.logger.Warn("notification channel unavailable, polling", "error", err, "interval", t.interval)
	return t.startPolling(context.WithoutCancel(ctx))
}

func (t *Transport) readLoop(ctx context.Context, conn *websocket.Conn) {
	defer t.wg.Done()
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-t.done:
				return
			default:
			}
			t.logger.Warn("notification channel lost, polling", "error", err)
			conn.Close()
			t.mu.Lock()
			t.conn = nil
			t.mu.Unlock()
			t.startPolling(ctx)
			return
		}

		n, err := Normalize(raw, t.clock.Now())
		if err != nil {
			if !errors.Is(err, ErrNotNotification) {
				t.logger.Debug("dropping malformed event", "error", err)
			}
			continue
		}
		t.handler(ctx, n)
	}
}

func (t *Transport) startPolling(ctx context.Context) Mode {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.mode == ModeStopped || t.mode == ModePolling {
		return t.mode
	}
	t.mode = ModePolling
	t.ticker = t.clock.NewTicker(t.interval)
	ticks := t.ticker.C

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.poll(ctx)
		for {
			select {
			case <-t.done:
				return
			case <-ticks:
				t.poll(ctx)
			}
		}
	}()
	return ModePolling
}

func (t *Transport) poll(ctx context.Context) {
	for _, n := range t.PollOnce(ctx) {
		select {
		case <-t.done:
			return
		default:
		}
		t.handler(ctx, fill(n, t.clock.Now()))
	}
}

// PollOnce fetches pending notifications. Failures are logged and yield an
// empty list; the next tick retries.
func (t *Transport) PollOnce(ctx context.Context) []models.Notification {
	list, err := t.source.PendingNotifications(ctx)
	if err != nil {
		t.logger.Warn("notification poll failed", "error", err)
		return nil
	}
	return list
}

// Stop closes the live channel and the poll ticker and waits for the reader
// goroutines to exit. It is safe to call more than once.
func (t *Transport) Stop() {
	t.mu.Lock()
	if t.mode == ModeStopped {
		t.mu.Unlock()
		return
	}
	t.mode = ModeStopped
	close(t.done)
	if t.conn != nil {
		_ = t.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		t.conn.Close()
		t.conn = nil
	}
	if t.ticker != nil {
		t.ticker.Stop()
		t.ticker = nil
	}
	t.mu.Unlock()

	t.wg.Wait()
}
