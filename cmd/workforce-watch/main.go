// workforce-watch follows a user's notifications from a terminal. It connects
// to the live notification channel, falls back to polling when that is
// unavailable, prints each alert once and keeps the unread badge current.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/pflag"

	"workforce-service/internal/api"
	"workforce-service/internal/logging"
	"workforce-service/internal/models"
	"workforce-service/internal/notify"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		server       string
		token        string
		redisAddr    string
		session      string
		sessionTTL   time.Duration
		pollInterval time.Duration
		logLevel     string
		mute         bool
	)

	flagSet := pflag.NewFlagSet("workforce-watch", pflag.ContinueOnError)
	flagSet.StringVar(&server, "server", "http://localhost:8083", "workforce service base URL")
	flagSet.StringVar(&token, "token", os.Getenv("WORKFORCE_TOKEN"), "bearer token (default $WORKFORCE_TOKEN)")
	flagSet.StringVar(&redisAddr, "redis", os.Getenv("REDIS_ADDR"), "redis address for the display ledger; empty keeps it in memory")
	flagSet.StringVar(&session, "session", "", "session id for the persisted ledger (default: hostname)")
	flagSet.DurationVar(&sessionTTL, "session-ttl", 12*time.Hour, "how long a persisted ledger lives")
	flagSet.DurationVar(&pollInterval, "poll-interval", notify.DefaultPollInterval, "polling interval when the live channel is down")
	flagSet.StringVar(&logLevel, "log-level", "warn", "log level")
	flagSet.BoolVar(&mute, "mute", false, "disable the terminal bell")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if token == "" {
		return fmt.Errorf("no token: pass --token or set WORKFORCE_TOKEN")
	}
	if session == "" {
		session, _ = os.Hostname()
	}

	logger := logging.New(os.Stderr, logLevel, "text")
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := api.New(server, token, api.WithLogger(logger))

	var store notify.SessionStore = notify.NewMemoryStore()
	var prefs notify.Preferences = &notify.MemoryPreferences{}
	if redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, ledger kept in memory", "addr", redisAddr, "error", err)
		} else {
			redisStore := notify.NewRedisStore(rdb, session, sessionTTL)
			store, prefs = redisStore, redisStore
		}
	}
	if mute {
		if err := prefs.SetSoundEnabled(ctx, false); err != nil {
			logger.Warn("could not save sound preference", "error", err)
		}
	}

	out := &lineSink{w: os.Stdout}
	ledger := notify.NewLedger(ctx, client, store, logger)
	presenter := notify.NewPresenter(ledger, out,
		notify.WithSound(prefs, bell{w: os.Stdout}),
		notify.WithPresenterLogger(logger),
	)
	defer presenter.Close()

	board := notify.NewSummaryBoard(client,
		notify.OnSummaryChange(out.summary),
		notify.WithSummaryLogger(logger),
	)
	board.Start(ctx)
	defer board.Stop()

	transport := notify.NewTransport(client, func(ctx context.Context, n models.Notification) {
		if presenter.Present(ctx, n) {
			board.Refresh(ctx)
		}
	}, notify.WithPollInterval(pollInterval), notify.WithTransportLogger(logger))
	mode := transport.Connect(ctx)
	logger.Info("watching notifications", "mode", mode, "session", session)
	defer transport.Stop()

	<-ctx.Done()
	return nil
}

// lineSink prints alerts and badge changes as single lines.
type lineSink struct {
	mu    sync.Mutex
	w     io.Writer
	badge string
}

func (s *lineSink) Show(a notify.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := fmt.Sprintf("%s [%s] %s: %s", a.ShownAt.Format(time.TimeOnly), a.Level, a.Title, a.Message)
	if a.Action != nil {
		line += fmt.Sprintf(" (%s: %s)", a.Action.Label, a.Action.URL)
	}
	fmt.Fprintln(s.w, line)
}

func (s *lineSink) Hide(string) {}

func (s *lineSink) summary(sum notify.Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sum.Badge == s.badge {
		return
	}
	s.badge = sum.Badge
	if sum.Badge == "" {
		fmt.Fprintln(s.w, "no unread notifications")
		return
	}
	fmt.Fprintf(s.w, "unread: %s\n", sum.Badge)
}

type bell struct{ w io.Writer }

func (b bell) Play(notify.Category) { fmt.Fprint(b.w, "\a") }
