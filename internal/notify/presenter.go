package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"workforce-service/internal/clock"
	"workforce-service/internal/models"
)

const (
	GenericDuration     = 5000 * time.Millisecond
	CategorizedDuration = 7000 * time.Millisecond
)

type Category string

const (
	CategoryJobAssignment Category = "job_assignment"
	CategoryMessage       Category = "message"
	CategoryLeave         Category = "leave"
	CategoryTask          Category = "task"
	CategoryCustomer      Category = "customer"
	CategoryStatusUpdate  Category = "status_update"
	CategoryGeneric       Category = "generic"
)

// Style is how a notification type renders.
type Style struct {
	Category Category
	Icon     string
	Level    models.Level
}

var styles = map[models.NotificationType]Style{
	models.NotificationJobAssignment:    {CategoryJobAssignment, "briefcase", models.LevelSuccess},
	models.NotificationNewMessage:       {CategoryMessage, "chat", models.LevelInfo},
	models.NotificationDirectMessage:    {CategoryMessage, "chat-dots", models.LevelInfo},
	models.NotificationLeaveApplication: {CategoryLeave, "calendar", models.LevelWarning},
	models.NotificationTaskAssignment:   {CategoryTask, "list-check", models.LevelInfo},
	models.NotificationTaskUpdate:       {CategoryTask, "arrow-repeat", models.LevelInfo},
	models.NotificationCustomerAddition: {CategoryCustomer, "person-plus", models.LevelSuccess},
	models.NotificationJobStatusUpdate:  {CategoryStatusUpdate, "clipboard-check", models.LevelInfo},
}

var genericStyle = Style{CategoryGeneric, "bell", models.LevelInfo}

// StyleFor returns the style of a notification type. Unknown types are generic.
func StyleFor(t models.NotificationType) Style {
	if s, ok := styles[t]; ok {
		return s
	}
	return genericStyle
}

// Action is the single click-through of an alert.
type Action struct {
	Label string
	URL   string
}

// Alert is one rendered toast.
type Alert struct {
	ID             string
	NotificationID string
	Category       Category
	Icon           string
	Level          models.Level
	Title          string
	Message        string
	Action         *Action
	Duration       time.Duration
	ShownAt        time.Time
}

// Sink renders alerts.
type Sink interface {
	Show(a Alert)
	Hide(id string)
}

// SoundPlayer plays the cue for a category.
type SoundPlayer interface {
	Play(c Category)
}

// Preferences holds the persisted sound preference.
type Preferences interface {
	SoundEnabled(ctx context.Context) bool
	SetSoundEnabled(ctx context.Context, enabled bool) error
}

// ActionFor returns the click-through of n: its redirect_url, or the default
// page for its type. Generic notifications without a redirect_url have none.
func ActionFor(n models.Notification) *Action {
	style := StyleFor(n.Type)
	label := actionLabels[style.Category]
	if n.RedirectURL != "" {
		if label == "" {
			label = "View"
		}
		return &Action{Label: label, URL: n.RedirectURL}
	}

	var url string
	switch n.Type {
	case models.NotificationDirectMessage, models.NotificationNewMessage:
		url = "/chat"
		if id, ok := n.Payload.Int("group_id"); ok {
			url = fmt.Sprintf("/chat/%d", id)
		}
	case models.NotificationJobAssignment, models.NotificationJobStatusUpdate:
		url = "/jobcards"
		if id, ok := n.Payload.Int("job_card_id"); ok {
			url = fmt.Sprintf("/jobcards/%d", id)
		}
	case models.NotificationLeaveApplication:
		url = "/leave"
	case models.NotificationTaskAssignment, models.NotificationTaskUpdate:
		url = "/tasks"
	case models.NotificationCustomerAddition:
		url = "/customers"
	default:
		return nil
	}
	return &Action{Label: label, URL: url}
}

var actionLabels = map[Category]string{
	CategoryJobAssignment: "View Job Card",
	CategoryMessage:       "Open Chat",
	CategoryLeave:         "Review Leave",
	CategoryTask:          "View Tasks",
	CategoryCustomer:      "View Customers",
	CategoryStatusUpdate:  "View Job Card",
}

type activeAlert struct {
	alert Alert
	timer *clock.Timer
}

// Presenter shows notifications as stacked alerts, newest first. Each alert
// hides itself after its duration unless dismissed earlier.
type Presenter struct {
	ledger *Ledger
	sink   Sink
	clock  clock.Clock
	prefs  Preferences
	sound  SoundPlayer
	logger *slog.Logger

	mu     sync.Mutex
	alerts []*activeAlert
}

type PresenterOption func(*Presenter)

func WithPresenterClock(c clock.Clock) PresenterOption {
	return func(p *Presenter) { p.clock = c }
}

func WithSound(prefs Preferences, player SoundPlayer) PresenterOption {
	return func(p *Presenter) {
		p.prefs = prefs
		p.sound = player
	}
}

func WithPresenterLogger(logger *slog.Logger) PresenterOption {
	return func(p *Presenter) { p.logger = logger }
}

func NewPresenter(ledger *Ledger, sink Sink, opts ...PresenterOption) *Presenter {
	p := &Presenter{
		ledger: ledger,
		sink:   sink,
		clock:  clock.Real(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Present shows n unless the ledger says it was already shown, then
// acknowledges it. It reports whether an alert was shown.
func (p *Presenter) Present(ctx context.Context, n models.Notification) bool {
	if !p.ledger.ShouldDisplay(ctx, n) {
		return false
	}

	style := StyleFor(n.Type)
	level := n.Level
	if level == "" {
		level = style.Level
	}
	duration := CategorizedDuration
	if style.Category == CategoryGeneric {
		duration = GenericDuration
	}

	id := n.ID
	if id == "" {
		id = uuid.NewString()
	}
	p.show(ctx, Alert{
		ID:             id,
		NotificationID: n.ID,
		Category:       style.Category,
		Icon:           style.Icon,
		Level:          level,
		Title:          n.Title,
		Message:        n.Message,
		Action:         ActionFor(n),
		Duration:       duration,
	})

	p.ledger.Acknowledge(ctx, n.ID)
	return true
}

// Notify shows a locally raised alert, such as the result of an assignment.
// It bypasses the ledger and is never acknowledged.
func (p *Presenter) Notify(ctx context.Context, level models.Level, title, message string) string {
	id := "local-" + uuid.NewString()
	duration := GenericDuration
	if level == models.LevelError {
		duration = CategorizedDuration
	}
	p.show(ctx, Alert{
		ID:       id,
		Category: CategoryGeneric,
		Icon:     genericStyle.Icon,
		Level:    level,
		Title:    title,
		Message:  message,
		Duration: duration,
	})
	return id
}

func (p *Presenter) show(ctx context.Context, a Alert) {
	a.ShownAt = p.clock.Now()
	active := &activeAlert{alert: a}

	p.mu.Lock()
	p.alerts = append([]*activeAlert{active}, p.alerts...)
	active.timer = p.clock.AfterFunc(a.Duration, func() { p.expire(a.ID) })
	p.mu.Unlock()

	p.sink.Show(a)
	if p.sound != nil && p.prefs != nil && p.prefs.SoundEnabled(ctx) {
		p.sound.Play(a.Category)
	}
}

func (p *Presenter) expire(id string) {
	if p.take(id) != nil {
		p.sink.Hide(id)
	}
}

// Dismiss hides one alert and cancels its timer. Other alerts are unaffected.
func (p *Presenter) Dismiss(id string) bool {
	active := p.take(id)
	if active == nil {
		return false
	}
	active.timer.Stop()
	p.sink.Hide(id)
	return true
}

func (p *Presenter) take(id string) *activeAlert {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, a := range p.alerts {
		if a.alert.ID == id {
			p.alerts = append(p.alerts[:i], p.alerts[i+1:]...)
			return a
		}
	}
	return nil
}

// Alerts returns the visible alerts, newest first.
func (p *Presenter) Alerts() []Alert {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Alert, 0, len(p.alerts))
	for _, a := range p.alerts {
		out = append(out, a.alert)
	}
	return out
}

// SetSoundEnabled persists the sound preference.
func (p *Presenter) SetSoundEnabled(ctx context.Context, enabled bool) error {
	if p.prefs == nil {
		return fmt.Errorf("no preference store configured")
	}
	return p.prefs.SetSoundEnabled(ctx, enabled)
}

// Close hides every alert and stops their timers.
func (p *Presenter) Close() {
	p.mu.Lock()
	alerts := p.alerts
	p.alerts = nil
	p.mu.Unlock()

	for _, a := range alerts {
		a.timer.Stop()
		p.sink.Hide(a.alert.ID)
	}
}

// MemoryPreferences keeps the sound preference in memory. Sound starts
// enabled.
type MemoryPreferences struct {
	mu       sync.Mutex
	disabled bool
}

func (m *MemoryPreferences) SoundEnabled(context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.disabled
}

func (m *MemoryPreferences) SetSoundEnabled(_ context.Context, enabled bool) error {
	m.mu.Lock()
	m.disabled = !enabled
	m.mu.Unlock()
	return nil
}
