// Package assignment drives the job-card assignment workflow: load job and
// employee context, edit the request, submit it, then optionally ask the
// server to notify the assignee.
package assignment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"workforce-service/internal/models"
)

var (
	ErrNotAvailable    = errors.New("not available yet")
	ErrConfirmDisabled = errors.New("confirm is disabled")
	ErrNotOpen         = errors.New("no assignment in progress")
	ErrInvalidStatus   = errors.New("invalid job status")
)

type State string

const (
	StateIdle           State = "idle"
	StateDetailsLoading State = "details_loading"
	StateReadyToConfirm State = "ready_to_confirm"
	StateSubmitting     State = "submitting"
	StateSuccess        State = "success"
	StateFailed         State = "failed"
)

const (
	ConfirmLabel    = "Assign Job"
	SubmittingLabel = "Assigning..."
)

// Backend is the part of the API client the flow uses.
type Backend interface {
	JobCardDetails(ctx context.Context, jobCardID int) (models.JobCard, error)
	EmployeeDetails(ctx context.Context, employeeID int) (models.EmployeeDetails, error)
	AssignJobCard(ctx context.Context, req models.AssignmentRequest) (models.AssignResponse, error)
	UpdateJobStatus(ctx context.Context, jobCardID int, status models.JobStatus) error
	SendNotification(ctx context.Context, req models.SendNotificationRequest) error
}

// Alerter raises local alerts. The notify presenter satisfies it.
type Alerter interface {
	Notify(ctx context.Context, level models.Level, title, message string) string
}

// Refresher reloads the job-card list after a change.
type Refresher func(ctx context.Context)

// Panel is one asynchronously loaded detail section. Err holds the text shown
// in place of the data when the fetch failed.
type Panel[T any] struct {
	Loaded bool
	Data   T
	Err    string
}

// View is a copy of the flow's state for rendering.
type View struct {
	State          State
	Request        models.AssignmentRequest
	Job            Panel[models.JobCard]
	Employee       Panel[models.EmployeeDetails]
	ConfirmEnabled bool
	ConfirmLabel   string
	AssignedTo     string
}

// Flow is one assignment dialog. Construct it with New and reuse it for
// successive assignments.
type Flow struct {
	backend  Backend
	alerts   Alerter
	refresh  Refresher
	validate *validator.Validate
	logger   *slog.Logger
	observe  func(State)

	mu             sync.Mutex
	state          State
	gen            int
	req            models.AssignmentRequest
	job            Panel[models.JobCard]
	employee       Panel[models.EmployeeDetails]
	confirmEnabled bool
	confirmLabel   string
	assignedTo     string
	pending        int
	wg             sync.WaitGroup
}

type Option func(*Flow)

func WithRefresher(r Refresher) Option {
	return func(f *Flow) { f.refresh = r }
}

func WithLogger(logger *slog.Logger) Option {
	return func(f *Flow) { f.logger = logger }
}

// WithStateObserver registers fn to run on every state change. It runs with
// the flow locked and must not call back into the flow.
func WithStateObserver(fn func(State)) Option {
	return func(f *Flow) { f.observe = fn }
}

func New(backend Backend, alerts Alerter, opts ...Option) *Flow {
	f := &Flow{
		backend:      backend,
		alerts:       alerts,
		validate:     validator.New(),
		logger:       slog.Default(),
		state:        StateIdle,
		confirmLabel: ConfirmLabel,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Flow) setState(s State) {
	f.state = s
	if f.observe != nil {
		f.observe(s)
	}
}

// Open starts an assignment of jobCardID to employeeID. Job and employee
// details load concurrently; a failed fetch only degrades its own panel and
// confirmation is allowed before either resolves.
func (f *Flow) Open(ctx context.Context, jobCardID, employeeID int) error {
	f.mu.Lock()
	if f.state == StateSubmitting {
		f.mu.Unlock()
		return fmt.Errorf("open: %w", ErrConfirmDisabled)
	}
	f.gen++
	gen := f.gen
	f.req = models.AssignmentRequest{
		JobCardID:      jobCardID,
		EmployeeID:     employeeID,
		Priority:       models.PriorityMedium,
		NotifyEmployee: true,
	}
	f.job = Panel[models.JobCard]{}
	f.employee = Panel[models.EmployeeDetails]{}
	f.confirmEnabled = true
	f.confirmLabel = ConfirmLabel
	f.assignedTo = ""
	f.pending = 2
	f.setState(StateDetailsLoading)
	f.wg.Add(2)
	f.mu.Unlock()

	go func() {
		defer f.wg.Done()
		card, err := f.backend.JobCardDetails(ctx, jobCardID)
		f.mu.Lock()
		defer f.mu.Unlock()
		if gen != f.gen {
			return
		}
		f.job = resolve(card, err)
		if err != nil {
			f.logger.Warn("job card details unavailable", "job_card_id", jobCardID, "error", err)
		}
		f.detailDone()
	}()

	go func() {
		defer f.wg.Done()
		details, err := f.backend.EmployeeDetails(ctx, employeeID)
		f.mu.Lock()
		defer f.mu.Unlock()
		if gen != f.gen {
			return
		}
		f.employee = resolve(details, err)
		if err != nil {
			f.logger.Warn("employee details unavailable", "employee_id", employeeID, "error", err)
		}
		f.detailDone()
	}()
	return nil
}

func resolve[T any](data T, err error) Panel[T] {
	if err != nil {
		return Panel[T]{Loaded: true, Err: "Could not load details: " + err.Error()}
	}
	return Panel[T]{Loaded: true, Data: data}
}

func (f *Flow) detailDone() {
	f.pending--
	if f.pending == 0 && f.state == StateDetailsLoading {
		f.setState(StateReadyToConfirm)
	}
}

// Wait blocks until the detail fetches started by Open have resolved.
func (f *Flow) Wait() {
	f.wg.Wait()
}

func (f *Flow) editable() error {
	switch f.state {
	case StateDetailsLoading, StateReadyToConfirm:
		return nil
	case StateSubmitting:
		return ErrConfirmDisabled
	}
	return ErrNotOpen
}

func (f *Flow) edit(fn func(*models.AssignmentRequest)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.editable(); err != nil {
		return err
	}
	fn(&f.req)
	return nil
}

func (f *Flow) SetPriority(p models.Priority) error {
	return f.edit(func(r *models.AssignmentRequest) { r.Priority = p })
}

// SetDueDate sets the due date. A nil date clears it.
func (f *Flow) SetDueDate(due *time.Time) error {
	return f.edit(func(r *models.AssignmentRequest) { r.DueDate = due })
}

func (f *Flow) SetNotes(notes string) error {
	return f.edit(func(r *models.AssignmentRequest) { r.Notes = notes })
}

func (f *Flow) SetNotifyEmployee(notify bool) error {
	return f.edit(func(r *models.AssignmentRequest) { r.NotifyEmployee = notify })
}

// View returns a snapshot of the flow.
func (f *Flow) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return View{
		State:          f.state,
		Request:        f.req,
		Job:            f.job,
		Employee:       f.employee,
		ConfirmEnabled: f.confirmEnabled,
		ConfirmLabel:   f.confirmLabel,
		AssignedTo:     f.assignedTo,
	}
}

// Confirm submits the assignment. While a submission is in flight the confirm
// control is disabled and further calls return ErrConfirmDisabled.
//
// On success the job-card list is refreshed and, when the notify flag is set,
// the server is asked to notify the assignee; that second request only logs
// on failure. On failure the flow returns to ReadyToConfirm with the edited
// request intact.
func (f *Flow) Confirm(ctx context.Context) error {
	f.mu.Lock()
	if err := f.editable(); err != nil {
		f.mu.Unlock()
		return fmt.Errorf("confirm: %w", err)
	}
	if !f.confirmEnabled {
		f.mu.Unlock()
		return fmt.Errorf("confirm: %w", ErrConfirmDisabled)
	}
	req := f.req
	if err := f.validate.Struct(req); err != nil {
		f.mu.Unlock()
		f.alerts.Notify(ctx, models.LevelError, "Invalid assignment", err.Error())
		return fmt.Errorf("validate assignment: %w", err)
	}
	f.confirmEnabled = false
	f.confirmLabel = SubmittingLabel
	f.setState(StateSubmitting)
	f.mu.Unlock()

	resp, err := f.backend.AssignJobCard(ctx, req)
	if err != nil {
		f.mu.Lock()
		f.setState(StateFailed)
		f.confirmEnabled = true
		f.confirmLabel = ConfirmLabel
		f.setState(StateReadyToConfirm)
		f.mu.Unlock()

		f.alerts.Notify(ctx, models.LevelError, "Assignment failed", err.Error())
		return fmt.Errorf("assign job card %d: %w", req.JobCardID, err)
	}

	name := resp.AssignedToName
	if name == "" {
		name = fmt.Sprintf("employee #%d", req.EmployeeID)
	}
	f.mu.Lock()
	f.assignedTo = name
	f.confirmLabel = ConfirmLabel
	f.setState(StateSuccess)
	f.mu.Unlock()

	f.alerts.Notify(ctx, models.LevelSuccess, "Job assigned",
		fmt.Sprintf("Job card #%d assigned to %s", req.JobCardID, name))
	if f.refresh != nil {
		f.refresh(ctx)
	}

	if req.NotifyEmployee {
		err := f.backend.SendNotification(ctx, models.SendNotificationRequest{
			RecipientID: req.EmployeeID,
			Type:        models.NotificationJobAssignment,
			Message:     assignmentMessage(req, resp),
			JobCardID:   req.JobCardID,
		})
		if err != nil {
			f.logger.Warn("assignee notification failed",
				"job_card_id", req.JobCardID, "employee_id", req.EmployeeID, "error", err)
		}
	}
	return nil
}

func assignmentMessage(req models.AssignmentRequest, resp models.AssignResponse) string {
	msg := fmt.Sprintf("You have been assigned job card #%d", req.JobCardID)
	if resp.JobCard != nil && resp.JobCard.Type != "" {
		msg += " (" + resp.JobCard.Type + ")"
	}
	msg += ", priority " + string(req.Priority)
	if req.DueDate != nil {
		msg += ", due " + req.DueDate.Format("2006-01-02")
	}
	return msg
}

// Close ends the current assignment and returns the flow to Idle. Pending
// detail fetches are discarded when they resolve.
func (f *Flow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateSubmitting {
		return
	}
	f.gen++
	f.confirmEnabled = false
	f.setState(StateIdle)
}

// ChangeStatus moves a job card to status. Failures raise an error alert and
// are returned.
func (f *Flow) ChangeStatus(ctx context.Context, jobCardID int, status models.JobStatus) error {
	if !models.ValidJobStatus(status) {
		f.alerts.Notify(ctx, models.LevelError, "Status update failed", "unknown status "+string(status))
		return fmt.Errorf("change status to %q: %w", status, ErrInvalidStatus)
	}
	if err := f.backend.UpdateJobStatus(ctx, jobCardID, status); err != nil {
		f.alerts.Notify(ctx, models.LevelError, "Status update failed", err.Error())
		return fmt.Errorf("update job card %d status: %w", jobCardID, err)
	}
	f.alerts.Notify(ctx, models.LevelSuccess, "Status updated",
		fmt.Sprintf("Job card #%d is now %s", jobCardID, status))
	if f.refresh != nil {
		f.refresh(ctx)
	}
	return nil
}

// BulkAssign is not implemented on the server.
func (f *Flow) BulkAssign(ctx context.Context, jobCardIDs []int, employeeID int) error {
	return fmt.Errorf("bulk assign: %w", ErrNotAvailable)
}

// Reassign is not implemented on the server.
func (f *Flow) Reassign(ctx context.Context, jobCardID, employeeID int) error {
	return fmt.Errorf("reassign: %w", ErrNotAvailable)
}
