package assignment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workforce-service/internal/api"
	"workforce-service/internal/models"
)

type alertRecord struct {
	Level models.Level
	Title string
}

type alertRecorder struct {
	mu     sync.Mutex
	alerts []alertRecord
}

func (a *alertRecorder) Notify(_ context.Context, level models.Level, title, _ string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alerts = append(a.alerts, alertRecord{Level: level, Title: title})
	return "local"
}

func (a *alertRecorder) all() []alertRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]alertRecord(nil), a.alerts...)
}

type fakeServer struct {
	mu         sync.Mutex
	calls      []string
	assignBody models.AssignmentRequest
	sendBody   models.SendNotificationRequest
	assignFail bool
	detailFail bool
	sendFail   bool
}

func (s *fakeServer) record(r *http.Request) {
	s.mu.Lock()
	s.calls = append(s.calls, r.Method+" "+r.URL.Path)
	s.mu.Unlock()
}

func (s *fakeServer) posts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, c := range s.calls {
		if strings.HasPrefix(c, "POST ") {
			out = append(out, c)
		}
	}
	return out
}

func (s *fakeServer) start(t *testing.T) *api.Client {
	t.Helper()
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	mux.HandleFunc("/jobcard/42/details", func(w http.ResponseWriter, r *http.Request) {
		s.record(r)
		if s.detailFail {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "boom"})
			return
		}
		writeJSON(w, http.StatusOK, models.JobCard{ID: 42, Type: "repair", Customer: "Acme", Status: models.JobStatusPending})
	})
	mux.HandleFunc("/employee/7/details", func(w http.ResponseWriter, r *http.Request) {
		s.record(r)
		writeJSON(w, http.StatusOK, models.EmployeeDetails{ID: 7, Name: "Gus", Department: "Field", ActiveJobs: 2, Available: true})
	})
	mux.HandleFunc("/jobcard/assign", func(w http.ResponseWriter, r *http.Request) {
		s.record(r)
		s.mu.Lock()
		_ = json.NewDecoder(r.Body).Decode(&s.assignBody)
		fail := s.assignFail
		s.mu.Unlock()
		if fail {
			writeJSON(w, http.StatusOK, models.AssignResponse{Success: false, Error: "employee unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, models.AssignResponse{Success: true, JobCard: &models.JobCard{ID: 42, Type: "repair"}, AssignedToName: "Gus"})
	})
	mux.HandleFunc("/notifications/send", func(w http.ResponseWriter, r *http.Request) {
		s.record(r)
		s.mu.Lock()
		_ = json.NewDecoder(r.Body).Decode(&s.sendBody)
		s.mu.Unlock()
		if s.sendFail {
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "down"})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]bool{"success": true})
	})
	mux.HandleFunc("/jobcard/42/status", func(w http.ResponseWriter, r *http.Request) {
		s.record(r)
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return api.New(srv.URL, "jwt", api.WithTokenSource(api.StaticToken("csrf")))
}

func TestAssignThenNotifyInOrder(t *testing.T) {
	server := &fakeServer{}
	alerts := &alertRecorder{}
	refreshed := 0
	flow := New(server.start(t), alerts, WithRefresher(func(context.Context) { refreshed++ }))
	ctx := context.Background()

	require.NoError(t, flow.Open(ctx, 42, 7))
	flow.Wait()
	require.NoError(t, flow.SetPriority(models.PriorityHigh))

	require.NoError(t, flow.Confirm(ctx))

	assert.Equal(t, []string{"POST /jobcard/assign", "POST /notifications/send"}, server.posts())
	assert.Equal(t, models.PriorityHigh, server.assignBody.Priority)
	assert.True(t, server.assignBody.NotifyEmployee)
	assert.Equal(t, 7, server.sendBody.RecipientID)
	assert.Equal(t, 42, server.sendBody.JobCardID)
	assert.Equal(t, models.NotificationJobAssignment, server.sendBody.Type)

	view := flow.View()
	assert.Equal(t, StateSuccess, view.State)
	assert.Equal(t, "Gus", view.AssignedTo)
	assert.Equal(t, 1, refreshed)
	assert.Equal(t, []alertRecord{{models.LevelSuccess, "Job assigned"}}, alerts.all())
}

func TestNotifyFlagOffSkipsSend(t *testing.T) {
	server := &fakeServer{}
	flow := New(server.start(t), &alertRecorder{})
	ctx := context.Background()

	require.NoError(t, flow.Open(ctx, 42, 7))
	require.NoError(t, flow.SetNotifyEmployee(false))
	require.NoError(t, flow.Confirm(ctx))
	flow.Wait()

	assert.Equal(t, []string{"POST /jobcard/assign"}, server.posts())
}

func TestNotifyFailureDoesNotUndoAssignment(t *testing.T) {
	server := &fakeServer{sendFail: true}
	alerts := &alertRecorder{}
	flow := New(server.start(t), alerts)
	ctx := context.Background()

	require.NoError(t, flow.Open(ctx, 42, 7))
	require.NoError(t, flow.Confirm(ctx))
	flow.Wait()

	assert.Equal(t, StateSuccess, flow.View().State)
	assert.Equal(t, []alertRecord{{models.LevelSuccess, "Job assigned"}}, alerts.all())
}

func TestFailedSubmissionRestoresInput(t *testing.T) {
	server := &fakeServer{assignFail: true}
	alerts := &alertRecorder{}
	var states []State
	flow := New(server.start(t), alerts, WithStateObserver(func(s State) { states = append(states, s) }))
	ctx := context.Background()

	due := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, flow.Open(ctx, 42, 7))
	flow.Wait()
	require.NoError(t, flow.SetPriority(models.PriorityUrgent))
	require.NoError(t, flow.SetDueDate(&due))
	require.NoError(t, flow.SetNotes("bring ladder"))

	err := flow.Confirm(ctx)
	require.Error(t, err)
	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "employee unavailable", apiErr.Message)

	view := flow.View()
	assert.Equal(t, StateReadyToConfirm, view.State)
	assert.True(t, view.ConfirmEnabled)
	assert.Equal(t, ConfirmLabel, view.ConfirmLabel)
	assert.Equal(t, models.PriorityUrgent, view.Request.Priority)
	require.NotNil(t, view.Request.DueDate)
	assert.True(t, due.Equal(*view.Request.DueDate))
	assert.Equal(t, "bring ladder", view.Request.Notes)

	assert.Equal(t, []State{StateDetailsLoading, StateReadyToConfirm, StateSubmitting, StateFailed, StateReadyToConfirm}, states)
	assert.Equal(t, []alertRecord{{models.LevelError, "Assignment failed"}}, alerts.all())
	assert.Equal(t, []string{"POST /jobcard/assign"}, server.posts())
}

func TestDetailFailureDoesNotBlockConfirm(t *testing.T) {
	server := &fakeServer{detailFail: true}
	flow := New(server.start(t), &alertRecorder{})
	ctx := context.Background()

	require.NoError(t, flow.Open(ctx, 42, 7))
	flow.Wait()

	view := flow.View()
	assert.True(t, view.Job.Loaded)
	assert.NotEmpty(t, view.Job.Err)
	assert.True(t, view.Employee.Loaded)
	assert.Empty(t, view.Employee.Err)
	assert.Equal(t, "Field", view.Employee.Data.Department)

	require.NoError(t, flow.Confirm(ctx))
	assert.Equal(t, StateSuccess, flow.View().State)
}

type blockingBackend struct {
	release chan struct{}
	assigns int
	mu      sync.Mutex
}

func (b *blockingBackend) JobCardDetails(context.Context, int) (models.JobCard, error) {
	return models.JobCard{}, nil
}

func (b *blockingBackend) EmployeeDetails(context.Context, int) (models.EmployeeDetails, error) {
	return models.EmployeeDetails{}, nil
}

func (b *blockingBackend) AssignJobCard(context.Context, models.AssignmentRequest) (models.AssignResponse, error) {
	b.mu.Lock()
	b.assigns++
	b.mu.Unlock()
	<-b.release
	return models.AssignResponse{Success: true}, nil
}

func (b *blockingBackend) UpdateJobStatus(context.Context, int, models.JobStatus) error { return nil }

func (b *blockingBackend) SendNotification(context.Context, models.SendNotificationRequest) error {
	return nil
}

func TestConfirmGuardsDoubleSubmit(t *testing.T) {
	backend := &blockingBackend{release: make(chan struct{})}
	flow := New(backend, &alertRecorder{})
	ctx := context.Background()
	require.NoError(t, flow.Open(ctx, 42, 7))
	flow.Wait()

	done := make(chan error, 1)
	go func() { done <- flow.Confirm(ctx) }()
	require.Eventually(t, func() bool { return flow.View().State == StateSubmitting }, time.Second, time.Millisecond)

	view := flow.View()
	assert.False(t, view.ConfirmEnabled)
	assert.Equal(t, SubmittingLabel, view.ConfirmLabel)
	assert.ErrorIs(t, flow.Confirm(ctx), ErrConfirmDisabled)
	assert.ErrorIs(t, flow.SetNotes("late edit"), ErrConfirmDisabled)

	close(backend.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, backend.assigns)
}

func TestConfirmValidatesLocally(t *testing.T) {
	server := &fakeServer{}
	alerts := &alertRecorder{}
	flow := New(server.start(t), alerts)
	ctx := context.Background()

	require.NoError(t, flow.Open(ctx, 42, 7))
	flow.Wait()
	require.NoError(t, flow.SetPriority("whenever"))

	require.Error(t, flow.Confirm(ctx))
	assert.Empty(t, server.posts())
	assert.Equal(t, StateReadyToConfirm, flow.View().State)
	assert.Equal(t, []alertRecord{{models.LevelError, "Invalid assignment"}}, alerts.all())
}

func TestConfirmRequiresOpen(t *testing.T) {
	flow := New(&blockingBackend{}, &alertRecorder{})
	assert.ErrorIs(t, flow.Confirm(context.Background()), ErrNotOpen)
}

func TestOpenDefaults(t *testing.T) {
	flow := New(&blockingBackend{}, &alertRecorder{})
	require.NoError(t, flow.Open(context.Background(), 42, 7))
	flow.Wait()

	req := flow.View().Request
	assert.Equal(t, models.PriorityMedium, req.Priority)
	assert.True(t, req.NotifyEmployee)
	assert.Nil(t, req.DueDate)

	flow.Close()
	assert.Equal(t, StateIdle, flow.View().State)
}

func TestChangeStatus(t *testing.T) {
	server := &fakeServer{}
	alerts := &alertRecorder{}
	flow := New(server.start(t), alerts)
	ctx := context.Background()

	require.NoError(t, flow.ChangeStatus(ctx, 42, models.JobStatusInProgress))
	assert.ErrorIs(t, flow.ChangeStatus(ctx, 42, "teleported"), ErrInvalidStatus)
	assert.Equal(t, []alertRecord{
		{models.LevelSuccess, "Status updated"},
		{models.LevelError, "Status update failed"},
	}, alerts.all())
}

func TestPlaceholdersNeverSucceed(t *testing.T) {
	flow := New(&blockingBackend{}, &alertRecorder{})
	assert.ErrorIs(t, flow.BulkAssign(context.Background(), []int{1, 2}, 7), ErrNotAvailable)
	assert.ErrorIs(t, flow.Reassign(context.Background(), 1, 7), ErrNotAvailable)
}
