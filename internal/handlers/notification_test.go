package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"workforce-service/internal/mocks"
	"workforce-service/internal/models"
	"workforce-service/internal/repositories"
)

func setupNotificationRouter(repo *mocks.NotificationRepositoryMock, userRepo *mocks.UserRepositoryMock, notifier *mocks.NotifierMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewNotificationHandler(repo, userRepo, notifier)
	r := gin.New()
	r.Use(withCaller(7, models.RoleEmployee))
	r.GET("/notifications/pending", handler.Pending)
	r.POST("/notifications/mark-read", handler.MarkRead)
	r.POST("/notifications/send", handler.Send)
	return r
}

func TestPendingNotifications(t *testing.T) {
	repo := new(mocks.NotificationRepositoryMock)
	router := setupNotificationRouter(repo, nil, nil)

	repo.On("ListPending", mock.Anything, 7, defaultPendingLimit).Return([]models.Notification{
		{ID: "n2", Type: models.NotificationDirectMessage},
		{ID: "n1", Type: models.NotificationGeneric},
	}, nil).Once()

	rec := do(router, http.MethodGet, "/notifications/pending", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Notifications []models.Notification `json:"notifications"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Notifications, 2)
	assert.Equal(t, "n2", resp.Notifications[0].ID)
}

func TestPendingLimitIsCapped(t *testing.T) {
	repo := new(mocks.NotificationRepositoryMock)
	router := setupNotificationRouter(repo, nil, nil)

	repo.On("ListPending", mock.Anything, 7, maxPendingLimit).Return(nil, nil).Once()

	rec := do(router, http.MethodGet, "/notifications/pending?limit=500", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"notifications":[]}`, rec.Body.String())

	rec = do(router, http.MethodGet, "/notifications/pending?limit=abc", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarkReadNotification(t *testing.T) {
	repo := new(mocks.NotificationRepositoryMock)
	router := setupNotificationRouter(repo, nil, nil)

	repo.On("MarkRead", mock.Anything, "n1", 7).Return(nil).Twice()

	for i := 0; i < 2; i++ {
		rec := do(router, http.MethodPost, "/notifications/mark-read", `{"notification_id":"n1"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	}
	repo.AssertExpectations(t)
}

func TestMarkReadUnknownNotification(t *testing.T) {
	repo := new(mocks.NotificationRepositoryMock)
	router := setupNotificationRouter(repo, nil, nil)

	repo.On("MarkRead", mock.Anything, "nope", 7).Return(repositories.ErrNotificationNotFound).Once()

	rec := do(router, http.MethodPost, "/notifications/mark-read", `{"notification_id":"nope"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSendNotification(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	notifier := new(mocks.NotifierMock)
	router := setupNotificationRouter(nil, userRepo, notifier)

	userRepo.On("GetUser", mock.Anything, 9).Return(models.User{ID: 9}, nil).Once()
	notifier.On("Send", mock.Anything, models.SendNotificationRequest{
		RecipientID: 9,
		Type:        models.NotificationJobAssignment,
		Message:     "You have a new job",
		JobCardID:   42,
	}).Return(models.Notification{ID: "n9", RecipientID: 9}, nil).Once()

	rec := do(router, http.MethodPost, "/notifications/send", `{"recipient_id":9,"type":"job_assignment","message":"You have a new job","job_card_id":42}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	notifier.AssertExpectations(t)
}

func TestSendNotificationUnknownRecipient(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	notifier := new(mocks.NotifierMock)
	router := setupNotificationRouter(nil, userRepo, notifier)

	userRepo.On("GetUser", mock.Anything, 9).Return(models.User{}, repositories.ErrUserNotFound).Once()

	rec := do(router, http.MethodPost, "/notifications/send", `{"recipient_id":9,"type":"generic","message":"x"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}
