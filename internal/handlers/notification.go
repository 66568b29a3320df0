package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"workforce-service/internal/middleware"
	"workforce-service/internal/models"
	"workforce-service/internal/repositories"
)

const (
	defaultPendingLimit = 50
	maxPendingLimit     = 100
)

// NotificationHandler serves the polling, acknowledgement and fan-out endpoints.
type NotificationHandler struct {
	repo     repositories.NotificationRepository
	userRepo repositories.UserRepository
	notifier Notifier
}

func NewNotificationHandler(repo repositories.NotificationRepository, userRepo repositories.UserRepository, notifier Notifier) *NotificationHandler {
	return &NotificationHandler{repo: repo, userRepo: userRepo, notifier: notifier}
}

// Pending returns the caller's unread notifications, newest first.
func (h *NotificationHandler) Pending(c *gin.Context) {
	limit := defaultPendingLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = min(parsed, maxPendingLimit)
	}

	userID := c.GetInt(middleware.UserIDKey)
	list, err := h.repo.ListPending(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load notifications"})
		return
	}
	if list == nil {
		list = []models.Notification{}
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

// MarkRead acknowledges one notification. Repeating it is harmless.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	var req models.MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	userID := c.GetInt(middleware.UserIDKey)
	if err := h.repo.MarkRead(c.Request.Context(), req.NotificationID, userID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrNotificationNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"success": false, "error": "could not mark notification read"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Send creates a notification for another user and fans it out.
func (h *NotificationHandler) Send(c *gin.Context) {
	var req models.SendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	if _, err := h.userRepo.GetUser(c.Request.Context(), req.RecipientID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrUserNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"success": false, "error": "recipient not found"})
		return
	}

	n, err := h.notifier.Send(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "could not send notification"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "notification": n})
}
