package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"workforce-service/internal/middleware"
	"workforce-service/internal/models"
	"workforce-service/internal/repositories"
	"workforce-service/internal/telemetry"
)

// JobCardHandler serves the job-card detail, assignment and status endpoints.
type JobCardHandler struct {
	jobRepo  repositories.JobCardRepository
	userRepo repositories.UserRepository
	notifier Notifier
	audit    *telemetry.AuditEmitter
	logger   *slog.Logger
}

func NewJobCardHandler(jobRepo repositories.JobCardRepository, userRepo repositories.UserRepository, notifier Notifier, audit *telemetry.AuditEmitter, logger *slog.Logger) *JobCardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobCardHandler{jobRepo: jobRepo, userRepo: userRepo, notifier: notifier, audit: audit, logger: logger}
}

// JobCardDetails returns the job-card summary.
func (h *JobCardHandler) JobCardDetails(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job card id"})
		return
	}

	card, err := h.jobRepo.GetJobCard(c.Request.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrJobCardNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "job card not found"})
		return
	}
	c.JSON(http.StatusOK, card)
}

// EmployeeDetails returns department, active job count and availability.
func (h *JobCardHandler) EmployeeDetails(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid employee id"})
		return
	}

	details, err := h.userRepo.EmployeeDetails(c.Request.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrUserNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "employee not found"})
		return
	}
	c.JSON(http.StatusOK, details)
}

// Assign binds a job card to an employee. Notifying the employee is a separate
// call made by the client.
func (h *JobCardHandler) Assign(c *gin.Context) {
	var req models.AssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.AssignResponse{Error: err.Error()})
		return
	}

	employee, err := h.userRepo.EmployeeDetails(c.Request.Context(), req.EmployeeID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrUserNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, models.AssignResponse{Error: "employee not found"})
		return
	}

	card, err := h.jobRepo.Assign(c.Request.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		msg := "could not assign job card"
		if errors.Is(err, repositories.ErrJobCardNotFound) {
			status = http.StatusNotFound
			msg = "job card not found"
		}
		c.JSON(status, models.AssignResponse{Error: msg})
		return
	}

	h.audit.Record(c.Request.Context(), auditEntry(c, telemetry.ActionJobAssigned, map[string]any{
		"job_card_id": card.ID,
		"employee_id": req.EmployeeID,
		"priority":    req.Priority,
	}))
	c.JSON(http.StatusOK, models.AssignResponse{Success: true, JobCard: &card, AssignedToName: employee.Name})
}

// UpdateStatus changes a job card's status and tells the assignee when someone
// else made the change.
func (h *JobCardHandler) UpdateStatus(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid job card id"})
		return
	}

	var req models.StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if !models.ValidJobStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid status"})
		return
	}

	if err := h.jobRepo.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrJobCardNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"success": false, "error": "could not update status"})
		return
	}

	h.audit.Record(c.Request.Context(), auditEntry(c, telemetry.ActionJobStatusChanged, map[string]any{
		"job_card_id": id,
		"status":      req.Status,
	}))

	userID := c.GetInt(middleware.UserIDKey)
	card, err := h.jobRepo.GetJobCard(c.Request.Context(), id)
	if err != nil {
		h.logger.Warn("job card reload failed", "job_card_id", id, "error", err)
	} else if card.AssignedTo != nil && *card.AssignedTo != userID {
		_, err := h.notifier.Send(c.Request.Context(), models.SendNotificationRequest{
			RecipientID: *card.AssignedTo,
			Type:        models.NotificationJobStatusUpdate,
			Message:     fmt.Sprintf("Job card #%d is now %s", id, req.Status),
			JobCardID:   id,
		})
		if err != nil {
			h.logger.Warn("status notification failed", "job_card_id", id, "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
