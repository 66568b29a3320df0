package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"workforce-service/internal/middleware"
	"workforce-service/internal/models"
	"workforce-service/internal/telemetry"
)

// DebugDeps are the collaborators the debug routes exercise.
type DebugDeps struct {
	Audit    *telemetry.AuditEmitter
	Notifier Notifier
}

// RegisterDebugRoutes wires endpoints for checking the audit and notification
// pipelines end to end. Nothing is registered unless enabled.
func RegisterDebugRoutes(router gin.IRouter, deps DebugDeps, enabled bool) {
	if !enabled {
		return
	}

	router.GET("/debug/audit-test", func(c *gin.Context) {
		if deps.Audit == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured"})
			return
		}
		deps.Audit.Record(c.Request.Context(), auditEntry(c, telemetry.ActionAuditTest, nil))
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Sends a generic notification to the caller so the live channel and the
	// polling fallback can be checked from a client.
	router.POST("/debug/notify-self", func(c *gin.Context) {
		if deps.Notifier == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "notifier not configured"})
			return
		}
		n, err := deps.Notifier.Send(c.Request.Context(), models.SendNotificationRequest{
			RecipientID: c.GetInt(middleware.UserIDKey),
			Type:        models.NotificationGeneric,
			Title:       "Test notification",
			Message:     "Delivery check from /debug/notify-self",
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send notification"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"notification": n})
	})
}
