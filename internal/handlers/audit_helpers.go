package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"workforce-service/internal/middleware"
	"workforce-service/internal/telemetry"
)

func requestIDFromContext(c *gin.Context) string {
	if id := c.GetString(middleware.RequestIDKey); id != "" {
		return id
	}

	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(middleware.RequestIDKey, requestID)
	return requestID
}

func userIDFromContext(c *gin.Context) *int64 {
	if userID := c.GetInt(middleware.UserIDKey); userID != 0 {
		value := int64(userID)
		return &value
	}
	return nil
}

func auditEntry(c *gin.Context, action telemetry.Action, fields map[string]any) telemetry.Entry {
	return telemetry.Entry{
		Action:    action,
		RequestID: requestIDFromContext(c),
		ActorID:   userIDFromContext(c),
		Fields:    fields,
	}
}
