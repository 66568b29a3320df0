package ws

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"

	"workforce-service/internal/auth"
	"workforce-service/internal/observability"
)

// NotificationWebSocketHandler serves the per-user live notification channel.
type NotificationWebSocketHandler struct {
	hub       *Hub
	validator auth.TokenValidator
}

// NewNotificationWebSocketHandler constructs a NotificationWebSocketHandler.
func NewNotificationWebSocketHandler(hub *Hub, validator auth.TokenValidator) *NotificationWebSocketHandler {
	return &NotificationWebSocketHandler{hub: hub, validator: validator}
}

// Handle upgrades and registers a notification connection for the caller.
func (h *NotificationWebSocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("workforce-service/ws").Start(c.Request.Context(), "ws.notifications.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	id, err := validateToken(h.validator, tokenFromRequest(c.Request))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	info := connInfoFromRequest(c.Request, id.UserID, span.SpanContext().TraceID().String())
	h.hub.AddUserClient(id.UserID, conn, info)

	observability.IncWSActive("notifications")
	publishLifecycle(ctx, "notifications", id.UserID, "ws_connect", info, "")

	connCtx := context.WithoutCancel(ctx)
	go func() {
		reason := readUntilClosed(connCtx, conn, "notifications", id.UserID, info)
		h.hub.RemoveUserClient(id.UserID, conn)
		observability.DecWSActive("notifications")
		publishLifecycle(connCtx, "notifications", id.UserID, "ws_disconnect", info, reason)
		conn.Close()
	}()
}
