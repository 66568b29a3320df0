package ws

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"

	"workforce-service/internal/auth"
	"workforce-service/internal/observability"
	"workforce-service/internal/repositories"
)

// ChatWebSocketHandler handles chat websocket connections.
type ChatWebSocketHandler struct {
	hub       *Hub
	chatRepo  repositories.ChatRepository
	validator auth.TokenValidator
}

// NewChatWebSocketHandler constructs a ChatWebSocketHandler.
func NewChatWebSocketHandler(hub *Hub, chatRepo repositories.ChatRepository, validator auth.TokenValidator) *ChatWebSocketHandler {
	return &ChatWebSocketHandler{hub: hub, chatRepo: chatRepo, validator: validator}
}

// Handle upgrades the connection and registers client.
func (h *ChatWebSocketHandler) Handle(c *gin.Context) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	ctx, span := otel.Tracer("workforce-service/ws").Start(c.Request.Context(), "ws.chat.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	id, err := validateToken(h.validator, tokenFromRequest(c.Request))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	member, err := h.chatRepo.IsMember(ctx, chatID, id.UserID)
	if err != nil || !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized for chat"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	info := connInfoFromRequest(c.Request, id.UserID, span.SpanContext().TraceID().String())
	h.hub.AddChatClient(chatID, conn, info)

	observability.IncWSActive("chat")
	publishLifecycle(ctx, "chat", chatID, "ws_connect", info, "")

	connCtx := context.WithoutCancel(ctx)
	go func() {
		reason := readUntilClosed(connCtx, conn, "chat", chatID, info)
		h.hub.RemoveChatClient(chatID, conn)
		observability.DecWSActive("chat")
		publishLifecycle(connCtx, "chat", chatID, "ws_disconnect", info, reason)
		conn.Close()
	}()
}
