package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"workforce-service/internal/middleware"
	"workforce-service/internal/models"
	"workforce-service/internal/observability"
	"workforce-service/internal/repositories"
	"workforce-service/internal/telemetry"
)

// Broadcaster pushes chat events to live chat channels.
type Broadcaster interface {
	BroadcastChatMessage(chatID int, msg models.Message)
	BroadcastChatDeleted(chatID int)
}

// Notifier persists and fans out notifications.
type Notifier interface {
	Send(ctx context.Context, req models.SendNotificationRequest) (models.Notification, error)
	NotifyChatMembers(ctx context.Context, chat models.Chat, msg models.Message, senderName string)
}

// ChatHandler manages group and direct-message endpoints.
type ChatHandler struct {
	chatRepo    repositories.ChatRepository
	messageRepo repositories.MessageRepository
	userRepo    repositories.UserRepository
	notifier    Notifier
	hub         Broadcaster
	audit       *telemetry.AuditEmitter
	logger      *slog.Logger
}

// NewChatHandler builds a ChatHandler. A nil logger uses slog.Default.
func NewChatHandler(chatRepo repositories.ChatRepository, messageRepo repositories.MessageRepository, userRepo repositories.UserRepository, notifier Notifier, hub Broadcaster, audit *telemetry.AuditEmitter, logger *slog.Logger) *ChatHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatHandler{
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		hub:         hub,
		audit:       audit,
		logger:      logger,
	}
}

type chatResponse struct {
	models.Chat
	MemberInfo []models.User `json:"member_info"`
}

// ListChats returns the chats the authenticated user belongs to.
func (h *ChatHandler) ListChats(c *gin.Context) {
	userID := c.GetInt(middleware.UserIDKey)

	chats, err := h.chatRepo.ListChatsForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chats"})
		return
	}

	memberIDs := make([]int, 0)
	seen := map[int]struct{}{}
	for _, chat := range chats {
		for _, id := range chat.Members {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				memberIDs = append(memberIDs, id)
			}
		}
	}

	users, err := h.userRepo.BulkUsers(c.Request.Context(), memberIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user info"})
		return
	}
	byID := make(map[int]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	resp := make([]chatResponse, 0, len(chats))
	for _, chat := range chats {
		info := make([]models.User, 0, len(chat.Members))
		for _, id := range chat.Members {
			if u, ok := byID[id]; ok {
				info = append(info, u)
			}
		}
		resp = append(resp, chatResponse{Chat: chat, MemberInfo: info})
	}

	c.JSON(http.StatusOK, gin.H{"chats": resp})
}

// CreateGroup creates a group chat. The creator is always a member and at
// least one other member is required.
func (h *ChatHandler) CreateGroup(c *gin.Context) {
	var req models.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt(middleware.UserIDKey)
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "group name is required"})
		return
	}
	others := 0
	for _, id := range req.MemberIDs {
		if id != userID && id > 0 {
			others++
		}
	}
	if others == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "select at least one member"})
		return
	}

	chat, err := h.chatRepo.CreateGroup(c.Request.Context(), userID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create group"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"chat": chat})
}

// CreateDirect returns the dm between the caller and another user, creating it
// when none exists.
func (h *ChatHandler) CreateDirect(c *gin.Context) {
	var req struct {
		UserID int `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt(middleware.UserIDKey)
	if userID == req.UserID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot chat with yourself"})
		return
	}

	if _, err := h.userRepo.GetUser(c.Request.Context(), req.UserID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrUserNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "user not found"})
		return
	}

	chat, created, err := h.chatRepo.GetOrCreateDirect(c.Request.Context(), userID, req.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create chat"})
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"chat": chat, "created": created})
}

// DeleteChat removes a chat. Only its creator or an elevated role may do so.
func (h *ChatHandler) DeleteChat(c *gin.Context) {
	chat, ok := h.loadChat(c)
	if !ok {
		return
	}
	if !canManage(c, chat) {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the creator or a manager can delete this chat"})
		return
	}

	if err := h.chatRepo.DeleteChat(c.Request.Context(), chat.ID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrChatNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "could not delete chat"})
		return
	}

	h.hub.BroadcastChatDeleted(chat.ID)
	h.audit.Record(c.Request.Context(), auditEntry(c, telemetry.ActionChatDeleted, map[string]any{
		"chat_id":   chat.ID,
		"chat_type": chat.Type,
	}))
	c.Status(http.StatusNoContent)
}

// AddMember adds a user to a group chat.
func (h *ChatHandler) AddMember(c *gin.Context) {
	chat, ok := h.loadChat(c)
	if !ok {
		return
	}

	var req struct {
		UserID int `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if chat.Type == models.ChatTypeDM {
		c.JSON(http.StatusBadRequest, gin.H{"error": "direct message members cannot change"})
		return
	}
	if !canManage(c, chat) {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the creator or a manager can add members"})
		return
	}
	if _, err := h.userRepo.GetUser(c.Request.Context(), req.UserID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrUserNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "user not found"})
		return
	}

	if err := h.chatRepo.AddMember(c.Request.Context(), chat.ID, req.UserID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not add member"})
		return
	}
	c.Status(http.StatusNoContent)
}

// RemoveMember removes a user from a group chat. The creator cannot be removed.
func (h *ChatHandler) RemoveMember(c *gin.Context) {
	chat, ok := h.loadChat(c)
	if !ok {
		return
	}
	memberID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	if chat.Type == models.ChatTypeDM {
		c.JSON(http.StatusBadRequest, gin.H{"error": "direct message members cannot change"})
		return
	}
	if memberID == chat.CreatedBy {
		c.JSON(http.StatusBadRequest, gin.H{"error": "the creator cannot be removed"})
		return
	}
	if !canManage(c, chat) {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the creator or a manager can remove members"})
		return
	}

	if err := h.chatRepo.RemoveMember(c.Request.Context(), chat.ID, memberID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrChatNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "could not remove member"})
		return
	}
	h.audit.Record(c.Request.Context(), auditEntry(c, telemetry.ActionMemberRemoved, map[string]any{
		"chat_id": chat.ID,
		"user_id": memberID,
	}))
	c.Status(http.StatusNoContent)
}

// GetMessages returns the chat's messages in ascending order.
func (h *ChatHandler) GetMessages(c *gin.Context) {
	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}

	userID := c.GetInt(middleware.UserIDKey)
	member, err := h.chatRepo.IsMember(c.Request.Context(), chatID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify membership"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a chat member"})
		return
	}

	msgs, err := h.messageRepo.ListMessages(c.Request.Context(), chatID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// PostMessage stores a message, broadcasts it and notifies the other members.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	chat, ok := h.loadChat(c)
	if !ok {
		return
	}

	userID := c.GetInt(middleware.UserIDKey)
	if !chat.HasMember(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a chat member"})
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message cannot be empty"})
		return
	}

	msg, err := h.messageRepo.CreateMessage(c.Request.Context(), chat.ID, userID, req.Content)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}
	observability.IncMessageSent(string(chat.Type))

	h.hub.BroadcastChatMessage(chat.ID, msg)

	senderName := ""
	if sender, err := h.userRepo.GetUser(c.Request.Context(), userID); err == nil {
		senderName = sender.Name
	} else {
		h.logger.Warn("sender lookup failed", "user_id", userID, "error", err)
	}
	h.notifier.NotifyChatMembers(c.Request.Context(), chat, msg, senderName)

	c.JSON(http.StatusCreated, msg)
}

// MarkRead records read receipts for the caller and clears their unread count.
func (h *ChatHandler) MarkRead(c *gin.Context) {
	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}

	userID := c.GetInt(middleware.UserIDKey)
	member, err := h.chatRepo.IsMember(c.Request.Context(), chatID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify membership"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a chat member"})
		return
	}

	marked, err := h.messageRepo.MarkChatRead(c.Request.Context(), chatID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark read"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "marked": marked})
}

func (h *ChatHandler) loadChat(c *gin.Context) (models.Chat, bool) {
	chatID, ok := chatIDParam(c)
	if !ok {
		return models.Chat{}, false
	}
	chat, err := h.chatRepo.GetChat(c.Request.Context(), chatID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrChatNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "chat not found"})
		return models.Chat{}, false
	}
	return chat, true
}

func chatIDParam(c *gin.Context) (int, bool) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return 0, false
	}
	return chatID, true
}

// canManage reports whether the caller created the chat or holds an elevated role.
func canManage(c *gin.Context, chat models.Chat) bool {
	return chat.CreatedBy == c.GetInt(middleware.UserIDKey) || middleware.RoleFromContext(c).Elevated()
}
