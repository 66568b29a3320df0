package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"workforce-service/internal/models"
	"workforce-service/internal/observability"
)

// client serializes writes to one connection; gorilla connections allow a
// single concurrent writer.
type client struct {
	conn *websocket.Conn
	info ConnInfo
	mu   sync.Mutex
}

func (c *client) write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Hub maintains active websocket rooms: one per chat and one per user for
// notifications.
type Hub struct {
	chatRooms map[int]map[*websocket.Conn]*client
	userRooms map[int]map[*websocket.Conn]*client
	mu        sync.RWMutex
	logger    *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		chatRooms: make(map[int]map[*websocket.Conn]*client),
		userRooms: make(map[int]map[*websocket.Conn]*client),
		logger:    logger,
	}
}

func add(rooms map[int]map[*websocket.Conn]*client, id int, conn *websocket.Conn, info ConnInfo) {
	if _, ok := rooms[id]; !ok {
		rooms[id] = make(map[*websocket.Conn]*client)
	}
	rooms[id][conn] = &client{conn: conn, info: info}
}

func remove(rooms map[int]map[*websocket.Conn]*client, id int, conn *websocket.Conn) {
	if conns, ok := rooms[id]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(rooms, id)
		}
	}
}

// AddChatClient registers a websocket connection to a chat room.
func (h *Hub) AddChatClient(chatID int, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	add(h.chatRooms, chatID, conn, info)
}

// RemoveChatClient removes a chat websocket connection.
func (h *Hub) RemoveChatClient(chatID int, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	remove(h.chatRooms, chatID, conn)
}

// AddUserClient registers a notification connection for a user.
func (h *Hub) AddUserClient(userID int, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	add(h.userRooms, userID, conn, info)
}

// RemoveUserClient removes a notification connection.
func (h *Hub) RemoveUserClient(userID int, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	remove(h.userRooms, userID, conn)
}

// IsOnline reports whether the user holds a live notification channel.
func (h *Hub) IsOnline(userID int) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userRooms[userID]) > 0
}

func (h *Hub) snapshot(rooms map[int]map[*websocket.Conn]*client, id int) []*client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*client, 0, len(rooms[id]))
	for _, c := range rooms[id] {
		out = append(out, c)
	}
	return out
}

// BroadcastChatMessage sends message to all clients in a chat.
func (h *Hub) BroadcastChatMessage(chatID int, msg models.Message) {
	h.broadcastChat(chatID, models.ChatEvent{Type: "message", Message: &msg, ChatID: chatID})
}

// BroadcastChatDeleted tells chat clients the chat no longer exists.
func (h *Hub) BroadcastChatDeleted(chatID int) {
	h.broadcastChat(chatID, models.ChatEvent{Type: "chat_deleted", ChatID: chatID})
}

func (h *Hub) broadcastChat(chatID int, event models.ChatEvent) {
	payload, _ := json.Marshal(event)
	for _, c := range h.snapshot(h.chatRooms, chatID) {
		if err := c.write(payload); err != nil {
			h.logger.Warn("websocket write error", "kind", "chat", "chat_id", chatID, "error", err)
			c.conn.Close()
			h.RemoveChatClient(chatID, c.conn)
			h.publishWSError("chat", chatID, c.info, err)
		}
	}
}

// SendToUser pushes a notification to every live channel of the user and
// returns how many connections accepted it.
func (h *Hub) SendToUser(userID int, n models.Notification) int {
	payload, _ := json.Marshal(models.NotificationEvent{Type: "notification", Notification: &n})
	delivered := 0
	for _, c := range h.snapshot(h.userRooms, userID) {
		if err := c.write(payload); err != nil {
			h.logger.Warn("websocket write error", "kind", "notifications", "user_id", userID, "error", err)
			c.conn.Close()
			h.RemoveUserClient(userID, c.conn)
			h.publishWSError("notifications", userID, c.info, err)
			continue
		}
		delivered++
	}
	observability.IncNotificationPushed(delivered > 0)
	return delivered
}

func (h *Hub) publishWSError(kind string, resourceID int, info ConnInfo, err error) {
	publishLifecycle(context.Background(), kind, resourceID, "ws_error", info, err.Error())
}
