package models

import "time"

// MessageStatus tracks delivery of a message.
type MessageStatus string

const (
	MessageStatusPending   MessageStatus = "pending"
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusRead      MessageStatus = "read"
	MessageStatusFailed    MessageStatus = "failed"
)

// Message represents a chat message.
type Message struct {
	ID        int           `db:"id" json:"id"`
	ChatID    int           `db:"chat_id" json:"chat_id"`
	SenderID  int           `db:"sender_id" json:"sender_id"`
	Content   string        `db:"content" json:"content"`
	Type      string        `db:"type" json:"type"`
	Status    MessageStatus `db:"status" json:"status"`
	ReadBy    []int         `db:"-" json:"read_by"`
	CreatedAt time.Time     `db:"created_at" json:"timestamp"`
}

// ChatEvent is broadcasted through websockets.
type ChatEvent struct {
	Type      string   `json:"type"`
	Message   *Message `json:"message,omitempty"`
	MessageID int      `json:"message_id,omitempty"`
	ChatID    int      `json:"chat_id,omitempty"`
}
