package models

import "time"

// ChatType distinguishes group conversations from direct messages.
type ChatType string

const (
	ChatTypeGroup ChatType = "group"
	ChatTypeDM    ChatType = "dm"
)

// Chat is a group or direct-message conversation.
type Chat struct {
	ID              int        `db:"id" json:"id"`
	Type            ChatType   `db:"type" json:"type"`
	Name            string     `db:"name" json:"name"`
	Description     string     `db:"description" json:"description"`
	CreatedBy       int        `db:"created_by" json:"created_by"`
	Avatar          string     `db:"avatar" json:"avatar"`
	IsPrivate       bool       `db:"is_private" json:"is_private"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	LastMessage     string     `db:"last_message" json:"last_message"`
	LastMessageTime *time.Time `db:"last_message_time" json:"last_message_time,omitempty"`
	Members         []int      `db:"-" json:"members"`
	UnreadCount     int        `db:"unread_count" json:"unread_count"`
}

// HasMember reports whether userID belongs to the chat.
func (c Chat) HasMember(userID int) bool {
	for _, m := range c.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// SameMembers reports whether the chat's member set equals ids, ignoring order.
func (c Chat) SameMembers(ids ...int) bool {
	want := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	have := make(map[int]struct{}, len(c.Members))
	for _, id := range c.Members {
		have[id] = struct{}{}
	}
	if len(want) != len(have) {
		return false
	}
	for id := range want {
		if _, ok := have[id]; !ok {
			return false
		}
	}
	return true
}

// ChatMember is a row of chat_members.
type ChatMember struct {
	ChatID   int       `db:"chat_id" json:"chat_id"`
	UserID   int       `db:"user_id" json:"user_id"`
	JoinedAt time.Time `db:"joined_at" json:"joined_at"`
}

// CreateGroupRequest is the body of POST /chats/groups.
type CreateGroupRequest struct {
	Name        string `json:"name" binding:"required" validate:"required"`
	Description string `json:"description"`
	Avatar      string `json:"avatar"`
	IsPrivate   bool   `json:"is_private"`
	MemberIDs   []int  `json:"member_ids" binding:"required,min=1" validate:"min=1"`
}
