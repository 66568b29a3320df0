package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// NotificationType enumerates the server-originated event kinds.
type NotificationType string

const (
	NotificationJobAssignment    NotificationType = "job_assignment"
	NotificationNewMessage       NotificationType = "new_message"
	NotificationDirectMessage    NotificationType = "direct_message"
	NotificationLeaveApplication NotificationType = "leave_application"
	NotificationTaskAssignment   NotificationType = "task_assignment"
	NotificationTaskUpdate       NotificationType = "task_update"
	NotificationCustomerAddition NotificationType = "customer_addition"
	NotificationJobStatusUpdate  NotificationType = "job_status_update"
	NotificationGeneric          NotificationType = "generic"
)

// Level is the severity used for styling.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

// Payload is type-specific structured data attached to a notification.
type Payload map[string]any

// Int returns the integer stored under key. JSON numbers decode as float64.
func (p Payload) Int(key string) (int, bool) {
	switch v := p[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// Value stores the payload as JSONB.
func (p Payload) Value() (driver.Value, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p)
}

// Scan reads a JSONB payload column.
func (p *Payload) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*p = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("payload: unsupported type %T", src)
	}
	return json.Unmarshal(raw, p)
}

// Notification is an event the user should be informed of. Immutable once delivered.
type Notification struct {
	ID          string           `db:"id" json:"id"`
	RecipientID int              `db:"recipient_id" json:"recipient_id,omitempty"`
	Type        NotificationType `db:"type" json:"type"`
	Title       string           `db:"title" json:"title"`
	Message     string           `db:"message" json:"message"`
	Level       Level            `db:"level" json:"level"`
	RedirectURL string           `db:"redirect_url" json:"redirect_url,omitempty"`
	Payload     Payload          `db:"payload" json:"payload,omitempty"`
	IsRead      bool             `db:"is_read" json:"is_read"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
}

// NotificationEvent is pushed over the live notification channel.
type NotificationEvent struct {
	Type         string        `json:"type"`
	Notification *Notification `json:"notification,omitempty"`
}

// SendNotificationRequest is the body of POST /notifications/send.
type SendNotificationRequest struct {
	RecipientID int              `json:"recipient_id" binding:"required"`
	Type        NotificationType `json:"type" binding:"required"`
	Title       string           `json:"title"`
	Message     string           `json:"message" binding:"required"`
	JobCardID   int              `json:"job_card_id,omitempty"`
	RedirectURL string           `json:"redirect_url,omitempty"`
	Payload     Payload          `json:"payload,omitempty"`
}

// MarkReadRequest is the body of POST /notifications/mark-read.
type MarkReadRequest struct {
	NotificationID string `json:"notification_id" binding:"required"`
}
