package notify

import (
	"encoding/json"
	"errors"
	"time"

	"workforce-service/internal/models"
)

var ErrNotNotification = errors.New("event is not a notification")

type rawEvent struct {
	Type         string               `json:"type"`
	Notification *models.Notification `json:"notification"`
}

// Normalize decodes a pushed event. It accepts the {"type":"notification",
// "notification":{...}} envelope and a bare notification object, and fills in
// a missing title, level and creation time.
func Normalize(raw []byte, now time.Time) (models.Notification, error) {
	var env rawEvent
	if err := json.Unmarshal(raw, &env); err != nil {
		return models.Notification{}, err
	}

	var n models.Notification
	switch {
	case env.Notification != nil:
		n = *env.Notification
	case env.Type == "notification":
		return models.Notification{}, ErrNotNotification
	default:
		if err := json.Unmarshal(raw, &n); err != nil {
			return models.Notification{}, err
		}
		if n.Message == "" && n.ID == "" {
			return models.Notification{}, ErrNotNotification
		}
	}
	return fill(n, now), nil
}

func fill(n models.Notification, now time.Time) models.Notification {
	if n.Type == "" {
		n.Type = models.NotificationGeneric
	}
	if n.Level == "" {
		n.Level = models.LevelInfo
	}
	if n.Title == "" {
		n.Title = "Notification"
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	return n
}
