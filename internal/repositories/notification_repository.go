package repositories

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"workforce-service/internal/models"
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationRepository persists notifications and their read state.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error)
	ListPending(ctx context.Context, recipientID int, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, notificationID string, recipientID int) error
}

// NotificationRepo is a sqlx implementation of NotificationRepository.
type NotificationRepo struct {
	db *sqlx.DB
}

// NewNotificationRepo constructs a NotificationRepo.
func NewNotificationRepo(db *sqlx.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

const notificationColumns = `id, recipient_id, type, title, message, level, redirect_url, payload, is_read, created_at`

// CreateNotification inserts n. n.ID must already be assigned.
func (r *NotificationRepo) CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error) {
	var out models.Notification
	err := r.db.GetContext(ctx, &out, `INSERT INTO notifications (id, recipient_id, type, title, message, level, redirect_url, payload)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING `+notificationColumns,
		n.ID, n.RecipientID, n.Type, n.Title, n.Message, n.Level, n.RedirectURL, n.Payload)
	return out, err
}

// ListPending returns unread notifications for the recipient, newest first.
func (r *NotificationRepo) ListPending(ctx context.Context, recipientID int, limit int) ([]models.Notification, error) {
	var list []models.Notification
	err := r.db.SelectContext(ctx, &list, `SELECT `+notificationColumns+` FROM notifications
        WHERE recipient_id=$1 AND is_read = FALSE ORDER BY created_at DESC LIMIT $2`, recipientID, limit)
	return list, err
}

// MarkRead flags a notification as read. Marking an already-read notification
// succeeds; marking someone else's does not.
func (r *NotificationRepo) MarkRead(ctx context.Context, notificationID string, recipientID int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE, read_at = COALESCE(read_at, NOW())
        WHERE id=$1 AND recipient_id=$2`, notificationID, recipientID)
	if err != nil {
		return err
	}
	return expectRows(res, ErrNotificationNotFound)
}
