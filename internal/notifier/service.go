package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"workforce-service/internal/models"
	"workforce-service/internal/observability"
	"workforce-service/internal/repositories"
)

// Pusher delivers a notification to a user's live channels.
type Pusher interface {
	SendToUser(userID int, n models.Notification) int
}

// Publisher ships notification events to the broker.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// Service persists notifications and fans them out over websockets and AMQP.
type Service struct {
	repo      repositories.NotificationRepository
	pusher    Pusher
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo repositories.NotificationRepository, pusher Pusher, publisher Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		pusher:    pusher,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

var defaultTitles = map[models.NotificationType]string{
	models.NotificationJobAssignment:    "New Job Assignment",
	models.NotificationNewMessage:       "New Message",
	models.NotificationDirectMessage:    "New Direct Message",
	models.NotificationLeaveApplication: "Leave Application",
	models.NotificationTaskAssignment:   "New Task",
	models.NotificationTaskUpdate:       "Task Updated",
	models.NotificationCustomerAddition: "New Customer",
	models.NotificationJobStatusUpdate:  "Job Status Updated",
}

// RoutingKey is the broker routing key for a notification type.
func RoutingKey(t models.NotificationType) string {
	return "notifications." + string(t)
}

// Send persists the notification, pushes it to the recipient's open sockets and
// publishes it. Only persistence failures are returned; delivery is best effort.
func (s *Service) Send(ctx context.Context, req models.SendNotificationRequest) (models.Notification, error) {
	if req.RecipientID <= 0 {
		return models.Notification{}, fmt.Errorf("notifier: invalid recipient %d", req.RecipientID)
	}
	if strings.TrimSpace(req.Message) == "" {
		return models.Notification{}, fmt.Errorf("notifier: empty message")
	}

	n := models.Notification{
		ID:          uuid.NewString(),
		RecipientID: req.RecipientID,
		Type:        req.Type,
		Title:       req.Title,
		Message:     req.Message,
		Level:       models.LevelInfo,
		RedirectURL: req.RedirectURL,
		Payload:     models.Payload{},
		CreatedAt:   s.now().UTC(),
	}
	if n.Type == "" {
		n.Type = models.NotificationGeneric
	}
	if n.Title == "" {
		n.Title = defaultTitles[n.Type]
	}
	if n.Title == "" {
		n.Title = "Notification"
	}
	if n.Type == models.NotificationJobAssignment {
		n.Level = models.LevelSuccess
	}
	for k, v := range req.Payload {
		n.Payload[k] = v
	}
	if req.JobCardID > 0 {
		n.Payload["job_card_id"] = req.JobCardID
	}

	stored, err := s.repo.CreateNotification(ctx, n)
	if err != nil {
		return models.Notification{}, fmt.Errorf("store notification: %w", err)
	}
	observability.IncNotificationCreated(string(stored.Type))

	delivered := 0
	if s.pusher != nil {
		delivered = s.pusher.SendToUser(stored.RecipientID, stored)
	}
	s.logger.Debug("notification sent", "id", stored.ID, "type", stored.Type, "recipient_id", stored.RecipientID, "sockets", delivered)

	if s.publisher != nil {
		event := models.NotificationEvent{Type: "notification", Notification: &stored}
		if err := s.publisher.Publish(ctx, RoutingKey(stored.Type), event); err != nil {
			observability.IncAMQPPublishError()
			s.logger.Warn("notification publish failed", "id", stored.ID, "error", err)
		}
	}

	return stored, nil
}

// NotifyChatMembers sends a message notification to every member except the
// sender. Group chats produce new_message, dms produce direct_message. Errors
// are logged and do not affect the message that was stored.
func (s *Service) NotifyChatMembers(ctx context.Context, chat models.Chat, msg models.Message, senderName string) {
	notificationType := models.NotificationNewMessage
	title := fmt.Sprintf("New message in %s", chat.Name)
	if chat.Type == models.ChatTypeDM {
		notificationType = models.NotificationDirectMessage
		title = "New direct message"
	}
	if senderName != "" {
		title = fmt.Sprintf("%s from %s", title, senderName)
	}

	for _, member := range chat.Members {
		if member == msg.SenderID {
			continue
		}
		_, err := s.Send(ctx, models.SendNotificationRequest{
			RecipientID: member,
			Type:        notificationType,
			Title:       title,
			Message:     preview(msg.Content),
			Payload: models.Payload{
				"group_id":   chat.ID,
				"message_id": msg.ID,
				"sender_id":  msg.SenderID,
			},
		})
		if err != nil {
			s.logger.Warn("chat notification failed", "chat_id", chat.ID, "recipient_id", member, "error", err)
		}
	}
}

const previewLen = 120

func preview(content string) string {
	r := []rune(content)
	if len(r) <= previewLen {
		return content
	}
	return string(r[:previewLen]) + "..."
}
