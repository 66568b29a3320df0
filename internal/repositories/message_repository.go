package repositories

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"workforce-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines interactions for chat messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, chatID int, senderID int, content string) (models.Message, error)
	ListMessages(ctx context.Context, chatID int) ([]models.Message, error)
	MarkChatRead(ctx context.Context, chatID int, userID int) (int, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage stores a message and updates the chat's last message summary
// in the same transaction, so both summary fields change together.
func (r *MessageRepo) CreateMessage(ctx context.Context, chatID int, senderID int, content string) (models.Message, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Message{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var msg models.Message
	if err = tx.GetContext(ctx, &msg, `INSERT INTO messages (chat_id, sender_id, content) VALUES ($1, $2, $3)
        RETURNING id, chat_id, sender_id, content, type, status, created_at`, chatID, senderID, content); err != nil {
		return models.Message{}, err
	}

	res, err := tx.ExecContext(ctx, `UPDATE chats SET last_message=$1, last_message_time=$2 WHERE id=$3`, msg.Content, msg.CreatedAt, chatID)
	if err != nil {
		return models.Message{}, err
	}
	if err = expectRows(res, ErrChatNotFound); err != nil {
		return models.Message{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.Message{}, err
	}
	msg.ReadBy = []int{}
	return msg, nil
}

// ListMessages returns messages ordered by timestamp, ties broken by id.
func (r *MessageRepo) ListMessages(ctx context.Context, chatID int) ([]models.Message, error) {
	var msgs []models.Message
	if err := r.db.SelectContext(ctx, &msgs, `SELECT id, chat_id, sender_id, content, type, status, created_at
        FROM messages WHERE chat_id=$1 ORDER BY created_at ASC, id ASC`, chatID); err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return msgs, nil
	}

	ids := make([]int64, 0, len(msgs))
	index := make(map[int]int, len(msgs))
	for i, m := range msgs {
		ids = append(ids, int64(m.ID))
		index[m.ID] = i
		msgs[i].ReadBy = []int{}
	}
	var reads []struct {
		MessageID int `db:"message_id"`
		UserID    int `db:"user_id"`
	}
	if err := r.db.SelectContext(ctx, &reads, `SELECT message_id, user_id FROM message_reads WHERE message_id = ANY($1) ORDER BY read_at`, pq.Array(ids)); err != nil {
		return nil, err
	}
	for _, rd := range reads {
		i := index[rd.MessageID]
		msgs[i].ReadBy = append(msgs[i].ReadBy, rd.UserID)
	}
	return msgs, nil
}

// MarkChatRead records read receipts for every message in the chat not sent by
// the user. read_by only grows. Returns the number of new receipts.
func (r *MessageRepo) MarkChatRead(ctx context.Context, chatID int, userID int) (int, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO message_reads (message_id, user_id)
        SELECT id, $2 FROM messages WHERE chat_id=$1 AND sender_id <> $2
        ON CONFLICT DO NOTHING`, chatID, userID)
	if err != nil {
		return 0, err
	}
	count, err := res.RowsAffected()
	return int(count), err
}
