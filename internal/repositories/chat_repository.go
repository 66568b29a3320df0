package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"workforce-service/internal/models"
)

var (
	ErrChatNotFound = errors.New("chat not found")
	ErrSelfChat     = errors.New("cannot create chat with self")
)

// ChatRepository abstracts chat persistence.
type ChatRepository interface {
	CreateGroup(ctx context.Context, creatorID int, req models.CreateGroupRequest) (models.Chat, error)
	GetOrCreateDirect(ctx context.Context, userID int, otherID int) (models.Chat, bool, error)
	GetChat(ctx context.Context, chatID int) (models.Chat, error)
	ListChatsForUser(ctx context.Context, userID int) ([]models.Chat, error)
	IsMember(ctx context.Context, chatID int, userID int) (bool, error)
	DeleteChat(ctx context.Context, chatID int) error
	AddMember(ctx context.Context, chatID int, userID int) error
	RemoveMember(ctx context.Context, chatID int, userID int) error
}

// ChatRepo is a sqlx implementation of ChatRepository.
type ChatRepo struct {
	db *sqlx.DB
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(db *sqlx.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

const chatColumns = `c.id, c.type, c.name, c.description, c.created_by, c.avatar, c.is_private, c.created_at, c.last_message, c.last_message_time`

// CreateGroup creates a group chat and its members atomically. The creator is
// always a member.
func (r *ChatRepo) CreateGroup(ctx context.Context, creatorID int, req models.CreateGroupRequest) (models.Chat, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Chat{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var chat models.Chat
	if err = tx.GetContext(ctx, &chat, `INSERT INTO chats AS c (type, name, description, created_by, avatar, is_private)
        VALUES ('group', $1, $2, $3, $4, $5) RETURNING `+chatColumns,
		req.Name, req.Description, creatorID, req.Avatar, req.IsPrivate); err != nil {
		return models.Chat{}, err
	}

	chat.Members = memberSet(creatorID, req.MemberIDs)
	for _, id := range chat.Members {
		if _, err = tx.ExecContext(ctx, `INSERT INTO chat_members (chat_id, user_id) VALUES ($1, $2)`, chat.ID, id); err != nil {
			return models.Chat{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return models.Chat{}, err
	}
	return chat, nil
}

// GetOrCreateDirect returns the dm between two users, creating it when absent.
// The pair is unordered. The boolean reports whether a chat was created.
func (r *ChatRepo) GetOrCreateDirect(ctx context.Context, userID int, otherID int) (models.Chat, bool, error) {
	if userID == otherID {
		return models.Chat{}, false, ErrSelfChat
	}
	key := dmKey(userID, otherID)

	var chat models.Chat
	err := r.db.GetContext(ctx, &chat, `SELECT `+chatColumns+` FROM chats c WHERE c.dm_key=$1`, key)
	if err == nil {
		chat.Members = memberSet(userID, []int{otherID})
		return chat, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, false, err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Chat{}, false, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	// A concurrent creator may win the unique dm_key; then re-read its row.
	err = tx.GetContext(ctx, &chat, `INSERT INTO chats AS c (type, created_by, is_private, dm_key)
        VALUES ('dm', $1, TRUE, $2) ON CONFLICT (dm_key) DO NOTHING RETURNING `+chatColumns, userID, key)
	if errors.Is(err, sql.ErrNoRows) {
		err = tx.Rollback()
		if err != nil {
			return models.Chat{}, false, err
		}
		got, _, gerr := r.GetOrCreateDirect(ctx, userID, otherID)
		return got, false, gerr
	}
	if err != nil {
		return models.Chat{}, false, err
	}

	chat.Members = memberSet(userID, []int{otherID})
	for _, id := range chat.Members {
		if _, err = tx.ExecContext(ctx, `INSERT INTO chat_members (chat_id, user_id) VALUES ($1, $2)`, chat.ID, id); err != nil {
			return models.Chat{}, false, err
		}
	}
	if err = tx.Commit(); err != nil {
		return models.Chat{}, false, err
	}
	return chat, true, nil
}

// GetChat fetches a chat by id, members included.
func (r *ChatRepo) GetChat(ctx context.Context, chatID int) (models.Chat, error) {
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat, `SELECT `+chatColumns+` FROM chats c WHERE c.id=$1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	if err != nil {
		return models.Chat{}, err
	}
	if err := r.db.SelectContext(ctx, &chat.Members, `SELECT user_id FROM chat_members WHERE chat_id=$1 ORDER BY user_id`, chatID); err != nil {
		return models.Chat{}, err
	}
	return chat, nil
}

// ListChatsForUser returns the chats the user belongs to with the user's unread count.
func (r *ChatRepo) ListChatsForUser(ctx context.Context, userID int) ([]models.Chat, error) {
	query := `SELECT ` + chatColumns + `,
            (SELECT COUNT(*) FROM messages m
                WHERE m.chat_id = c.id AND m.sender_id <> $1
                AND NOT EXISTS (SELECT 1 FROM message_reads mr WHERE mr.message_id = m.id AND mr.user_id = $1)
            ) AS unread_count
        FROM chats c
        INNER JOIN chat_members cm ON cm.chat_id = c.id AND cm.user_id = $1
        ORDER BY COALESCE(c.last_message_time, c.created_at) DESC, c.id DESC`
	var chats []models.Chat
	if err := r.db.SelectContext(ctx, &chats, query, userID); err != nil {
		return nil, err
	}
	if len(chats) == 0 {
		return chats, nil
	}

	ids := make([]int64, 0, len(chats))
	index := make(map[int]int, len(chats))
	for i, c := range chats {
		ids = append(ids, int64(c.ID))
		index[c.ID] = i
	}
	var members []models.ChatMember
	if err := r.db.SelectContext(ctx, &members, `SELECT chat_id, user_id, joined_at FROM chat_members WHERE chat_id = ANY($1) ORDER BY chat_id, user_id`, pq.Array(ids)); err != nil {
		return nil, err
	}
	for _, m := range members {
		i := index[m.ChatID]
		chats[i].Members = append(chats[i].Members, m.UserID)
	}
	return chats, nil
}

// IsMember checks membership.
func (r *ChatRepo) IsMember(ctx context.Context, chatID int, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM chat_members WHERE chat_id=$1 AND user_id=$2)`, chatID, userID)
	return exists, err
}

// DeleteChat removes a chat with its members and messages.
func (r *ChatRepo) DeleteChat(ctx context.Context, chatID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM chats WHERE id=$1`, chatID)
	if err != nil {
		return err
	}
	return expectRows(res, ErrChatNotFound)
}

// AddMember adds a user to a chat; adding an existing member is a no-op.
func (r *ChatRepo) AddMember(ctx context.Context, chatID int, userID int) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO chat_members (chat_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, chatID, userID)
	return err
}

// RemoveMember removes a user from a chat.
func (r *ChatRepo) RemoveMember(ctx context.Context, chatID int, userID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM chat_members WHERE chat_id=$1 AND user_id=$2`, chatID, userID)
	if err != nil {
		return err
	}
	return expectRows(res, ErrChatNotFound)
}

func memberSet(creatorID int, memberIDs []int) []int {
	set := map[int]struct{}{creatorID: {}}
	for _, id := range memberIDs {
		set[id] = struct{}{}
	}
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func dmKey(a, b int) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}
