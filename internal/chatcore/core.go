// Package chatcore keeps the client-side view of a user's chats: the chat
// list, each chat's ordered messages and the send path.
package chatcore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"workforce-service/internal/clock"
	"workforce-service/internal/models"
)

var (
	ErrEmptyMessage        = errors.New("message is empty")
	ErrForbidden           = errors.New("not allowed")
	ErrChatNotFound        = errors.New("chat not found")
	ErrInvalidGroup        = errors.New("invalid group")
	ErrInvalidRecipient    = errors.New("invalid recipient")
	ErrNotGroup            = errors.New("not a group chat")
	ErrCannotRemoveCreator = errors.New("cannot remove the chat creator")
)

// Backend is the server API the core persists through.
type Backend interface {
	ListChats(ctx context.Context) ([]models.Chat, error)
	CreateGroup(ctx context.Context, req models.CreateGroupRequest) (models.Chat, error)
	CreateDirect(ctx context.Context, userID int) (models.Chat, error)
	DeleteChat(ctx context.Context, chatID int) error
	AddMember(ctx context.Context, chatID, userID int) error
	RemoveMember(ctx context.Context, chatID, userID int) error
	ListMessages(ctx context.Context, chatID int) ([]models.Message, error)
	SendMessage(ctx context.Context, chatID int, content string) (models.Message, error)
	MarkChatRead(ctx context.Context, chatID int) error
}

// Viewer is the signed-in user the core acts for.
type Viewer struct {
	ID   int
	Role models.Role
}

type TypeFilter string

const (
	TypeAll   TypeFilter = "all"
	TypeGroup TypeFilter = "group"
	TypeDM    TypeFilter = "dm"
)

// Filter narrows the chat list. An empty Type means all.
type Filter struct {
	Query string
	Type  TypeFilter
}

func (f Filter) match(c *models.Chat) bool {
	switch f.Type {
	case TypeGroup:
		if c.Type != models.ChatTypeGroup {
			return false
		}
	case TypeDM:
		if c.Type != models.ChatTypeDM {
			return false
		}
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	return q == "" || strings.Contains(strings.ToLower(c.Name), q)
}

// Core is the chat state of one viewer. It is safe for concurrent use.
type Core struct {
	backend  Backend
	viewer   Viewer
	clock    clock.Clock
	validate *validator.Validate
	logger   *slog.Logger

	mu        sync.Mutex
	chats     map[int]*models.Chat
	timelines map[int]*timeline
}

type Option func(*Core)

func WithClock(c clock.Clock) Option {
	return func(core *Core) { core.clock = c }
}

func WithLogger(logger *slog.Logger) Option {
	return func(core *Core) { core.logger = logger }
}

func New(backend Backend, viewer Viewer, opts ...Option) *Core {
	c := &Core{
		backend:   backend,
		viewer:    viewer,
		clock:     clock.Real(),
		validate:  validator.New(),
		logger:    slog.Default(),
		chats:     map[int]*models.Chat{},
		timelines: map[int]*timeline{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Core) Viewer() Viewer { return c.viewer }

// Load replaces the chat cache with the server's list.
func (c *Core) Load(ctx context.Context) error {
	chats, err := c.backend.ListChats(ctx)
	if err != nil {
		return fmt.Errorf("list chats: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chats = make(map[int]*models.Chat, len(chats))
	for i := range chats {
		chat := chats[i]
		c.chats[chat.ID] = &chat
	}
	return nil
}

// ListChats returns the viewer's chats matching f, most recently active first.
func (c *Core) ListChats(f Filter) []models.Chat {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.Chat, 0, len(c.chats))
	for _, chat := range c.chats {
		if !chat.HasMember(c.viewer.ID) || !f.match(chat) {
			continue
		}
		out = append(out, copyChat(chat))
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := activity(out[i]), activity(out[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func activity(c models.Chat) time.Time {
	if c.LastMessageTime != nil {
		return *c.LastMessageTime
	}
	return c.CreatedAt
}

func copyChat(c *models.Chat) models.Chat {
	out := *c
	out.Members = append([]int(nil), c.Members...)
	if c.LastMessageTime != nil {
		t := *c.LastMessageTime
		out.LastMessageTime = &t
	}
	return out
}

// Chat returns one cached chat.
func (c *Core) Chat(chatID int) (models.Chat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	chat, ok := c.chats[chatID]
	if !ok {
		return models.Chat{}, ErrChatNotFound
	}
	return copyChat(chat), nil
}

// CanDelete reports whether the viewer may delete or manage chat.
func (c *Core) CanDelete(chat models.Chat) bool {
	return chat.CreatedBy == c.viewer.ID || c.viewer.Role.Elevated()
}

// CanCompose reports whether the viewer may send to chatID.
func (c *Core) CanCompose(chatID int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	chat, ok := c.chats[chatID]
	return ok && chat.HasMember(c.viewer.ID)
}

// GroupForm is the input of CreateGroup.
type GroupForm struct {
	Name        string
	Description string
	IsPrivate   bool
	MemberIDs   []int
}

type groupInput struct {
	Name    string `validate:"required,max=100"`
	Members []int  `validate:"min=1,dive,gt=0"`
}

// CreateGroup validates form locally and creates the group. The viewer is
// always a member and does not count towards the required other member.
func (c *Core) CreateGroup(ctx context.Context, form GroupForm) (models.Chat, error) {
	in := groupInput{Name: strings.TrimSpace(form.Name)}
	seen := map[int]struct{}{c.viewer.ID: {}}
	for _, id := range form.MemberIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		in.Members = append(in.Members, id)
	}
	if err := c.validate.Struct(in); err != nil {
		return models.Chat{}, fmt.Errorf("%w: %v", ErrInvalidGroup, err)
	}

	chat, err := c.backend.CreateGroup(ctx, models.CreateGroupRequest{
		Name:        in.Name,
		Description: form.Description,
		IsPrivate:   form.IsPrivate,
		MemberIDs:   in.Members,
	})
	if err != nil {
		return models.Chat{}, fmt.Errorf("create group: %w", err)
	}
	if !chat.HasMember(c.viewer.ID) {
		chat.Members = append(chat.Members, c.viewer.ID)
	}
	for _, id := range in.Members {
		if !chat.HasMember(id) {
			chat.Members = append(chat.Members, id)
		}
	}
	c.store(chat)
	return chat, nil
}

// CreateDirectMessage opens the dm with recipient, creating it only when
// none exists. created is false when an existing chat was reused.
func (c *Core) CreateDirectMessage(ctx context.Context, recipient int) (chat models.Chat, created bool, err error) {
	if recipient <= 0 || recipient == c.viewer.ID {
		return models.Chat{}, false, ErrInvalidRecipient
	}
	if existing, ok := c.findDirect(recipient); ok {
		return existing, false, nil
	}

	chat, err = c.backend.CreateDirect(ctx, recipient)
	if err != nil {
		return models.Chat{}, false, fmt.Errorf("create direct message: %w", err)
	}
	if len(chat.Members) == 0 {
		chat.Members = []int{c.viewer.ID, recipient}
	}

	c.mu.Lock()
	_, known := c.chats[chat.ID]
	c.mu.Unlock()
	c.store(chat)
	return chat, !known, nil
}

func (c *Core) findDirect(recipient int) (models.Chat, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, chat := range c.chats {
		if chat.Type == models.ChatTypeDM && chat.SameMembers(c.viewer.ID, recipient) {
			return copyChat(chat), true
		}
	}
	return models.Chat{}, false
}

func (c *Core) store(chat models.Chat) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stored := copyChat(&chat)
	c.chats[chat.ID] = &stored
}

func (c *Core) manageable(chatID int) (models.Chat, error) {
	chat, err := c.Chat(chatID)
	if err != nil {
		return models.Chat{}, err
	}
	if !c.CanDelete(chat) {
		return models.Chat{}, ErrForbidden
	}
	return chat, nil
}

// DeleteChat deletes a chat the viewer created, or any chat for elevated
// roles. Other callers get ErrForbidden and nothing is sent to the server.
func (c *Core) DeleteChat(ctx context.Context, chatID int) error {
	if _, err := c.manageable(chatID); err != nil {
		return fmt.Errorf("delete chat %d: %w", chatID, err)
	}
	if err := c.backend.DeleteChat(ctx, chatID); err != nil {
		return fmt.Errorf("delete chat %d: %w", chatID, err)
	}
	c.mu.Lock()
	delete(c.chats, chatID)
	delete(c.timelines, chatID)
	c.mu.Unlock()
	return nil
}

func (c *Core) AddMember(ctx context.Context, chatID, userID int) error {
	chat, err := c.manageable(chatID)
	if err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	if chat.Type != models.ChatTypeGroup {
		return fmt.Errorf("add member: %w", ErrNotGroup)
	}
	if chat.HasMember(userID) {
		return nil
	}
	if err := c.backend.AddMember(ctx, chatID, userID); err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	c.mu.Lock()
	if cached, ok := c.chats[chatID]; ok {
		cached.Members = append(cached.Members, userID)
	}
	c.mu.Unlock()
	return nil
}

func (c *Core) RemoveMember(ctx context.Context, chatID, userID int) error {
	chat, err := c.manageable(chatID)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	if userID == chat.CreatedBy {
		return fmt.Errorf("remove member: %w", ErrCannotRemoveCreator)
	}
	if err := c.backend.RemoveMember(ctx, chatID, userID); err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	c.mu.Lock()
	if cached, ok := c.chats[chatID]; ok {
		members := cached.Members[:0]
		for _, id := range cached.Members {
			if id != userID {
				members = append(members, id)
			}
		}
		cached.Members = members
	}
	c.mu.Unlock()
	return nil
}

// MarkRead clears the viewer's unread count for chatID and sends the read
// receipt. The local count stays cleared if the receipt fails.
func (c *Core) MarkRead(ctx context.Context, chatID int) error {
	c.mu.Lock()
	chat, ok := c.chats[chatID]
	if ok {
		chat.UnreadCount = 0
	}
	c.mu.Unlock()
	if !ok {
		return ErrChatNotFound
	}

	if err := c.backend.MarkChatRead(ctx, chatID); err != nil {
		c.logger.Warn("read receipt failed", "chat_id", chatID, "error", err)
		return fmt.Errorf("mark chat %d read: %w", chatID, err)
	}
	return nil
}
