package chatcore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"workforce-service/internal/models"
)

var epoch = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

// memServer is an in-memory stand-in for the chat API shared by several
// viewers.
type memServer struct {
	mu       sync.Mutex
	nextChat int
	nextMsg  int
	chats    map[int]*models.Chat
	messages map[int][]models.Message
	calls    []string
	now      func() time.Time

	sendGate chan struct{}
	sendErr  error
	// afterSend runs once the message is stored, before SendMessage returns,
	// like the server's room broadcast preceding its HTTP response.
	afterSend func(models.Message)
}

func newMemServer() *memServer {
	return &memServer{
		nextChat: 100,
		nextMsg:  1000,
		chats:    map[int]*models.Chat{},
		messages: map[int][]models.Message{},
		now:      func() time.Time { return epoch },
	}
}

func (s *memServer) as(userID int) *memBackend { return &memBackend{srv: s, user: userID} }

func (s *memServer) callLog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *memServer) dmCount(a, b int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.chats {
		if c.Type == models.ChatTypeDM && c.SameMembers(a, b) {
			n++
		}
	}
	return n
}

type memBackend struct {
	srv  *memServer
	user int
}

func (b *memBackend) log(call string) { b.srv.calls = append(b.srv.calls, fmt.Sprintf("%d:%s", b.user, call)) }

func (b *memBackend) ListChats(context.Context) ([]models.Chat, error) {
	b.srv.mu.Lock()
	defer b.srv.mu.Unlock()
	b.log("list")
	var out []models.Chat
	for _, c := range b.srv.chats {
		if c.HasMember(b.user) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (b *memBackend) CreateGroup(_ context.Context, req models.CreateGroupRequest) (models.Chat, error) {
	b.srv.mu.Lock()
	defer b.srv.mu.Unlock()
	b.log("create_group")
	b.srv.nextChat++
	c := &models.Chat{
		ID:        b.srv.nextChat,
		Type:      models.ChatTypeGroup,
		Name:      req.Name,
		CreatedBy: b.user,
		CreatedAt: b.srv.now(),
		Members:   append([]int{b.user}, req.MemberIDs...),
	}
	b.srv.chats[c.ID] = c
	return *c, nil
}

func (b *memBackend) CreateDirect(_ context.Context, userID int) (models.Chat, error) {
	b.srv.mu.Lock()
	defer b.srv.mu.Unlock()
	b.log("create_dm")
	for _, c := range b.srv.chats {
		if c.Type == models.ChatTypeDM && c.SameMembers(b.user, userID) {
			return *c, nil
		}
	}
	b.srv.nextChat++
	c := &models.Chat{
		ID:        b.srv.nextChat,
		Type:      models.ChatTypeDM,
		CreatedBy: b.user,
		CreatedAt: b.srv.now(),
		Members:   []int{b.user, userID},
	}
	b.srv.chats[c.ID] = c
	return *c, nil
}

func (b *memBackend) DeleteChat(_ context.Context, chatID int) error {
	b.srv.mu.Lock()
	defer b.srv.mu.Unlock()
	b.log("delete")
	delete(b.srv.chats, chatID)
	return nil
}

func (b *memBackend) AddMember(_ context.Context, chatID, userID int) error {
	b.srv.mu.Lock()
	defer b.srv.mu.Unlock()
	b.log("add_member")
	c, ok := b.srv.chats[chatID]
	if !ok {
		return errors.New("not found")
	}
	c.Members = append(c.Members, userID)
	return nil
}

func (b *memBackend) RemoveMember(_ context.Context, chatID, userID int) error {
	b.srv.mu.Lock()
	defer b.srv.mu.Unlock()
	b.log("remove_member")
	c, ok := b.srv.chats[chatID]
	if !ok {
		return errors.New("not found")
	}
	var kept []int
	for _, id := range c.Members {
		if id != userID {
			kept = append(kept, id)
		}
	}
	c.Members = kept
	return nil
}

func (b *memBackend) ListMessages(_ context.Context, chatID int) ([]models.Message, error) {
	b.srv.mu.Lock()
	defer b.srv.mu.Unlock()
	b.log("list_messages")
	return append([]models.Message(nil), b.srv.messages[chatID]...), nil
}

func (b *memBackend) SendMessage(ctx context.Context, chatID int, content string) (models.Message, error) {
	b.srv.mu.Lock()
	gate := b.srv.sendGate
	b.srv.mu.Unlock()
	if gate != nil {
		<-gate
	}

	msg, err := b.store(chatID, content)
	if err != nil {
		return models.Message{}, err
	}
	b.srv.mu.Lock()
	hook := b.srv.afterSend
	b.srv.mu.Unlock()
	if hook != nil {
		hook(msg)
	}
	return msg, nil
}

func (b *memBackend) store(chatID int, content string) (models.Message, error) {
	b.srv.mu.Lock()
	defer b.srv.mu.Unlock()
	b.log("send")
	if b.srv.sendErr != nil {
		return models.Message{}, b.srv.sendErr
	}
	c, ok := b.srv.chats[chatID]
	if !ok {
		return models.Message{}, errors.New("not found")
	}
	b.srv.nextMsg++
	msg := models.Message{
		ID:        b.srv.nextMsg,
		ChatID:    chatID,
		SenderID:  b.user,
		Content:   content,
		Type:      "text",
		Status:    models.MessageStatusSent,
		CreatedAt: b.srv.now(),
	}
	b.srv.messages[chatID] = append(b.srv.messages[chatID], msg)
	at := msg.CreatedAt
	c.LastMessage = content
	c.LastMessageTime = &at
	return msg, nil
}

func (b *memBackend) MarkChatRead(context.Context, int) error {
	b.srv.mu.Lock()
	defer b.srv.mu.Unlock()
	b.log("read")
	return nil
}
