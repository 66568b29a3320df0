package chatcore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"workforce-service/internal/models"
)

type Result string

const (
	ResultSent     Result = "sent"
	ResultSkipped  Result = "skipped"
	ResultRejected Result = "rejected"
	ResultFailed   Result = "failed"
)

// Composer is the message input of one chat. At most one send is in flight;
// a Submit while one is pending returns ResultSkipped.
type Composer struct {
	core     *Core
	chatID   int
	inFlight atomic.Bool

	mu    sync.Mutex
	draft string
}

func (c *Core) Composer(chatID int) *Composer {
	return &Composer{core: c, chatID: chatID}
}

func (p *Composer) SetDraft(s string) {
	p.mu.Lock()
	p.draft = s
	p.mu.Unlock()
}

func (p *Composer) Draft() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.draft
}

// Busy reports whether a send is in flight.
func (p *Composer) Busy() bool { return p.inFlight.Load() }

// Submit sends the draft. The draft is cleared and a pending message shown
// before the server is called. A failed send leaves that message marked
// failed and the chat summary unchanged; it is not retried.
func (p *Composer) Submit(ctx context.Context) (Result, error) {
	if !p.inFlight.CompareAndSwap(false, true) {
		return ResultSkipped, nil
	}
	defer p.inFlight.Store(false)

	p.mu.Lock()
	content := strings.TrimSpace(p.draft)
	if content == "" {
		p.mu.Unlock()
		return ResultRejected, ErrEmptyMessage
	}
	if !p.core.CanCompose(p.chatID) {
		p.mu.Unlock()
		return ResultRejected, fmt.Errorf("send to chat %d: %w", p.chatID, ErrForbidden)
	}
	p.draft = ""
	p.mu.Unlock()

	e := p.core.appendPending(p.chatID, content)

	sent, err := p.core.backend.SendMessage(ctx, p.chatID, content)
	if err != nil {
		p.core.settle(p.chatID, e, models.MessageStatusFailed, 0)
		return ResultFailed, fmt.Errorf("send message: %w", err)
	}
	p.core.settle(p.chatID, e, models.MessageStatusSent, sent.ID)
	return ResultSent, nil
}

func (c *Core) appendPending(chatID int, content string) *entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timelineFor(chatID).insert(models.Message{
		ChatID:    chatID,
		SenderID:  c.viewer.ID,
		Content:   content,
		Type:      "text",
		Status:    models.MessageStatusPending,
		CreatedAt: c.clock.Now(),
	})
}

// settle resolves a pending message. On success the chat's last message and
// its time are set in the same locked step. The server may deliver the sent
// message (live echo or history load) before SendMessage returns; that copy
// is kept and the pending entry dropped so the message appears once.
func (c *Core) settle(chatID int, e *entry, status models.MessageStatus, serverID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e.msg.Status = status
	if status != models.MessageStatusSent {
		return
	}
	t := c.timelineFor(chatID)
	if dup := t.byServerID(serverID); dup != nil && dup != e {
		t.remove(e)
		if dup.msg.Status == "" || dup.msg.Status == models.MessageStatusPending {
			dup.msg.Status = models.MessageStatusSent
		}
		e = dup
	}
	e.msg.ID = serverID
	if chat, ok := c.chats[chatID]; ok {
		at := e.msg.CreatedAt
		chat.LastMessage = e.msg.Content
		chat.LastMessageTime = &at
	}
}
