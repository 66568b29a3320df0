package chatcore

import (
	"context"
	"fmt"
	"sort"

	"workforce-service/internal/models"
)

type entry struct {
	msg models.Message
	seq uint64
}

// timeline holds one chat's messages ordered by timestamp, ties broken by
// insertion order.
type timeline struct {
	entries []*entry
	nextSeq uint64
}

func (t *timeline) insert(msg models.Message) *entry {
	e := &entry{msg: msg, seq: t.nextSeq}
	t.nextSeq++
	i := sort.Search(len(t.entries), func(i int) bool {
		return t.entries[i].msg.CreatedAt.After(msg.CreatedAt)
	})
	t.entries = append(t.entries, nil)
	copy(t.entries[i+1:], t.entries[i:])
	t.entries[i] = e
	return e
}

func (t *timeline) byServerID(id int) *entry {
	if id == 0 {
		return nil
	}
	for _, e := range t.entries {
		if e.msg.ID == id {
			return e
		}
	}
	return nil
}

func (t *timeline) hasServerID(id int) bool { return t.byServerID(id) != nil }

func (t *timeline) remove(e *entry) {
	for i, cur := range t.entries {
		if cur == e {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return
		}
	}
}

func (t *timeline) messages() []models.Message {
	out := make([]models.Message, 0, len(t.entries))
	for _, e := range t.entries {
		m := e.msg
		m.ReadBy = append([]int(nil), e.msg.ReadBy...)
		out = append(out, m)
	}
	return out
}

// must hold c.mu
func (c *Core) timelineFor(chatID int) *timeline {
	t, ok := c.timelines[chatID]
	if !ok {
		t = &timeline{}
		c.timelines[chatID] = t
	}
	return t
}

// Messages returns chatID's messages in display order.
func (c *Core) Messages(chatID int) []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.timelines[chatID]
	if !ok {
		return nil
	}
	return t.messages()
}

// LoadMessages merges the server's history for chatID into the timeline.
func (c *Core) LoadMessages(ctx context.Context, chatID int) error {
	msgs, err := c.backend.ListMessages(ctx, chatID)
	if err != nil {
		return fmt.Errorf("list messages: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.timelineFor(chatID)
	for _, m := range msgs {
		if !t.hasServerID(m.ID) {
			t.insert(m)
		}
	}
	return nil
}

// Receive adds a message pushed by another member. Messages already in the
// timeline are ignored. The chat's last message moves forward only.
func (c *Core) Receive(msg models.Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.timelineFor(msg.ChatID)
	if t.hasServerID(msg.ID) {
		return false
	}
	t.insert(msg)

	if chat, ok := c.chats[msg.ChatID]; ok {
		if chat.LastMessageTime == nil || !msg.CreatedAt.Before(*chat.LastMessageTime) {
			at := msg.CreatedAt
			chat.LastMessage = msg.Content
			chat.LastMessageTime = &at
		}
		if msg.SenderID != c.viewer.ID {
			chat.UnreadCount++
		}
	}
	return true
}
