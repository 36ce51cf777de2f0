package chat

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Message is a single chat turn. Messages are append-only except for
// Content, which the owning Manager may extend in place while a
// response is still streaming.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMessage creates a message with a fresh identifier and the current time.
func NewMessage(role Role, content string) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// Conversation is an ordered sequence of messages plus display metadata.
// Message order is insertion order and is never re-sorted.
type Conversation struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Messages  []*Message `json:"messages"`
	Model     string     `json:"model"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewConversation creates an empty conversation bound to the given model.
func NewConversation(title, model string) *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        uuid.New().String(),
		Title:     title,
		Messages:  []*Message{},
		Model:     model,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch bumps UpdatedAt. The timestamp is monotonically non-decreasing
// even if the wall clock steps backwards.
func (c *Conversation) Touch() {
	now := time.Now()
	if now.After(c.UpdatedAt) {
		c.UpdatedAt = now
	}
}

// LastMessage returns the most recently appended message, or nil if the
// conversation is empty.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// Clone returns a deep copy. Snapshot copies handed to background saves
// must not share message pointers with the live conversation.
func (c *Conversation) Clone() *Conversation {
	msgs := make([]*Message, len(c.Messages))
	for i, m := range c.Messages {
		dup := *m
		msgs[i] = &dup
	}
	return &Conversation{
		ID:        c.ID,
		Title:     c.Title,
		Messages:  msgs,
		Model:     c.Model,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// CloneAll deep-copies an ordered conversation list.
func CloneAll(conversations []*Conversation) []*Conversation {
	out := make([]*Conversation, len(conversations))
	for i, c := range conversations {
		out[i] = c.Clone()
	}
	return out
}
