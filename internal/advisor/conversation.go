package advisor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrEmptyMessage is returned when the message is blank.
	ErrEmptyMessage = errors.New("advisor: empty message")
	// ErrBusy is returned while a previous reply is still pending.
	ErrBusy = errors.New("advisor: reply pending")
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is a transcript with one reply in flight at a time.
type Conversation struct {
	advisor *Advisor
	now     func() time.Time

	mu       sync.Mutex
	messages []Message
	pending  bool
}

// NewConversation starts a transcript with the greeting.
func NewConversation(a *Advisor) *Conversation {
	c := &Conversation{advisor: a, now: time.Now}
	c.messages = []Message{c.message(RoleAssistant, Greeting)}
	return c
}

func (c *Conversation) message(role Role, content string) Message {
	return Message{ID: uuid.New().String(), Role: role, Content: content, Timestamp: c.now()}
}

// Send appends text as a user message, waits for the reply and appends it.
// If ctx ends before the reply, the user message stays and ctx.Err() is
// returned.
func (c *Conversation) Send(ctx context.Context, text string, snap Context) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrEmptyMessage
	}

	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()
		return Message{}, ErrBusy
	}
	c.pending = true
	c.messages = append(c.messages, c.message(RoleUser, text))
	c.mu.Unlock()

	reply, err := c.advisor.Reply(ctx, text, snap)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = false
	if err != nil {
		return Message{}, err
	}
	m := c.message(RoleAssistant, reply)
	c.messages = append(c.messages, m)
	return m, nil
}

// Pending reports whether a reply is in flight.
func (c *Conversation) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Messages returns a copy of the transcript.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}
