package agent

import "sync"

// defaultHistoryLimit is the fixed window of retained conversation messages.
const defaultHistoryLimit = 20

// Conversation is a bounded message history. The window holds the most
// recent messages, oldest dropped first; the system prompt lives outside
// the window and is never truncated. Appends within one round go in as a
// single batch so a cancelled turn never leaves a half-appended round.
type Conversation struct {
	mu       sync.Mutex
	messages []Message
	limit    int
}

// NewConversation creates a history bounded to limit messages.
func NewConversation(limit int) *Conversation {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return &Conversation{limit: limit}
}

// Append adds messages as one atomic batch and truncates to the window.
func (c *Conversation) Append(msgs ...Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = append(c.messages, msgs...)
	if len(c.messages) > c.limit {
		c.messages = c.messages[len(c.messages)-c.limit:]
		// Tool results at the head reference a dropped assistant message
		// and would break the provider transcript.
		for len(c.messages) > 0 && c.messages[0].Role == "tool" {
			c.messages = c.messages[1:]
		}
	}
}

// Messages returns a copy of the current window.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len reports the number of retained messages.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.messages)
}
