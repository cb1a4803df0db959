package agentcore

import "github.com/ThomasWDev/aibuddy-desktop-sub002/llmbridge"

// Conversation is the ordered, append-only message history plus cumulative
// usage counters. It is owned exclusively by one Agent; external callers only
// reach it through StartTask, SendMessage, and Abort.
type Conversation struct {
	messages []llmbridge.Message
	usage    llmbridge.Usage
}

// NewConversation creates an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{}
}

// Append adds a message to the end of the history.
func (c *Conversation) Append(msg llmbridge.Message) {
	c.messages = append(c.messages, msg)
}

// Messages returns a copy of the history in append order.
func (c *Conversation) Messages() []llmbridge.Message {
	out := make([]llmbridge.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	return len(c.messages)
}

// AddUsage accumulates token usage from one backend response.
func (c *Conversation) AddUsage(u llmbridge.Usage) {
	c.usage = c.usage.Add(u)
}

// Usage returns the cumulative token usage.
func (c *Conversation) Usage() llmbridge.Usage {
	return c.usage
}
