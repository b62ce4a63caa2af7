package domain

import (
	"time"
)

// MessageType distinguishes who authored a chat message.
type MessageType string

const (
	MessageTypeUser MessageType = "user"
	MessageTypeAI   MessageType = "ai"
)

// Valid reports whether m is a known message type.
func (m MessageType) Valid() bool {
	return m == MessageTypeUser || m == MessageTypeAI
}

// ChatMessage is a single entry in a chat session.
type ChatMessage struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	ImageURL  string      `json:"imageUrl,omitempty"`
}

// ChatSession is a conversation thread with its message history.
type ChatSession struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Messages  []ChatMessage `json:"messages"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// Clone returns a copy of the session that shares no message storage with s.
func (s *ChatSession) Clone() *ChatSession {
	c := *s
	c.Messages = make([]ChatMessage, len(s.Messages))
	copy(c.Messages, s.Messages)
	return &c
}
