// ABOUTME: Turn is one persisted message inside a conversation partition
// ABOUTME: Immutable once stored, ordered by a per-partition sequence number
package models

import (
	"errors"
	"strings"
	"time"
)

// Role identifies which side of the conversation produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn represents a single stored message. Seq is assigned by the store
// at insert time and is strictly increasing within a thread.
type Turn struct {
	ThreadID  string    `json:"thread_id"`
	Seq       int64     `json:"seq"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	SQLQuery  string    `json:"sql_query,omitempty"`
	Outcome   string    `json:"outcome,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTurn creates an unsaved Turn with validation.
func NewTurn(threadID string, role Role, content string) (*Turn, error) {
	if strings.TrimSpace(threadID) == "" {
		return nil, errors.New("thread id cannot be empty")
	}
	if role != RoleUser && role != RoleAssistant {
		return nil, errors.New("role must be user or assistant")
	}
	if strings.TrimSpace(content) == "" {
		return nil, errors.New("turn content cannot be empty")
	}
	return &Turn{
		ThreadID:  threadID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// DialogueLine renders the turn as plain dialogue for oracle consumption.
// Executed SQL is appended so the summarizer preserves it.
func (t *Turn) DialogueLine() string {
	speaker := "Assistant"
	if t.Role == RoleUser {
		speaker = "User"
	}
	var b strings.Builder
	b.WriteString(speaker)
	b.WriteString(": ")
	b.WriteString(strings.TrimSpace(t.Content))
	if q := strings.TrimSpace(t.SQLQuery); q != "" {
		b.WriteString("\n[SQL: ")
		b.WriteString(q)
		b.WriteString("]")
	}
	return b.String()
}
