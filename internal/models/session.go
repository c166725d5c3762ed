// ABOUTME: Session is the metadata record for one conversation partition
// ABOUTME: One partition per distinct (host, principal, database) triple
package models

import "time"

// Session describes a conversation partition. The ThreadID is a pure
// function of Host, User and Database, so the same triple always maps to
// the same partition across restarts.
type Session struct {
	ThreadID     string    `json:"thread_id"`
	Database     string    `json:"database"`
	Host         string    `json:"host"`
	User         string    `json:"user"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`

	// MessageCount is filled by listing queries, not stored directly.
	MessageCount int64 `json:"message_count,omitempty"`
}
