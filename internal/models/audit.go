// ABOUTME: QueryAudit is one append-only record of an executed query
// ABOUTME: Feeds the recent-query digest injected into oracle prompts
package models

import "time"

// QueryAudit records one engine execution for a thread.
type QueryAudit struct {
	AuditID      string    `json:"audit_id"`
	ThreadID     string    `json:"thread_id"`
	SQL          string    `json:"sql"`
	Success      bool      `json:"success"`
	ExecutionMS  int64     `json:"execution_ms"`
	RowsAffected int64     `json:"rows_affected"`
	ErrorText    string    `json:"error_text,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
