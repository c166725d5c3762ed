// ABOUTME: Append-only execution audit storage for SQLite
// ABOUTME: Records every engine execution and serves the recent-query digest
package sqlite

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"sqlpilot/internal/models"
)

// AuditStore handles execution audit persistence
type AuditStore struct {
	db *DB
}

// NewAuditStore creates a new AuditStore
func NewAuditStore(db *DB) *AuditStore {
	return &AuditStore{db: db}
}

// Append stores one execution record. Audit rows are never updated.
func (s *AuditStore) Append(rec *models.QueryAudit) error {
	if rec.AuditID == "" {
		rec.AuditID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO query_audit (audit_id, thread_id, sql_text, success, execution_ms, rows_affected, error_text, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.AuditID, rec.ThreadID, rec.SQL, rec.Success, rec.ExecutionMS,
		rec.RowsAffected, nullable(rec.ErrorText), rec.CreatedAt)
	return err
}

// Recent returns the newest n audit records for a thread, newest first
func (s *AuditStore) Recent(threadID string, n int) ([]models.QueryAudit, error) {
	rows, err := s.db.Query(`
		SELECT audit_id, thread_id, sql_text, success, execution_ms, rows_affected, error_text, created_at
		FROM query_audit
		WHERE thread_id = ?
		ORDER BY created_at DESC, audit_id
		LIMIT ?
	`, threadID, n)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var records []models.QueryAudit
	for rows.Next() {
		var (
			rec       models.QueryAudit
			errorText sql.NullString
		)
		err := rows.Scan(&rec.AuditID, &rec.ThreadID, &rec.SQL, &rec.Success,
			&rec.ExecutionMS, &rec.RowsAffected, &errorText, &rec.CreatedAt)
		if err != nil {
			return nil, err
		}
		rec.ErrorText = errorText.String
		records = append(records, rec)
	}

	return records, rows.Err()
}
