// ABOUTME: Turn storage operations for SQLite
// ABOUTME: Sequence numbers are allocated inside the insert statement
package sqlite

import (
	"database/sql"

	"sqlpilot/internal/models"
)

// TurnStore handles turn persistence
type TurnStore struct {
	db *DB
}

// NewTurnStore creates a new TurnStore
func NewTurnStore(db *DB) *TurnStore {
	return &TurnStore{db: db}
}

// Append stores a new turn and assigns its sequence number atomically.
// SQLite serializes writers, so MAX(seq)+1 inside the insert cannot race.
func (s *TurnStore) Append(turn *models.Turn) error {
	return s.db.QueryRow(`
		INSERT INTO turns (thread_id, seq, role, content, sql_query, outcome, created_at)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM turns WHERE thread_id = ?),
		        ?, ?, ?, ?, ?)
		RETURNING seq
	`, turn.ThreadID, turn.ThreadID, string(turn.Role), turn.Content,
		nullable(turn.SQLQuery), nullable(turn.Outcome), turn.CreatedAt).Scan(&turn.Seq)
}

// Recent returns the newest n turns in chronological (oldest-first) order.
// Selecting newest-first with LIMIT and re-sorting keeps the tail, not the
// head, when the thread is longer than n.
func (s *TurnStore) Recent(threadID string, n int) ([]models.Turn, error) {
	rows, err := s.db.Query(`
		SELECT thread_id, seq, role, content, sql_query, outcome, created_at FROM (
			SELECT * FROM turns
			WHERE thread_id = ?
			ORDER BY seq DESC
			LIMIT ?
		)
		ORDER BY seq ASC
	`, threadID, n)
	if err != nil {
		return nil, err
	}
	return scanTurns(rows)
}

// After returns all turns with seq greater than afterSeq, oldest first
func (s *TurnStore) After(threadID string, afterSeq int64) ([]models.Turn, error) {
	rows, err := s.db.Query(`
		SELECT thread_id, seq, role, content, sql_query, outcome, created_at
		FROM turns
		WHERE thread_id = ? AND seq > ?
		ORDER BY seq ASC
	`, threadID, afterSeq)
	if err != nil {
		return nil, err
	}
	return scanTurns(rows)
}

// Count returns the total number of turns in a thread
func (s *TurnStore) Count(threadID string) (int64, error) {
	var n int64
	err := s.db.QueryRow(`SELECT COUNT(*) FROM turns WHERE thread_id = ?`, threadID).Scan(&n)
	return n, err
}

func scanTurns(rows *sql.Rows) ([]models.Turn, error) {
	defer func() { _ = rows.Close() }()

	var turns []models.Turn
	for rows.Next() {
		var (
			turn     models.Turn
			role     string
			sqlQuery sql.NullString
			outcome  sql.NullString
		)
		err := rows.Scan(&turn.ThreadID, &turn.Seq, &role, &turn.Content,
			&sqlQuery, &outcome, &turn.CreatedAt)
		if err != nil {
			return nil, err
		}
		turn.Role = models.Role(role)
		turn.SQLQuery = sqlQuery.String
		turn.Outcome = outcome.String
		turns = append(turns, turn)
	}

	return turns, rows.Err()
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
