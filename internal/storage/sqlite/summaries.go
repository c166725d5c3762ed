// ABOUTME: Rolling summary storage for SQLite
// ABOUTME: Upsert guards against summarized_up_to_seq ever moving backwards
package sqlite

import (
	"database/sql"
	"time"

	"sqlpilot/internal/models"
)

// SummaryStore handles rolling summary persistence
type SummaryStore struct {
	db *DB
}

// NewSummaryStore creates a new SummaryStore
func NewSummaryStore(db *DB) *SummaryStore {
	return &SummaryStore{db: db}
}

// Get retrieves the summary for a thread, or nil if none exists yet
func (s *SummaryStore) Get(threadID string) (*models.Summary, error) {
	var sum models.Summary
	err := s.db.QueryRow(`
		SELECT thread_id, summary_text, summarized_up_to_seq, turns_folded, updated_at
		FROM summaries
		WHERE thread_id = ?
	`, threadID).Scan(&sum.ThreadID, &sum.Text, &sum.SummarizedUpToSeq,
		&sum.TurnsFolded, &sum.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sum, nil
}

// Save upserts the summary. The WHERE clause on the conflict update keeps
// summarized_up_to_seq monotonically non-decreasing even if two folds race.
func (s *SummaryStore) Save(sum *models.Summary) error {
	sum.UpdatedAt = time.Now().UTC()
	_, err := s.db.Exec(`
		INSERT INTO summaries (thread_id, summary_text, summarized_up_to_seq, turns_folded, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(thread_id) DO UPDATE SET
			summary_text = excluded.summary_text,
			summarized_up_to_seq = excluded.summarized_up_to_seq,
			turns_folded = excluded.turns_folded,
			updated_at = excluded.updated_at
		WHERE excluded.summarized_up_to_seq >= summaries.summarized_up_to_seq
	`, sum.ThreadID, sum.Text, sum.SummarizedUpToSeq, sum.TurnsFolded, sum.UpdatedAt)
	return err
}
