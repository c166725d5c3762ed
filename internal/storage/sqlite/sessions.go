// ABOUTME: Session storage operations for SQLite
// ABOUTME: Upsert keeps thread identity stable and only touches last_active_at
package sqlite

import (
	"database/sql"
	"time"

	"sqlpilot/internal/models"
)

// SessionStore handles partition metadata persistence
type SessionStore struct {
	db *DB
}

// NewSessionStore creates a new SessionStore
func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

// Upsert inserts the session or, if it already exists, bumps last_active_at.
// Safe to call concurrently for the same thread: last writer wins on the
// timestamp, identity fields are never overwritten.
func (s *SessionStore) Upsert(sess *models.Session) error {
	now := time.Now().UTC()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	sess.LastActiveAt = now

	_, err := s.db.Exec(`
		INSERT INTO sessions (thread_id, db_name, db_host, db_user, created_at, last_active_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(thread_id) DO UPDATE SET
			last_active_at = excluded.last_active_at
	`, sess.ThreadID, sess.Database, sess.Host, sess.User, sess.CreatedAt, sess.LastActiveAt)

	return err
}

// Get retrieves a session by thread id, or nil if it does not exist
func (s *SessionStore) Get(threadID string) (*models.Session, error) {
	var sess models.Session
	err := s.db.QueryRow(`
		SELECT thread_id, db_name, db_host, db_user, created_at, last_active_at
		FROM sessions
		WHERE thread_id = ?
	`, threadID).Scan(&sess.ThreadID, &sess.Database, &sess.Host, &sess.User,
		&sess.CreatedAt, &sess.LastActiveAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// List returns all sessions with their turn counts, most recent first
func (s *SessionStore) List() ([]models.Session, error) {
	rows, err := s.db.Query(`
		SELECT s.thread_id, s.db_name, s.db_host, s.db_user, s.created_at, s.last_active_at,
		       COUNT(t.seq)
		FROM sessions s
		LEFT JOIN turns t ON t.thread_id = s.thread_id
		GROUP BY s.thread_id
		ORDER BY s.last_active_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var sessions []models.Session
	for rows.Next() {
		var sess models.Session
		err := rows.Scan(&sess.ThreadID, &sess.Database, &sess.Host, &sess.User,
			&sess.CreatedAt, &sess.LastActiveAt, &sess.MessageCount)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}

	return sessions, rows.Err()
}
