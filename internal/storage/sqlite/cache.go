// ABOUTME: Schema snapshot cache storage for SQLite
// ABOUTME: Keeps the last formatted schema per thread for engine outages
package sqlite

import (
	"database/sql"
	"time"
)

// SchemaCacheStore handles schema snapshot persistence
type SchemaCacheStore struct {
	db *DB
}

// NewSchemaCacheStore creates a new SchemaCacheStore
func NewSchemaCacheStore(db *DB) *SchemaCacheStore {
	return &SchemaCacheStore{db: db}
}

// Save upserts the formatted schema snapshot for a thread
func (s *SchemaCacheStore) Save(threadID, dbName, schemaText string) error {
	_, err := s.db.Exec(`
		INSERT INTO schema_cache (thread_id, db_name, schema_text, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(thread_id) DO UPDATE SET
			db_name = excluded.db_name,
			schema_text = excluded.schema_text,
			updated_at = excluded.updated_at
	`, threadID, dbName, schemaText, time.Now().UTC())
	return err
}

// Load returns the cached schema text for a thread, or "" if none exists
func (s *SchemaCacheStore) Load(threadID string) (string, error) {
	var text string
	err := s.db.QueryRow(`
		SELECT schema_text FROM schema_cache WHERE thread_id = ?
	`, threadID).Scan(&text)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return text, nil
}

// Delete drops the cached schema for a thread (forces a live refresh)
func (s *SchemaCacheStore) Delete(threadID string) error {
	_, err := s.db.Exec(`DELETE FROM schema_cache WHERE thread_id = ?`, threadID)
	return err
}
