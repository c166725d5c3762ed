// ABOUTME: Deterministic session registry mapping database identity to threads
// ABOUTME: Same host/user/database triple always resolves to the same thread
package session

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"sqlpilot/internal/models"
	"sqlpilot/internal/storage"
)

// Registry maps (host, user, database) triples to conversation threads
// and owns session metadata writes.
type Registry struct {
	store *storage.Store
	log   zerolog.Logger
}

// NewRegistry creates a Registry backed by the given store
func NewRegistry(store *storage.Store, log zerolog.Logger) *Registry {
	return &Registry{store: store, log: log}
}

// Resolve computes the thread id for a host/user/database triple. Pure:
// the same triple always yields the same id, across calls and restarts,
// so every database keeps its own conversation history.
func Resolve(host, user, database string) string {
	raw := fmt.Sprintf("%s::%s::%s", host, user, database)
	sum := sha256.Sum256([]byte(raw))
	return "thread_" + hex.EncodeToString(sum[:])[:32]
}

// GetOrCreate resolves the thread id and upserts session metadata,
// touching last_active_at on repeat visits. A store failure is logged
// and the deterministic id is returned anyway so the caller can keep
// going without persistence.
func (r *Registry) GetOrCreate(host, user, database string) (string, error) {
	threadID := Resolve(host, user, database)

	err := r.store.UpsertSession(&models.Session{
		ThreadID:     threadID,
		Database:     database,
		Host:         host,
		User:         user,
		CreatedAt:    time.Now().UTC(),
		LastActiveAt: time.Now().UTC(),
	})
	if err != nil {
		r.log.Warn().Err(err).Str("thread_id", threadID).
			Msg("session upsert failed, continuing without persistence")
		return threadID, err
	}

	r.log.Debug().Str("thread_id", threadID).Str("database", database).
		Msg("session upserted")
	return threadID, nil
}

// Info returns stored metadata for a thread, or nil when none exists
func (r *Registry) Info(threadID string) (*models.Session, error) {
	return r.store.GetSession(threadID)
}

// List returns all known sessions, most recently active first
func (r *Registry) List() ([]models.Session, error) {
	return r.store.ListSessions()
}
