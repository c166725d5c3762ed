// ABOUTME: Storage facade over the SQLite per-table stores
// ABOUTME: All failures surface as ErrUnavailable so callers can degrade
package storage

import (
	"errors"
	"fmt"

	"sqlpilot/internal/models"
	"sqlpilot/internal/storage/sqlite"
)

// ErrUnavailable marks any durable-store failure. Callers must treat it
// as non-fatal and continue without persistence.
var ErrUnavailable = errors.New("store unavailable")

// Store is the durable conversation store: partitions, turns, summaries,
// the execution audit, and the schema snapshot cache.
type Store struct {
	db          *sqlite.DB
	sessions    *sqlite.SessionStore
	turns       *sqlite.TurnStore
	summaries   *sqlite.SummaryStore
	audit       *sqlite.AuditStore
	schemaCache *sqlite.SchemaCacheStore
}

// Open opens (or creates) the store at path. An empty path uses the
// XDG default location.
func Open(path string) (*Store, error) {
	if path == "" {
		path = sqlite.DefaultDBPath()
	}
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, unavailable(err)
	}
	return wrap(db), nil
}

// OpenInMemory creates an in-memory store (for testing)
func OpenInMemory() (*Store, error) {
	db, err := sqlite.OpenInMemory()
	if err != nil {
		return nil, unavailable(err)
	}
	return wrap(db), nil
}

func wrap(db *sqlite.DB) *Store {
	return &Store{
		db:          db,
		sessions:    sqlite.NewSessionStore(db),
		turns:       sqlite.NewTurnStore(db),
		summaries:   sqlite.NewSummaryStore(db),
		audit:       sqlite.NewAuditStore(db),
		schemaCache: sqlite.NewSchemaCacheStore(db),
	}
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the backing database path
func (s *Store) Path() string {
	return s.db.Path()
}

// ── Sessions ──────────────────────────────────────────────────────────

func (s *Store) UpsertSession(sess *models.Session) error {
	return unavailable(s.sessions.Upsert(sess))
}

func (s *Store) GetSession(threadID string) (*models.Session, error) {
	sess, err := s.sessions.Get(threadID)
	return sess, unavailable(err)
}

func (s *Store) ListSessions() ([]models.Session, error) {
	sessions, err := s.sessions.List()
	return sessions, unavailable(err)
}

// ── Turns ─────────────────────────────────────────────────────────────

func (s *Store) AppendTurn(turn *models.Turn) error {
	return unavailable(s.turns.Append(turn))
}

func (s *Store) RecentTurns(threadID string, n int) ([]models.Turn, error) {
	turns, err := s.turns.Recent(threadID, n)
	return turns, unavailable(err)
}

func (s *Store) TurnsAfter(threadID string, afterSeq int64) ([]models.Turn, error) {
	turns, err := s.turns.After(threadID, afterSeq)
	return turns, unavailable(err)
}

func (s *Store) CountTurns(threadID string) (int64, error) {
	n, err := s.turns.Count(threadID)
	return n, unavailable(err)
}

// ── Summaries ─────────────────────────────────────────────────────────

func (s *Store) GetSummary(threadID string) (*models.Summary, error) {
	sum, err := s.summaries.Get(threadID)
	return sum, unavailable(err)
}

func (s *Store) SaveSummary(sum *models.Summary) error {
	return unavailable(s.summaries.Save(sum))
}

// ── Execution audit ───────────────────────────────────────────────────

func (s *Store) AppendAudit(rec *models.QueryAudit) error {
	return unavailable(s.audit.Append(rec))
}

func (s *Store) RecentAudits(threadID string, n int) ([]models.QueryAudit, error) {
	records, err := s.audit.Recent(threadID, n)
	return records, unavailable(err)
}

// ── Schema cache ──────────────────────────────────────────────────────

func (s *Store) SaveSchemaCache(threadID, dbName, schemaText string) error {
	return unavailable(s.schemaCache.Save(threadID, dbName, schemaText))
}

func (s *Store) LoadSchemaCache(threadID string) (string, error) {
	text, err := s.schemaCache.Load(threadID)
	return text, unavailable(err)
}

func (s *Store) DeleteSchemaCache(threadID string) error {
	return unavailable(s.schemaCache.Delete(threadID))
}

func unavailable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
