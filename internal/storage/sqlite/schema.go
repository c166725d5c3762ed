// ABOUTME: SQLite schema for conversation persistence
// ABOUTME: Sessions, turns, rolling summaries, execution audit, schema cache
package sqlite

// Schema contains all SQL statements for database initialization
const Schema = `
-- Conversation partitions, one per (host, user, database) triple.
-- thread_id is a deterministic hash, so rows survive restarts unchanged.
CREATE TABLE IF NOT EXISTS sessions (
    thread_id TEXT PRIMARY KEY,
    db_name TEXT NOT NULL,
    db_host TEXT NOT NULL,
    db_user TEXT NOT NULL,
    created_at DATETIME NOT NULL,
    last_active_at DATETIME NOT NULL
);

-- Turns are immutable; seq is allocated at insert time and strictly
-- increases within a thread.
CREATE TABLE IF NOT EXISTS turns (
    thread_id TEXT NOT NULL REFERENCES sessions(thread_id) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    sql_query TEXT,
    outcome TEXT,
    created_at DATETIME NOT NULL,
    PRIMARY KEY (thread_id, seq)
);

-- At most one rolling summary per thread.
CREATE TABLE IF NOT EXISTS summaries (
    thread_id TEXT PRIMARY KEY REFERENCES sessions(thread_id) ON DELETE CASCADE,
    summary_text TEXT NOT NULL,
    summarized_up_to_seq INTEGER NOT NULL,
    turns_folded INTEGER NOT NULL,
    updated_at DATETIME NOT NULL
);

-- Append-only record of every engine execution.
CREATE TABLE IF NOT EXISTS query_audit (
    audit_id TEXT PRIMARY KEY,
    thread_id TEXT NOT NULL,
    sql_text TEXT NOT NULL,
    success INTEGER NOT NULL,
    execution_ms INTEGER NOT NULL DEFAULT 0,
    rows_affected INTEGER NOT NULL DEFAULT 0,
    error_text TEXT,
    created_at DATETIME NOT NULL
);

-- Last known schema snapshot per thread, used when the engine is down.
CREATE TABLE IF NOT EXISTS schema_cache (
    thread_id TEXT PRIMARY KEY,
    db_name TEXT NOT NULL,
    schema_text TEXT NOT NULL,
    updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_active ON sessions(last_active_at);
CREATE INDEX IF NOT EXISTS idx_audit_thread ON query_audit(thread_id, created_at);
`

// SchemaVersion is the current schema version for migrations
const SchemaVersion = 1
