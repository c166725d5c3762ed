// ABOUTME: Tests for session persistence
// ABOUTME: Covers upsert semantics, lookup, and listing with message counts

package sqlite

import (
	"testing"
	"time"

	"sqlpilot/internal/models"
)

func TestSessionStore_UpsertAndGet(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	store := NewSessionStore(db)
	sess := &models.Session{
		ThreadID: "thread_abc",
		Database: "orders_db",
		Host:     "db.internal",
		User:     "svc",
	}
	if err := store.Upsert(sess); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, err := store.Get("thread_abc")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil {
		t.Fatal("Get() = nil, want session")
	}
	if got.Database != "orders_db" || got.Host != "db.internal" || got.User != "svc" {
		t.Errorf("Get() = %+v, want original fields", got)
	}
	if got.CreatedAt.IsZero() || got.LastActiveAt.IsZero() {
		t.Error("timestamps not set on insert")
	}
}

func TestSessionStore_GetMissing(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	got, err := NewSessionStore(db).Get("thread_missing")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != nil {
		t.Errorf("Get() = %+v, want nil for missing session", got)
	}
}

func TestSessionStore_UpsertTouchesLastActive(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	store := NewSessionStore(db)
	sess := &models.Session{ThreadID: "thread_abc", Database: "orders_db", Host: "h", User: "u"}
	if err := store.Upsert(sess); err != nil {
		t.Fatalf("first Upsert() error = %v", err)
	}
	first, err := store.Get("thread_abc")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	// Re-activating must only move last_active_at, never created_at.
	if err := store.Upsert(sess); err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}
	second, err := store.Get("thread_abc")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("created_at changed on upsert: %v -> %v", first.CreatedAt, second.CreatedAt)
	}
	if !second.LastActiveAt.After(first.LastActiveAt) {
		t.Errorf("last_active_at did not advance: %v -> %v", first.LastActiveAt, second.LastActiveAt)
	}
}

func TestSessionStore_List(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	seedSession(t, db, "thread_one")
	appendTurns(t, db, "thread_one", 4)
	seedSession(t, db, "thread_two")

	sessions, err := NewSessionStore(db).List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("List() returned %d sessions, want 2", len(sessions))
	}

	counts := map[string]int64{}
	for _, s := range sessions {
		counts[s.ThreadID] = s.MessageCount
	}
	if counts["thread_one"] != 4 {
		t.Errorf("thread_one message count = %d, want 4", counts["thread_one"])
	}
	if counts["thread_two"] != 0 {
		t.Errorf("thread_two message count = %d, want 0", counts["thread_two"])
	}
}
