// ABOUTME: Tests for the execution audit store
// ABOUTME: Verifies append-only records and newest-first retrieval

package sqlite

import (
	"fmt"
	"testing"
	"time"

	"sqlpilot/internal/models"
)

func TestAuditStore_AppendGeneratesID(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	seedSession(t, db, "thread_abc")
	store := NewAuditStore(db)

	rec := &models.QueryAudit{
		ThreadID:    "thread_abc",
		SQL:         "SELECT 1",
		Success:     true,
		ExecutionMS: 3,
	}
	if err := store.Append(rec); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if rec.AuditID == "" {
		t.Error("Append() did not assign an audit id")
	}
	if rec.CreatedAt.IsZero() {
		t.Error("Append() did not set created_at")
	}
}

func TestAuditStore_RecentNewestFirst(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	seedSession(t, db, "thread_abc")
	store := NewAuditStore(db)

	base := time.Now().UTC().Add(-time.Minute)
	for i := 0; i < 5; i++ {
		rec := &models.QueryAudit{
			ThreadID:  "thread_abc",
			SQL:       fmt.Sprintf("SELECT %d", i),
			Success:   i%2 == 0,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := store.Append(rec); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	records, err := store.Recent("thread_abc", 3)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Recent(3) returned %d records, want 3", len(records))
	}
	if records[0].SQL != "SELECT 4" {
		t.Errorf("records[0].SQL = %q, want newest record first", records[0].SQL)
	}
	if records[2].SQL != "SELECT 2" {
		t.Errorf("records[2].SQL = %q, want SELECT 2", records[2].SQL)
	}
}

func TestAuditStore_FailureRecordKeepsError(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	seedSession(t, db, "thread_abc")
	store := NewAuditStore(db)

	rec := &models.QueryAudit{
		ThreadID:  "thread_abc",
		SQL:       "SELECT * FROM nowhere",
		Success:   false,
		ErrorText: "Table 'orders_db.nowhere' doesn't exist",
	}
	if err := store.Append(rec); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	records, err := store.Recent("thread_abc", 1)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Recent(1) returned %d records, want 1", len(records))
	}
	if records[0].Success {
		t.Error("Success = true, want false")
	}
	if records[0].ErrorText != "Table 'orders_db.nowhere' doesn't exist" {
		t.Errorf("ErrorText = %q", records[0].ErrorText)
	}
}
