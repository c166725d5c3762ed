// ABOUTME: Tests for rolling summary persistence
// ABOUTME: Verifies upsert behavior and the monotonic high-water guard

package sqlite

import (
	"testing"

	"sqlpilot/internal/models"
)

func TestSummaryStore_GetMissing(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	seedSession(t, db, "thread_abc")

	sum, err := NewSummaryStore(db).Get("thread_abc")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if sum != nil {
		t.Errorf("Get() = %+v, want nil before first fold", sum)
	}
}

func TestSummaryStore_SaveAndGet(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	seedSession(t, db, "thread_abc")
	store := NewSummaryStore(db)

	err = store.Save(&models.Summary{
		ThreadID:          "thread_abc",
		Text:              "User explored the orders table.",
		SummarizedUpToSeq: 45,
		TurnsFolded:       45,
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	sum, err := store.Get("thread_abc")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if sum == nil {
		t.Fatal("Get() = nil after Save")
	}
	if sum.Text != "User explored the orders table." {
		t.Errorf("Text = %q", sum.Text)
	}
	if sum.SummarizedUpToSeq != 45 {
		t.Errorf("SummarizedUpToSeq = %d, want 45", sum.SummarizedUpToSeq)
	}
	if sum.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not set")
	}
}

func TestSummaryStore_HighWaterNeverMovesBack(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	seedSession(t, db, "thread_abc")
	store := NewSummaryStore(db)

	if err := store.Save(&models.Summary{ThreadID: "thread_abc", Text: "newer", SummarizedUpToSeq: 80, TurnsFolded: 80}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	// Stale write from a lost race must be a no-op.
	if err := store.Save(&models.Summary{ThreadID: "thread_abc", Text: "stale", SummarizedUpToSeq: 45, TurnsFolded: 45}); err != nil {
		t.Fatalf("stale Save() error = %v", err)
	}

	sum, err := store.Get("thread_abc")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if sum.SummarizedUpToSeq != 80 {
		t.Errorf("SummarizedUpToSeq = %d, want 80 after stale write", sum.SummarizedUpToSeq)
	}
	if sum.Text != "newer" {
		t.Errorf("Text = %q, want %q", sum.Text, "newer")
	}
}

func TestSummaryStore_EqualHighWaterUpdatesText(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	seedSession(t, db, "thread_abc")
	store := NewSummaryStore(db)

	if err := store.Save(&models.Summary{ThreadID: "thread_abc", Text: "first", SummarizedUpToSeq: 45, TurnsFolded: 45}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Save(&models.Summary{ThreadID: "thread_abc", Text: "revised", SummarizedUpToSeq: 45, TurnsFolded: 45}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	sum, err := store.Get("thread_abc")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if sum.Text != "revised" {
		t.Errorf("Text = %q, want %q", sum.Text, "revised")
	}
}
