// ABOUTME: Tests for SQL extraction and response cleaning
// ABOUTME: Covers every fallback stage and the destructive verb set

package extract

import (
	"strings"
	"testing"
)

func TestSQL_TaggedBlock(t *testing.T) {
	response := "Here is the query:\n```sql\nSELECT * FROM orders WHERE cust_id = 7\n```\nLet me know if you need more."
	got := SQL(response)
	if got != "SELECT * FROM orders WHERE cust_id = 7" {
		t.Errorf("SQL() = %q", got)
	}
}

func TestSQL_TaggedBlockWinsOverLooseLine(t *testing.T) {
	response := "SELECT wrong FROM here\n```sql\nSELECT right FROM orders\n```"
	got := SQL(response)
	if got != "SELECT right FROM orders" {
		t.Errorf("SQL() = %q, tagged block must win", got)
	}
}

func TestSQL_UntaggedFence(t *testing.T) {
	response := "Try this:\n```\nSELECT name FROM users LIMIT 5\n```"
	got := SQL(response)
	if got != "SELECT name FROM users LIMIT 5" {
		t.Errorf("SQL() = %q", got)
	}
}

func TestSQL_UntaggedFenceNonSQLIgnored(t *testing.T) {
	response := "```\njust some prose in a fence\n```"
	if got := SQL(response); got != "" {
		t.Errorf("SQL() = %q, want empty for non-SQL fence", got)
	}
}

func TestSQL_VerbParagraph(t *testing.T) {
	response := "You can run\n\nSELECT id, total\n  FROM orders\n\nwhich lists everything."
	got := SQL(response)
	if got != "SELECT id, total\n  FROM orders;" {
		t.Errorf("SQL() = %q", got)
	}
}

func TestSQL_VerbLine(t *testing.T) {
	// The paragraph stage bails out on the bare leading verb, so the
	// line scan has to find the real statement.
	response := "SELECT\nUSE orders_db"
	got := SQL(response)
	if got != "USE orders_db;" {
		t.Errorf("SQL() = %q", got)
	}
}

func TestSQL_NoQuery(t *testing.T) {
	if got := SQL("The orders table holds one row per purchase."); got != "" {
		t.Errorf("SQL() = %q, want empty", got)
	}
}

func TestSQL_SingleWordRejected(t *testing.T) {
	// A bare verb is never a usable query.
	if got := SQL("SELECT"); got != "" {
		t.Errorf("SQL() = %q, want empty for bare verb", got)
	}
}

func TestSQL_StripsThinkBlocks(t *testing.T) {
	response := "<think>\nSELECT wrong FROM reasoning\n</think>\n```sql\nSELECT right FROM orders\n```"
	got := SQL(response)
	if got != "SELECT right FROM orders" {
		t.Errorf("SQL() = %q, think block leaked into extraction", got)
	}
}

func TestCleanResponseText(t *testing.T) {
	response := "<think>internal reasoning</think>Here you go:\n```sql\nSELECT 1\n```\n\n\n\nAnything else?"
	got := CleanResponseText(response)
	if strings.Contains(got, "SELECT") {
		t.Errorf("CleanResponseText() = %q, query not stripped", got)
	}
	if strings.Contains(got, "reasoning") {
		t.Errorf("CleanResponseText() = %q, think block not stripped", got)
	}
	if strings.Contains(got, "\n\n\n") {
		t.Errorf("CleanResponseText() = %q, blank runs not collapsed", got)
	}
	if !strings.Contains(got, "Here you go:") || !strings.Contains(got, "Anything else?") {
		t.Errorf("CleanResponseText() = %q, prose lost", got)
	}
}

func TestDestructive(t *testing.T) {
	tests := []struct {
		sql  string
		want bool
	}{
		{"DELETE FROM orders", true},
		{"drop table orders", true},
		{"TRUNCATE TABLE logs", true},
		{"UPDATE users SET active = 0", true},
		{"SELECT * FROM orders", false},
		{"INSERT INTO orders VALUES (1)", false},
		{"SHOW TABLES", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := Destructive(tt.sql); got != tt.want {
			t.Errorf("Destructive(%q) = %v, want %v", tt.sql, got, tt.want)
		}
	}
}
