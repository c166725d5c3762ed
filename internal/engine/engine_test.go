// ABOUTME: Tests for statement classification and connection error detection
// ABOUTME: Covers the pure helpers that need no live database

package engine

import (
	"errors"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		query string
		want  StatementKind
	}{
		{"SELECT * FROM orders", KindSelect},
		{"  select id from users", KindSelect},
		{"WITH t AS (SELECT 1) SELECT * FROM t", KindSelect},
		{"INSERT INTO orders VALUES (1)", KindInsert},
		{"REPLACE INTO orders VALUES (1)", KindInsert},
		{"UPDATE orders SET total = 0", KindUpdate},
		{"DELETE FROM orders WHERE id = 1", KindDelete},
		{"CREATE TABLE t (id INT)", KindDDL},
		{"DROP TABLE t", KindDDL},
		{"TRUNCATE TABLE t", KindDDL},
		{"ALTER TABLE t ADD c INT", KindDDL},
		{"SHOW TABLES", KindShow},
		{"DESCRIBE orders", KindShow},
		{"EXPLAIN SELECT 1", KindShow},
		{"USE orders_db", KindUse},
		{"", KindUnknown},
		{"GRANT ALL ON *.* TO x", KindUnknown},
	}

	for _, tt := range tests {
		if got := Classify(tt.query); got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}

func TestUseTarget(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"USE orders_db", "orders_db"},
		{"use `orders_db`;", "orders_db"},
		{"USE", ""},
	}
	for _, tt := range tests {
		if got := useTarget(tt.query); got != tt.want {
			t.Errorf("useTarget(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}

func TestIsConnectionError(t *testing.T) {
	if !isConnectionError(errors.New("invalid connection")) {
		t.Error("invalid connection not detected")
	}
	if !isConnectionError(errors.New("dial tcp: connection refused")) {
		t.Error("connection refused not detected")
	}
	if isConnectionError(errors.New("Error 1146: Table 'db.t' doesn't exist")) {
		t.Error("SQL error misdetected as connection error")
	}
	if isConnectionError(nil) {
		t.Error("nil misdetected")
	}
}
