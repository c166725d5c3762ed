// ABOUTME: Tests for the self-healing execution loop
// ABOUTME: Covers bounded retries, the no-op early stop, and success marking

package heal

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"sqlpilot/internal/engine"
	"sqlpilot/internal/llm"
)

// fakeEngine fails queries listed in failures and succeeds otherwise
type fakeEngine struct {
	failures map[string]string
	calls    []string
}

func (f *fakeEngine) Execute(_ context.Context, query string) (*engine.Result, error) {
	f.calls = append(f.calls, query)
	if errText, ok := f.failures[query]; ok {
		return &engine.Result{Success: false, ErrorText: errText, Kind: engine.Classify(query)}, nil
	}
	return &engine.Result{Success: true, Kind: engine.Classify(query), LatencyMS: 5}, nil
}

// fakeHealer returns corrections in order, wrapped in a tagged block
type fakeHealer struct {
	corrections []string
	calls       int
}

func (f *fakeHealer) Complete(_ context.Context, _ llm.Request) (string, error) {
	if f.calls >= len(f.corrections) {
		return "", llm.ErrUnavailable
	}
	c := f.corrections[f.calls]
	f.calls++
	return fmt.Sprintf("Fixed it.\n```sql\n%s\n```", c), nil
}

func TestExecute_SuccessFirstTry(t *testing.T) {
	eng := &fakeEngine{}
	oracle := &fakeHealer{}
	loop := NewLoop(eng, oracle, 3, zerolog.Nop())

	result, healLog, err := loop.Execute(context.Background(), "SELECT 1", "orders_db", "")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !result.Success {
		t.Error("Success = false")
	}
	if len(healLog) != 0 {
		t.Errorf("heal log length = %d, want 0", len(healLog))
	}
	if oracle.calls != 0 {
		t.Errorf("oracle called %d times, want 0", oracle.calls)
	}
}

func TestExecute_HealsAfterTwoCorrections(t *testing.T) {
	// Scenario: fails twice with different corrections, succeeds on the
	// third engine call.
	original := "SELECT * FROM orders WHERE cust_id = 7"
	fix1 := "SELECT * FROM orders WHERE customer_id = 7"
	fix2 := "SELECT * FROM `orders` WHERE customer_id = 7"

	eng := &fakeEngine{failures: map[string]string{
		original: "Unknown column 'cust_id'",
		fix1:     "You have an error in your SQL syntax",
	}}
	oracle := &fakeHealer{corrections: []string{fix1, fix2}}
	loop := NewLoop(eng, oracle, 3, zerolog.Nop())

	result, healLog, err := loop.Execute(context.Background(), original, "orders_db", "")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !result.Success {
		t.Fatalf("Success = false, error = %q", result.ErrorText)
	}
	if len(eng.calls) != 3 {
		t.Errorf("engine calls = %d, want 3", len(eng.calls))
	}
	if len(healLog) != 2 {
		t.Fatalf("heal log length = %d, want 2", len(healLog))
	}
	// The attempt that directly preceded success is marked after the
	// fact; earlier attempts stay failed.
	if healLog[0].Success {
		t.Error("attempt 1 marked successful, want false")
	}
	if !healLog[1].Success {
		t.Error("attempt 2 not marked successful")
	}
	if healLog[0].Index != 1 || healLog[1].Index != 2 {
		t.Errorf("attempt indexes = %d, %d, want 1, 2", healLog[0].Index, healLog[1].Index)
	}
	if healLog[1].CorrectedSQL != fix2 {
		t.Errorf("attempt 2 CorrectedSQL = %q", healLog[1].CorrectedSQL)
	}
}

func TestExecute_NoOpCorrectionStopsEarly(t *testing.T) {
	// Scenario: fails once; oracle returns the exact same query.
	original := "SELECT * FROM nowhere"
	eng := &fakeEngine{failures: map[string]string{
		original: "Table 'orders_db.nowhere' doesn't exist",
	}}
	oracle := &fakeHealer{corrections: []string{original}}
	loop := NewLoop(eng, oracle, 3, zerolog.Nop())

	result, healLog, err := loop.Execute(context.Background(), original, "orders_db", "")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Success {
		t.Error("Success = true, want failure")
	}
	if len(eng.calls) != 1 {
		t.Errorf("engine calls = %d, want 1", len(eng.calls))
	}
	if len(healLog) != 0 {
		t.Errorf("heal log length = %d, want 0 (no-op not logged)", len(healLog))
	}
}

func TestExecute_OracleFailureStopsEarly(t *testing.T) {
	original := "SELECT * FROM nowhere"
	eng := &fakeEngine{failures: map[string]string{
		original: "Table 'orders_db.nowhere' doesn't exist",
	}}
	// Oracle fails on every call.
	oracle := &fakeHealer{}
	loop := NewLoop(eng, oracle, 3, zerolog.Nop())

	result, healLog, err := loop.Execute(context.Background(), original, "orders_db", "")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Success {
		t.Error("Success = true, want failure")
	}
	if len(eng.calls) != 1 || len(healLog) != 0 {
		t.Errorf("engine calls = %d, heal log = %d, want 1 and 0", len(eng.calls), len(healLog))
	}
}

func TestExecute_Exhaustion(t *testing.T) {
	// Scenario: fails on every attempt with 3 distinct corrections.
	original := "SELECT a FROM t"
	fixes := []string{"SELECT b FROM t", "SELECT c FROM t", "SELECT d FROM t"}

	failures := map[string]string{original: "Unknown column 'a'"}
	for i, fix := range fixes {
		failures[fix] = fmt.Sprintf("Unknown column %d", i)
	}

	eng := &fakeEngine{failures: failures}
	oracle := &fakeHealer{corrections: fixes}
	loop := NewLoop(eng, oracle, 3, zerolog.Nop())

	result, healLog, err := loop.Execute(context.Background(), original, "orders_db", "")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Success {
		t.Error("Success = true, want exhausted failure")
	}
	if len(eng.calls) != 4 {
		t.Errorf("engine calls = %d, want 4 (max attempts + 1)", len(eng.calls))
	}
	if len(healLog) != 3 {
		t.Fatalf("heal log length = %d, want 3", len(healLog))
	}
	for i, a := range healLog {
		if a.Success {
			t.Errorf("attempt %d marked successful, want all failed", i+1)
		}
	}
	// The returned result is the last failing one.
	if result.ErrorText == "" {
		t.Error("final result has no error text")
	}
}

func TestFormatReport(t *testing.T) {
	if got := FormatReport(nil); got != "" {
		t.Errorf("FormatReport(nil) = %q, want empty", got)
	}

	attempts := []Attempt{
		{Index: 1, ErrorText: "Unknown column 'x'", CorrectedSQL: "SELECT y FROM t", Success: true},
	}
	got := FormatReport(attempts)
	if got == "" {
		t.Fatal("FormatReport() empty for non-empty log")
	}
	for _, want := range []string{"attempt 1", "fixed", "Unknown column 'x'"} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatReport() = %q, missing %q", got, want)
		}
	}
}
