// ABOUTME: Self-healing execution loop for generated SQL
// ABOUTME: On failure, asks the oracle for a correction and retries, bounded
package heal

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"sqlpilot/internal/engine"
	"sqlpilot/internal/extract"
	"sqlpilot/internal/llm"
)

// DefaultMaxAttempts bounds heal retries; total engine calls are
// DefaultMaxAttempts + 1 including the initial execution
const DefaultMaxAttempts = 3

const healerPrompt = `Your ONLY job is to fix broken SQL.

Database: %s
Schema:
%s

The following SQL query failed with a MySQL error:

FAILED SQL:
` + "```sql\n%s\n```" + `

MYSQL ERROR:
%s

COMMON ERROR TYPES AND FIXES:
- "Unknown column 'X'": X is misspelled or missing. Find the correct column in the schema.
- "Table 'X' doesn't exist": wrong table name. Use the correct table from the schema.
- "You have an error in your SQL syntax": fix the syntax near the error position.
- "Column 'X' in field list is ambiguous": prefix the column with its table name.

RULES:
- Output ONLY the corrected SQL in a ` + "```sql block" + `
- Do NOT repeat the broken SQL
- Keep the query logic identical, only fix the error

CORRECTED SQL:`

// Attempt records one healing retry. Success is marked retroactively
// when the corrected query goes on to execute cleanly.
type Attempt struct {
	Index        int
	FailedSQL    string
	ErrorText    string
	CorrectedSQL string
	Success      bool
	LatencyMS    int64
}

// Executor is the engine surface the loop needs
type Executor interface {
	Execute(ctx context.Context, query string) (*engine.Result, error)
}

// Loop executes queries with bounded self-healing retries
type Loop struct {
	engine      Executor
	oracle      llm.Client
	maxAttempts int
	log         zerolog.Logger
}

// NewLoop creates a healing loop. maxAttempts <= 0 selects
// DefaultMaxAttempts.
func NewLoop(eng Executor, oracle llm.Client, maxAttempts int, log zerolog.Logger) *Loop {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Loop{engine: eng, oracle: oracle, maxAttempts: maxAttempts, log: log}
}

// Execute runs the query, healing failures up to maxAttempts times.
// Strictly sequential: each correction depends on the previous
// attempt's literal error text. Stops early when the oracle returns
// nothing or repeats the failing query verbatim (after trimming) -
// that no-op suggestion is not logged as an attempt.
func (l *Loop) Execute(ctx context.Context, sql, database, schema string) (*engine.Result, []Attempt, error) {
	var healLog []Attempt
	currentSQL := sql

	var result *engine.Result
	for attempt := 0; attempt <= l.maxAttempts; attempt++ {
		var err error
		result, err = l.engine.Execute(ctx, currentSQL)
		if err != nil {
			return nil, healLog, err
		}

		if result.Success {
			if attempt > 0 {
				healLog[len(healLog)-1].Success = true
				healLog[len(healLog)-1].LatencyMS = result.LatencyMS
				l.log.Info().Int("attempt", attempt).Msg("healing succeeded")
			}
			return result, healLog, nil
		}

		errorText := result.ErrorText
		if errorText == "" {
			errorText = "unknown error"
		}
		l.log.Warn().Int("attempt", attempt).Str("error", errorText).Msg("query failed")

		if attempt == l.maxAttempts {
			l.log.Error().Int("max_attempts", l.maxAttempts).Msg("healing exhausted")
			return result, healLog, nil
		}

		corrected := l.correct(ctx, currentSQL, errorText, database, schema)
		if corrected == "" || strings.TrimSpace(corrected) == strings.TrimSpace(currentSQL) {
			// The oracle could not help. Don't loop on a no-op
			// suggestion and don't log it as an attempt.
			l.log.Warn().Msg("healer returned same or empty SQL, stopping")
			return result, healLog, nil
		}

		healLog = append(healLog, Attempt{
			Index:        attempt + 1,
			FailedSQL:    currentSQL,
			ErrorText:    errorText,
			CorrectedSQL: corrected,
			Success:      false,
		})
		currentSQL = corrected
	}

	return result, healLog, nil
}

// correct asks the oracle for a fixed query. Any failure yields "",
// which the loop treats as "the oracle could not help".
func (l *Loop) correct(ctx context.Context, failedSQL, errorText, database, schema string) string {
	if database == "" {
		database = "unknown"
	}
	resp, err := l.oracle.Complete(ctx, llm.Request{
		User: fmt.Sprintf(healerPrompt, database, schema, failedSQL, errorText),
	})
	if err != nil {
		l.log.Error().Err(err).Msg("healer oracle call failed")
		return ""
	}
	return extract.SQL(resp)
}

// FormatReport renders heal attempts for the chat panel
func FormatReport(attempts []Attempt) string {
	if len(attempts) == 0 {
		return ""
	}
	lines := []string{"Self-healing report:"}
	for _, a := range attempts {
		status := "failed"
		if a.Success {
			status = "fixed"
		}
		lines = append(lines, fmt.Sprintf("  attempt %d (%s): %s -> %s",
			a.Index, status, truncate(a.ErrorText, 80), truncate(a.CorrectedSQL, 80)))
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
