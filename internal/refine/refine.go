// ABOUTME: Query refinement pipeline: performance rewrite then safety validation
// ABOUTME: Each stage is one oracle call; failures degrade to the input query
package refine

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"sqlpilot/internal/extract"
	"sqlpilot/internal/llm"
)

// Risk classifies how dangerous the final query is to execute
type Risk string

const (
	RiskLow    Risk = "LOW"
	RiskMedium Risk = "MEDIUM"
	RiskHigh   Risk = "HIGH"
)

// Report is the immutable outcome of one refinement run
type Report struct {
	OriginalSQL    string
	RewrittenSQL   string
	FinalSQL       string
	RewriteNotes   string
	ValidatorNotes string
	Risk           Risk
	WasModified    bool
}

const rewritePrompt = `You are a SQL performance reviewer.

Database: %s
Schema:
%s

You receive a working SQL query and must optimize it for performance.

ORIGINAL SQL:
` + "```sql\n%s\n```" + `

Optimize for performance:
- Add WHERE clauses to reduce data scan if beneficial
- Use indexed columns in WHERE/ORDER BY when the schema shows indexes
- Suggest LIMIT for very large tables
- Use EXISTS instead of IN for subqueries where applicable
- Prefer JOINs over correlated subqueries

RULES:
- If the query is already optimal, output it UNCHANGED
- Do NOT change the query's intent or result set
- Output the (possibly optimized) SQL in a ` + "```sql block" + `
- After the SQL block, write "REWRITE_NOTES:" then one line of what changed (or "No changes needed")`

const validatePrompt = `You are a SQL safety validator.

Database: %s
Schema:
%s

You receive a SQL query and must validate it for safety and correctness.

SQL TO VALIDATE:
` + "```sql\n%s\n```" + `

Check:
1. Dangerous operations without a WHERE clause (DELETE/UPDATE/DROP without WHERE)
2. Column and table names exist in the schema
3. SQL syntax is valid MySQL 8.x
4. Potential data loss operations

RISK LEVELS:
- LOW    safe SELECT/SHOW/DESCRIBE queries
- MEDIUM INSERT/UPDATE with WHERE clause, CREATE TABLE
- HIGH   DELETE/UPDATE without WHERE, DROP TABLE, TRUNCATE

OUTPUT FORMAT (follow exactly):
` + "```sql\n<the validated SQL - unchanged if correct, or corrected if a small issue was found>\n```" + `
VALIDATOR_NOTES: <one line: what you checked and confirmed or changed>
RISK_LEVEL: <LOW | MEDIUM | HIGH>`

// Pipeline runs the ordered refinement stages against the oracle
type Pipeline struct {
	oracle llm.Client
	log    zerolog.Logger
}

// NewPipeline creates a refinement pipeline
func NewPipeline(oracle llm.Client, log zerolog.Logger) *Pipeline {
	return &Pipeline{oracle: oracle, log: log}
}

// Run refines a candidate query: stage one rewrites for performance,
// stage two validates for safety and assigns a risk level. A stage that
// emits no query block passes its input through unchanged. An oracle
// failure aborts the run; the caller falls back to the original query.
func (p *Pipeline) Run(ctx context.Context, database, schema, originalSQL string) (*Report, error) {
	rewriteResp, err := p.oracle.Complete(ctx, llm.Request{
		User: fmt.Sprintf(rewritePrompt, database, schema, originalSQL),
	})
	if err != nil {
		return nil, fmt.Errorf("rewrite stage: %w", err)
	}

	rewritten := extract.SQL(rewriteResp)
	if rewritten == "" {
		rewritten = originalSQL
	}
	rewriteNotes := taggedLine(rewriteResp, "REWRITE_NOTES")
	if rewriteNotes == "" {
		rewriteNotes = "No changes needed"
	}

	validateResp, err := p.oracle.Complete(ctx, llm.Request{
		User: fmt.Sprintf(validatePrompt, database, schema, rewritten),
	})
	if err != nil {
		return nil, fmt.Errorf("validate stage: %w", err)
	}

	finalSQL := extract.SQL(validateResp)
	if finalSQL == "" {
		finalSQL = rewritten
	}
	validatorNotes := taggedLine(validateResp, "VALIDATOR_NOTES")
	if validatorNotes == "" {
		validatorNotes = "Validated, no issues found"
	}

	risk := parseRisk(taggedLine(validateResp, "RISK_LEVEL"), finalSQL)

	report := &Report{
		OriginalSQL:    originalSQL,
		RewrittenSQL:   rewritten,
		FinalSQL:       finalSQL,
		RewriteNotes:   rewriteNotes,
		ValidatorNotes: validatorNotes,
		Risk:           risk,
		WasModified:    wasModified(originalSQL, finalSQL),
	}

	p.log.Info().Bool("modified", report.WasModified).Str("risk", string(report.Risk)).
		Msg("refinement complete")
	return report, nil
}

// taggedLine extracts the value of a "TAG: value" line from a response
func taggedLine(text, tag string) string {
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(tag) + `\s*:\s*(.+)`)
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// parseRisk normalizes the oracle's risk tag, falling back to a
// deterministic verb-based classification whenever the tag is missing
// or not one of the three recognized levels.
func parseRisk(tag, finalSQL string) Risk {
	switch Risk(strings.ToUpper(strings.TrimSpace(tag))) {
	case RiskLow:
		return RiskLow
	case RiskMedium:
		return RiskMedium
	case RiskHigh:
		return RiskHigh
	}
	return InferRisk(finalSQL)
}

// InferRisk classifies risk purely from the leading verb
func InferRisk(sql string) Risk {
	fields := strings.Fields(strings.TrimSpace(sql))
	if len(fields) == 0 {
		return RiskLow
	}
	switch strings.ToUpper(fields[0]) {
	case "DELETE", "DROP", "TRUNCATE":
		return RiskHigh
	case "UPDATE", "INSERT", "ALTER", "CREATE":
		return RiskMedium
	default:
		return RiskLow
	}
}

var whitespace = regexp.MustCompile(`\s+`)

// wasModified compares queries case-insensitively with whitespace
// normalized, so formatting-only rewrites do not count as changes.
func wasModified(original, final string) bool {
	norm := func(s string) string {
		return whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
	}
	return norm(original) != norm(final)
}
