// ABOUTME: SQL extraction from free-form oracle responses
// ABOUTME: Ordered extractor chain with graduated fallbacks, first success wins
package extract

import (
	"regexp"
	"strings"
)

const sqlKeywords = `SELECT|INSERT|UPDATE|DELETE|CREATE|DROP|ALTER|SHOW|` +
	`DESCRIBE|DESC|USE|TRUNCATE|CALL|GRANT|REVOKE|EXPLAIN`

var (
	thinkClosed = regexp.MustCompile(`(?i)<think>[\s\S]*?</think>`)
	thinkOpen   = regexp.MustCompile(`(?i)<think>[\s\S]*$`)
	thinkTag    = regexp.MustCompile(`(?i)</?think>`)

	taggedBlock   = regexp.MustCompile("(?is)```sql\\s*(.*?)\\s*```")
	fencedBlock   = regexp.MustCompile("(?s)```\\s*(.*?)\\s*```")
	verbPrefix    = regexp.MustCompile(`(?i)^(` + sqlKeywords + `)\b`)
	verbParagraph = regexp.MustCompile(`(?is)(?:^|\n)((?:` + sqlKeywords + `)\b.*?)(?:\n\n|\n[A-Z*]|$)`)

	blankRuns = regexp.MustCompile(`\n{3,}`)
)

// stripThink removes model reasoning blocks before any parsing
func stripThink(text string) string {
	text = thinkClosed.ReplaceAllString(text, "")
	text = thinkOpen.ReplaceAllString(text, "")
	return thinkTag.ReplaceAllString(text, "")
}

// extractor returns a query candidate or "" when this strategy finds none
type extractor func(text string) string

// chain is evaluated in order of reliability: the tagged block we ask
// the oracle to emit, then an untagged fence, then looser text scans.
var chain = []extractor{
	fromTaggedBlock,
	fromFencedBlock,
	fromParagraph,
	fromLine,
}

// SQL extracts a query from an oracle response, or "" if none is found
func SQL(response string) string {
	text := stripThink(response)
	for _, ex := range chain {
		if q := ex(text); q != "" {
			return q
		}
	}
	return ""
}

func fromTaggedBlock(text string) string {
	m := taggedBlock.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func fromFencedBlock(text string) string {
	m := fencedBlock.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	sql := strings.TrimSpace(m[1])
	if !verbPrefix.MatchString(sql) {
		return ""
	}
	return sql
}

func fromParagraph(text string) string {
	m := verbParagraph.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	candidate := strings.TrimSpace(m[1])
	if len(strings.Fields(candidate)) < 2 {
		return ""
	}
	if !strings.HasSuffix(candidate, ";") {
		candidate += ";"
	}
	return candidate
}

func fromLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !verbPrefix.MatchString(line) {
			continue
		}
		if len(strings.Fields(line)) < 2 {
			continue
		}
		if !strings.HasSuffix(line, ";") {
			line += ";"
		}
		return line
	}
	return ""
}

// CleanResponseText strips code fences and reasoning blocks from a
// response so the remaining prose can be shown as the answer. The
// query itself is surfaced separately.
func CleanResponseText(response string) string {
	cleaned := stripThink(response)
	cleaned = taggedBlock.ReplaceAllString(cleaned, "")
	cleaned = fencedBlock.ReplaceAllString(cleaned, "")
	cleaned = blankRuns.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned)
}

// destructiveVerbs are the leading verbs that always require explicit
// confirmation before execution
var destructiveVerbs = map[string]bool{
	"DELETE":   true,
	"DROP":     true,
	"TRUNCATE": true,
	"UPDATE":   true,
}

// Destructive reports whether a query's leading verb is in the
// high-risk set
func Destructive(sql string) bool {
	fields := strings.Fields(strings.TrimSpace(sql))
	if len(fields) == 0 {
		return false
	}
	return destructiveVerbs[strings.ToUpper(fields[0])]
}
