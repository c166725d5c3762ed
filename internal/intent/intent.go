// ABOUTME: Intent classification for natural-language utterances
// ABOUTME: Ordered pattern table, first match wins, no side effects
package intent

import (
	"regexp"
	"strings"
)

// Category is the closed set of recognized user intents
type Category string

const (
	ShowDatabases  Category = "show_databases"
	ShowTables     Category = "show_tables"
	SwitchDatabase Category = "switch_database"
	DescribeTable  Category = "describe_table"
	ExecuteQuery   Category = "execute_query"
	Help           Category = "help"
	SelectQuery    Category = "select_query"
	InsertData     Category = "insert_data"
	UpdateData     Category = "update_data"
	DeleteData     Category = "delete_data"
	CreateTable    Category = "create_table"
	DropTable      Category = "drop_table"
	ExplainSchema  Category = "explain_schema"
	General        Category = "general_question"
)

// rule pairs a compiled pattern with its category. Order matters:
// rules are evaluated top to bottom and the first match wins.
type rule struct {
	pattern  *regexp.Regexp
	category Category
}

var rules = []rule{
	{regexp.MustCompile(`\bshow\s+(all\s+)?databases?\b|\blist\s+databases?\b|\bwhat\s+databases?\b`), ShowDatabases},
	{regexp.MustCompile(`\bshow\s+(all\s+)?tables?\b|\blist\s+tables?\b`), ShowTables},
	{regexp.MustCompile(`\buse\s+\w+\b|\bswitch\s+to\b|\bgo\s+to\s+database\b|\bchange\s+(database\s+)?to\b`), SwitchDatabase},
	{regexp.MustCompile(`\bdescribe\b|\bdesc\b|\bshow\s+columns?\b|\bstructure\s+of\b`), DescribeTable},
	{regexp.MustCompile(`\brun\s+this\b|\bexecute\s+this\b|\byes.*run\b|\bconfirm\b`), ExecuteQuery},
	{regexp.MustCompile(`\bhelp\b|\bwhat\s+can\s+you\b|\bcommands?\b`), Help},
	{regexp.MustCompile(`\bselect\b|\bget\b|\bfetch\b|\bshow\s+me\b|\bfind\b|\blist\b`), SelectQuery},
	{regexp.MustCompile(`\binsert\b|\badd\b|\bcreate\s+record\b|\bnew\s+row\b`), InsertData},
	{regexp.MustCompile(`\bupdate\b|\bmodify\b|\bchange\b|\bedit\b`), UpdateData},
	{regexp.MustCompile(`\bdelete\b|\bremove\b|\bdrop\s+row\b`), DeleteData},
	{regexp.MustCompile(`\bcreate\s+table\b|\bnew\s+table\b`), CreateTable},
	{regexp.MustCompile(`\bdrop\s+table\b|\bdelete\s+table\b`), DropTable},
	{regexp.MustCompile(`\bexplain\b|\bwhat\s+is\b|\bhow\s+does\b|\bwhat.*schema\b`), ExplainSchema},
}

// Classify maps an utterance to a category. Total: unrecognized input
// falls through to General, never an error.
func Classify(utterance string) Category {
	inp := strings.ToLower(strings.TrimSpace(utterance))
	for _, r := range rules {
		if r.pattern.MatchString(inp) {
			return r.category
		}
	}
	return General
}

// NeedsData reports whether a category requires schema context and an
// oracle call. The remaining categories short-circuit in the
// orchestrator without touching the oracle.
func NeedsData(c Category) bool {
	switch c {
	case ShowDatabases, ShowTables, SwitchDatabase, Help:
		return false
	default:
		return true
	}
}

// Refinable reports whether a category's queries go through the
// refinement pipeline. Metadata lookups never do.
func Refinable(c Category) bool {
	switch c {
	case SelectQuery, InsertData, UpdateData, DeleteData, CreateTable:
		return true
	default:
		return false
	}
}

// AutoExecute reports whether a category's query may run without an
// explicit confirmation from the user.
func AutoExecute(c Category) bool {
	return c == ShowDatabases || c == ShowTables
}

// useTarget matches "use X", "switch to X", "change database to X" and
// similar phrasings without capturing the filler word "database"/"db"
// as the name itself.
var useTarget = regexp.MustCompile(
	`(?i)(?:use|switch\s+to|go\s+to|connect\s+to|change(?:\s+database)?\s+to)` +
		"\\s+(?:(?:database|db)\\s+)?[`'\"]?((?i:[a-z0-9_])+)[`'\"]?")

// reserved words that can never be a database name in this position
var reserved = map[string]bool{
	"database": true,
	"db":       true,
	"table":    true,
	"to":       true,
	"the":      true,
	"a":        true,
	"an":       true,
}

// DatabaseTarget extracts the database name from a switch-database
// utterance. Returns "" when no usable name is present.
func DatabaseTarget(utterance string) string {
	m := useTarget.FindStringSubmatch(utterance)
	if m == nil {
		return ""
	}
	name := m[1]
	if reserved[strings.ToLower(name)] {
		return ""
	}
	return name
}
