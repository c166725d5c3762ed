// ABOUTME: Prompt templates for the main conversational oracle call
// ABOUTME: Fixed preamble plus live schema, query digest, and memory blocks
package agent

import (
	"fmt"
	"strings"

	"sqlpilot/internal/models"
)

const systemPrompt = `You are a MySQL database assistant. You combine a general
knowledge assistant, a MySQL expert, a query generator, and a data explainer.

CURRENT DATABASE CONTEXT (ALWAYS USE THIS FOR SQL)

Active Database: %s

Database Schema (THE ONLY SOURCE OF TRUTH FOR SQL):
%s

Recent Query History:
%s

CRITICAL RULES FOR SQL:
- Use ONLY tables and columns listed in the schema above
- The active database is %s, never reference any other database
- If conversation memory mentions other databases, IGNORE them for SQL
- Never invent table or column names not in the schema above

SQL GENERATION RULES:
1. Always output SQL inside a ` + "```sql code block" + `
2. Use only tables/columns from the provided schema
3. "show", "list", "get", "display" mean SELECT * with no LIMIT unless asked
4. Add LIMIT only for "top", "first", "limit", "highest N"
5. Wrap all identifiers in backticks
6. MySQL 8.x syntax only
7. One query per response
8. Avoid unnecessary JOINs, subqueries, and CTEs
9. If a question needs no SQL, answer it plainly with no SQL block`

const memoryBlock = `

CONVERSATION MEMORY (PERSONAL HISTORY ONLY)
This is a memory of past conversations for context. Do NOT use table,
column, or database names from this memory for SQL generation. For SQL
always use only the Database Schema section above (current active
database: %s).

%s`

// maxSchemaChars bounds the schema portion of the prompt
const maxSchemaChars = 3000

// buildSystemPrompt assembles the fixed preamble with the live context
func buildSystemPrompt(database, schema, queryDigest, summary string) string {
	if database == "" {
		database = "None"
	}
	if schema == "" {
		schema = "(schema not available)"
	}
	if len(schema) > maxSchemaChars {
		schema = schema[:maxSchemaChars]
	}
	if queryDigest == "" {
		queryDigest = "No previous queries"
	}

	prompt := fmt.Sprintf(systemPrompt, database, schema, queryDigest, database)
	if summary != "" {
		prompt += fmt.Sprintf(memoryBlock, database, summary)
	}
	return prompt
}

// buildUserPrompt renders the recent window and the new utterance as
// one dialogue transcript for the oracle
func buildUserPrompt(recent []models.Turn, utterance string) string {
	var lines []string
	for _, turn := range recent {
		if line := turn.DialogueLine(); line != "" {
			lines = append(lines, line)
		}
	}
	lines = append(lines, "User: "+utterance)
	return strings.Join(lines, "\n")
}

// queryDigest summarizes recent audit records for the prompt
func queryDigest(records []models.QueryAudit) string {
	if len(records) == 0 {
		return ""
	}
	var lines []string
	for _, rec := range records {
		sql := rec.SQL
		if len(sql) > 80 {
			sql = sql[:80] + "..."
		}
		status := "OK"
		if !rec.Success {
			status = "FAILED"
		}
		lines = append(lines, fmt.Sprintf("- %s (%s)", sql, status))
	}
	return strings.Join(lines, "\n")
}
