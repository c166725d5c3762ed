// ABOUTME: Result rendering for engine output
// ABOUTME: Compact form for oracle prompts, bordered tables for the terminal
package engine

import (
	"fmt"
	"strings"
)

// DefaultPromptRows caps how many result rows go back into a prompt
const DefaultPromptRows = 20

// FormatForPrompt renders a result compactly for inclusion in an oracle
// prompt. Row sets are truncated to maxRows (DefaultPromptRows when
// maxRows <= 0) so large results never blow up the context.
func FormatForPrompt(res *Result, maxRows int) string {
	if res == nil {
		return "no result"
	}
	if !res.Success {
		return "ERROR: " + res.ErrorText
	}
	if maxRows <= 0 {
		maxRows = DefaultPromptRows
	}

	if len(res.Columns) == 0 {
		return fmt.Sprintf("OK, %d rows affected", res.AffectedRows)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d rows\n", len(res.Rows))
	b.WriteString(strings.Join(res.Columns, " | "))
	b.WriteString("\n")

	shown := res.Rows
	truncated := false
	if len(shown) > maxRows {
		shown = shown[:maxRows]
		truncated = true
	}
	for _, row := range shown {
		b.WriteString(strings.Join(row, " | "))
		b.WriteString("\n")
	}
	if truncated {
		fmt.Fprintf(&b, "... (%d more rows)\n", len(res.Rows)-maxRows)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatText renders a result as a bordered table for the terminal,
// in the style of the mysql CLI.
func FormatText(res *Result) string {
	if res == nil {
		return ""
	}
	if !res.Success {
		return "ERROR: " + res.ErrorText
	}

	if len(res.Columns) == 0 {
		return fmt.Sprintf("Query OK, %d rows affected (%d ms)", res.AffectedRows, res.LatencyMS)
	}

	widths := make([]int, len(res.Columns))
	for i, col := range res.Columns {
		widths[i] = len(col)
	}
	for _, row := range res.Rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	writeSeparator(&b, widths)
	writeRow(&b, res.Columns, widths)
	writeSeparator(&b, widths)
	for _, row := range res.Rows {
		writeRow(&b, row, widths)
	}
	if len(res.Rows) > 0 {
		writeSeparator(&b, widths)
	}

	noun := "rows"
	if len(res.Rows) == 1 {
		noun = "row"
	}
	fmt.Fprintf(&b, "%d %s in set (%d ms)", len(res.Rows), noun, res.LatencyMS)
	return b.String()
}

func writeSeparator(b *strings.Builder, widths []int) {
	for _, w := range widths {
		b.WriteString("+")
		b.WriteString(strings.Repeat("-", w+2))
	}
	b.WriteString("+\n")
}

func writeRow(b *strings.Builder, cells []string, widths []int) {
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		fmt.Fprintf(b, "| %-*s ", w, cell)
	}
	b.WriteString("|\n")
}
