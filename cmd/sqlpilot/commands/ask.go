// ABOUTME: CLI command for one conversational turn
// ABOUTME: Classifies, generates, and optionally executes the resulting query
package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sqlpilot/internal/engine"
	"sqlpilot/internal/heal"
)

var (
	askDatabase string
	askExecute  bool
	askYes      bool
)

// NewAskCmd creates the ask command
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question in plain language",
		Long: `Ask a question about a MySQL database in plain language.

The generated query is printed, and executed when it is safe to run
unattended or when --exec is given. Destructive queries (DELETE, DROP,
TRUNCATE, UPDATE) additionally require --yes.

Examples:
  sqlpilot ask --db orders_db "show me all customers"
  sqlpilot ask --db orders_db --exec "how many orders were placed today?"
  sqlpilot ask --db orders_db --exec --yes "delete expired sessions"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAsk,
	}

	cmd.Flags().StringVar(&askDatabase, "db", "", "Database to converse about")
	cmd.Flags().BoolVar(&askExecute, "exec", false, "Execute the generated query")
	cmd.Flags().BoolVar(&askYes, "yes", false, "Confirm execution of destructive queries")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	if askDatabase != "" {
		if err := a.agent.SelectDatabase(ctx, askDatabase); err != nil {
			return fmt.Errorf("selecting database: %w", err)
		}
	}

	question := strings.Join(args, " ")
	resp := a.agent.Respond(ctx, question)

	out := cmd.OutOrStdout()
	if resp.Text != "" {
		fmt.Fprintln(out, resp.Text)
	}
	if resp.Err != "" && resp.SQL == "" {
		return nil
	}
	if resp.SQL == "" {
		return nil
	}

	fmt.Fprintf(out, "\nSQL: %s\n", resp.SQL)

	if !resp.AutoExecute && !askExecute {
		fmt.Fprintln(out, "(not executed; rerun with --exec to run it)")
		return nil
	}
	if resp.RequiresConfirmation && !askYes {
		fmt.Fprintln(out, "(destructive query; rerun with --exec --yes to run it)")
		return nil
	}

	result, healLog, err := a.agent.Execute(ctx, resp.SQL)
	if err != nil {
		return fmt.Errorf("executing query: %w", err)
	}
	printResult(cmd, result, healLog)
	return nil
}

// printResult renders an execution outcome plus any healing report
func printResult(cmd *cobra.Command, result *engine.Result, healLog []heal.Attempt) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintln(out, engine.FormatText(result))
	if report := heal.FormatReport(healLog); report != "" {
		fmt.Fprintln(out)
		fmt.Fprintln(out, report)
	}
}
