// ABOUTME: CLI command to run raw SQL through the self-healing loop
// ABOUTME: Records the execution in the audit trail like any other query
package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sqlpilot/internal/extract"
)

var (
	execDatabase string
	execYes      bool
)

// NewExecCmd creates the exec command
func NewExecCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec [sql]",
		Short: "Execute SQL with self-healing retries",
		Long: `Execute a SQL statement. If the engine rejects it, the
statement is corrected and retried a bounded number of times.

Examples:
  sqlpilot exec --db orders_db "SELECT * FROM customers LIMIT 10"
  sqlpilot exec --db orders_db --yes "DELETE FROM sessions WHERE expired = 1"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runExec,
	}

	cmd.Flags().StringVar(&execDatabase, "db", "", "Database to run against")
	cmd.Flags().BoolVar(&execYes, "yes", false, "Confirm execution of destructive queries")

	return cmd
}

func runExec(cmd *cobra.Command, args []string) error {
	sql := strings.Join(args, " ")

	if extract.Destructive(sql) && !execYes {
		return fmt.Errorf("destructive query; rerun with --yes to confirm")
	}

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	if execDatabase != "" {
		if err := a.agent.SelectDatabase(ctx, execDatabase); err != nil {
			return fmt.Errorf("selecting database: %w", err)
		}
	}

	result, healLog, err := a.agent.Execute(ctx, sql)
	if err != nil {
		return fmt.Errorf("executing query: %w", err)
	}
	printResult(cmd, result, healLog)
	return nil
}
