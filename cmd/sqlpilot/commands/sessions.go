// ABOUTME: CLI command to list conversation sessions
// ABOUTME: One session per host/user/database triple, most recent first
package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewSessionsCmd creates the sessions command
func NewSessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List conversation sessions",
		Long: `List every known conversation session with its database,
message count, and last activity. Sessions are never deleted
automatically; each database keeps its full history.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()

			sessions, err := a.agent.Sessions()
			if err != nil {
				return fmt.Errorf("listing sessions: %w", err)
			}
			if len(sessions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sessions yet.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DATABASE\tMESSAGES\tLAST ACTIVE\tTHREAD")
			for _, s := range sessions {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\n",
					s.Database, s.MessageCount,
					s.LastActiveAt.Format("2006-01-02 15:04"),
					truncate(s.ThreadID, 20))
			}
			return w.Flush()
		},
	}
}
