// ABOUTME: CLI command to list databases visible to the engine connection
// ABOUTME: Straight engine call, no oracle involvement
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewDatabasesCmd creates the databases command
func NewDatabasesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "databases",
		Short: "List available MySQL databases",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()

			names, err := a.engine.ListDatabases(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing databases: %w", err)
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
