package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long: `Apply the bundled schema migrations to the configured database.

SQLite databases are migrated automatically when opened; PostgreSQL
databases need this command after an upgrade.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := RequireApp()
			if err != nil {
				return err
			}
			applied, err := a.Runtime.Migrate(cmd.Context())
			if err != nil {
				return err
			}
			if applied == nil {
				applied = []string{}
			}
			return Render(cmd.OutOrStdout(), map[string][]string{"applied": applied}, func(w io.Writer) error {
				if len(applied) == 0 {
					fmt.Fprintln(w, "Database is up to date.")
					return nil
				}
				for _, v := range applied {
					fmt.Fprintf(w, "applied %s\n", v)
				}
				return nil
			})
		},
	}
}
