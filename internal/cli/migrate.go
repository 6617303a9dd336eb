package cli

import (
	"fmt"
	"path"
	"text/tabwriter"

	"blogapp/internal/bootstrap"
	"blogapp/internal/database"

	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command group.
func NewMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := connect(bootstrap.Options{SkipRedis: true, SkipSchema: true})
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := database.Migrate(cmd.Context(), rt.db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they are applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := connect(bootstrap.Options{SkipRedis: true, SkipSchema: true})
			if err != nil {
				return err
			}
			defer rt.Close()

			migrations, err := database.Status(cmd.Context(), rt.db)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "VERSION\tAPPLIED\tSOURCE")
			for _, m := range migrations {
				fmt.Fprintf(w, "%d\t%t\t%s\n", m.Version, m.Applied, path.Base(m.Source))
			}
			return w.Flush()
		},
	})

	return cmd
}
