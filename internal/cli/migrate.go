package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"clientDirectory/internal/app"
	"clientDirectory/internal/config"
	"clientDirectory/internal/db"
)

func newMigrateCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage schema migrations",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return rt.withStore(func(_ *config.Config, s *app.Store) error {
					if err := db.Migrate(s.DB, s.Driver); err != nil {
						return err
					}
					return printVersions(rt.output(cmd), s)
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return rt.withStore(func(_ *config.Config, s *app.Store) error {
					if err := db.RollbackLast(s.DB, s.Driver); err != nil {
						return err
					}
					out := rt.output(cmd)
					out.Success("rolled back last migration")
					return printVersions(out, s)
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "List applied migration versions",
			RunE: func(cmd *cobra.Command, args []string) error {
				return rt.withStore(func(_ *config.Config, s *app.Store) error {
					return printVersions(rt.output(cmd), s)
				})
			},
		},
	)
	return cmd
}

func printVersions(out *Output, s *app.Store) error {
	versions, err := db.AppliedVersions(s.DB)
	if err != nil {
		return fmt.Errorf("applied versions: %w", err)
	}
	rows := make([][]string, len(versions))
	for i, v := range versions {
		rows[i] = []string{strconv.Itoa(v)}
	}
	out.Print([]string{"VERSION"}, rows, map[string]any{"applied": versions})
	return nil
}
