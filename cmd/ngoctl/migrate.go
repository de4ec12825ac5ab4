package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maxcyking/ngo-library-sub001/internal/database"
)

func newMigrateCommand(a *app) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				migrations, err := database.Migrations()
				if err != nil {
					return err
				}
				for _, m := range migrations {
					fmt.Fprintln(cmd.OutOrStdout(), m.Version)
				}
				return nil
			}

			db, _, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.Migrate(cmd.Context(), db.Pool); err != nil {
				return err
			}
			a.logger.Info("Migrations applied")
			return nil
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "print the embedded migrations without applying them")
	return cmd
}
