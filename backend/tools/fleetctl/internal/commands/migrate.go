package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"fleetconsole/backend/tools/fleetctl/internal/schema"
)

func newMigrateCommand(deps Deps) *cobra.Command {
	var dsn string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the console tables in Postgres",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(dsn) == "" {
				dsn = os.Getenv("DATABASE_URL")
			}
			if strings.TrimSpace(dsn) == "" {
				return errors.New("migrate: --dsn or DATABASE_URL is required")
			}

			db, closeDB, err := deps.OpenDB(cmd.Context(), dsn)
			if err != nil {
				return fmt.Errorf("migrate: connect: %w", err)
			}
			defer closeDB()

			if _, err := db.Exec(cmd.Context(), schema.SQL); err != nil {
				return fmt.Errorf("migrate: apply schema: %w", err)
			}
			deps.Logger.Info("schema applied")
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", "", "Postgres connection string (defaults to $DATABASE_URL)")
	return cmd
}
