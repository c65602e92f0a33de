package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fredesa/knowledge-registry/internal/db/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the catalog tables and indexes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		pg, err := postgres.New(ctx, postgresConfig(&cfg))
		if err != nil {
			return fmt.Errorf("connect catalog database: %w", err)
		}
		defer func() { _ = pg.Close() }()

		if err := pg.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		cmd.Println("schema up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
