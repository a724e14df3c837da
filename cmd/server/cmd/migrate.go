package cmd

import (
	"fmt"

	"github.com/communitycal/server/internal/config"
	"github.com/communitycal/server/internal/storage/postgres"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long: `Apply all pending schema migrations to the configured database.

Uses DATABASE_URL from the environment. Running against an up-to-date
database is a no-op.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}

		logger := config.NewLogger(cfg.Logging)
		if err := postgres.Migrate(cfg.Database.URL); err != nil {
			return fmt.Errorf("migrations failed: %w", err)
		}
		logger.Info().Msg("database migrations applied")
		return nil
	},
}
