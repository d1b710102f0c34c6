package cmd

import (
	"example.com/tripplanner/config"
	"example.com/tripplanner/internal/database"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Runs database migrations to ensure the database schema
is up-to-date. This is useful for CI/CD pipelines or initial setup.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return err
	}

	log.Info().Msg("Connecting to database and running migrations")

	// Connect runs the migrations on the write connection
	if _, _, err := database.Connect(cfg.DB); err != nil {
		return err
	}

	log.Info().Msg("Database migrations completed successfully")
	return nil
}
