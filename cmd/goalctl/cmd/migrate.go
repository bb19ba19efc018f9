package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/templui/goalkeeper/internal/config"
	"github.com/templui/goalkeeper/internal/db"
)

func MigrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the cloud database schema",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(false)
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(true)
		},
	})

	return migrateCmd
}

func migrate(down bool) error {
	cfg := config.Load()
	if !cfg.IsCloud() {
		return fmt.Errorf("DB_DRIVER is not set; local mode has no database")
	}

	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	if down {
		return db.MigrateDown(database.DB, cfg.DBDriver)
	}
	return db.RunMigrations(database.DB, cfg.DBDriver)
}
