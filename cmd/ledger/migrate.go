package main

import (
	"github.com/spf13/cobra"

	"github.com/diewo77/go-purchases/internal/db"
	"github.com/diewo77/go-purchases/internal/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.WithComponent("migrate")
		gdb, err := db.Connect(cmd.Context(), cfg.Database, log)
		if err != nil {
			return err
		}
		if err := db.Migrate(gdb, cfg.Database, true); err != nil {
			return err
		}
		log.Info().Str("driver", cfg.Database.Driver).Msg("migrations applied")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert every SQL migration (postgres only)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := db.Down(cfg.Database); err != nil {
			return err
		}
		log := logger.WithComponent("migrate")
		log.Info().Msg("migrations reverted")
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateDownCmd)
	rootCmd.AddCommand(migrateCmd)
}
