package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/akinalp/circles/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, _, err := openStore(cfg, log)
		if err != nil {
			return err
		}
		defer db.Close()

		if len(db.Applied) == 0 {
			log.Info("schema is up to date")
			return nil
		}
		log.Info("migrations applied", zap.Strings("files", db.Applied))
		return nil
	},
}
