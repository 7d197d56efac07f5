package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/akinalp/circles/config"
	"github.com/akinalp/circles/services"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed --file fixture.yaml",
	Short: "Insert users, circles and memberships from a YAML fixture",
	Long: `Loads a YAML fixture and inserts it in one transaction. Existing users
(by email) and circles (by name) are skipped, so the command can be rerun.

Each circle needs exactly one member with role "representative".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(seedFile)
		if err != nil {
			return fmt.Errorf("failed to open fixture: %w", err)
		}
		defer f.Close()

		fixture, err := services.LoadFixture(f)
		if err != nil {
			return err
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, store, err := openStore(cfg, log)
		if err != nil {
			return err
		}
		defer db.Close()

		_, err = services.Seed(cmd.Context(), store, fixture, cfg.App.DefaultLanguage, log)
		return err
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "Path to the YAML fixture")
	_ = seedCmd.MarkFlagRequired("file")
}
