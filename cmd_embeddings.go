package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/akinalp/circles/config"
	"github.com/akinalp/circles/embedding"
	"github.com/akinalp/circles/services"
)

var embeddingsCmd = &cobra.Command{
	Use:   "embeddings",
	Short: "Circle embedding maintenance",
}

var embeddingsBackfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Generate embeddings for circles that have none",
	Long: `Embeds every live circle without a vector (name, tags and description)
with at most five concurrent provider calls, then stores all vectors in one
transaction. Circles whose embedding fails are skipped and logged.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		embedder, err := embedding.New(cfg.Embedding, log)
		if err != nil {
			return fmt.Errorf("failed to initialize embedding engine: %w", err)
		}
		if _, ok := embedder.(embedding.Noop); ok {
			return errors.New("GENAI_API_KEY is not set, nothing to generate embeddings with")
		}

		db, store, err := openStore(cfg, log)
		if err != nil {
			return err
		}
		defer db.Close()

		result, err := services.BackfillEmbeddings(cmd.Context(), store, embedder, log)
		if err != nil {
			return err
		}

		log.Info("backfill finished",
			zap.Int("generated", result.Generated),
			zap.Int("skipped", result.Skipped),
		)
		return nil
	},
}

func init() {
	embeddingsCmd.AddCommand(embeddingsBackfillCmd)
}
