package services

import (
	"context"
	"fmt"

	"github.com/akinalp/circles/embedding"
	"github.com/akinalp/circles/models"
	"github.com/akinalp/circles/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const backfillConcurrency = 5

// BackfillResult counts what a backfill run did.
type BackfillResult struct {
	Generated int `json:"generated"`
	Skipped   int `json:"skipped"`
}

// BackfillEmbeddings embeds every live circle that has no vector yet. At
// most backfillConcurrency provider calls run at once; all vectors are
// written in one transaction. A circle whose embedding fails or comes back
// empty is skipped and logged.
func BackfillEmbeddings(ctx context.Context, store *repository.Store, embedder embedding.Embedder, logger *zap.Logger) (BackfillResult, error) {
	log := logger.Named("backfill")

	circles, err := store.Circles.ListMissingEmbeddings(ctx)
	if err != nil {
		return BackfillResult{}, err
	}
	if len(circles) == 0 {
		log.Info("no circles missing embeddings")
		return BackfillResult{}, nil
	}

	vectors := make([][]float32, len(circles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(backfillConcurrency)
	for i := range circles {
		c := &circles[i]
		g.Go(func() error {
			text := models.EmbeddingText(c.Name, c.Tags, c.Description)
			vec, err := embedder.Embed(gctx, text)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Warn("failed to embed circle", zap.String("circle_id", c.ID), zap.Error(err))
				return nil
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BackfillResult{}, fmt.Errorf("backfill canceled: %w", err)
	}

	var result BackfillResult
	err = store.WithTx(ctx, func(tx *repository.Repos) error {
		for i, c := range circles {
			if len(vectors[i]) == 0 {
				result.Skipped++
				log.Debug("circle skipped", zap.String("circle_id", c.ID), zap.String("name", c.Name))
				continue
			}
			if err := tx.Circles.UpdateEmbedding(ctx, c.ID, vectors[i]); err != nil {
				return err
			}
			result.Generated++
			log.Debug("circle embedded", zap.String("circle_id", c.ID), zap.String("name", c.Name))
		}
		return nil
	})
	if err != nil {
		return BackfillResult{}, err
	}

	log.Info("embedding backfill done",
		zap.String("engine", embedder.Name()),
		zap.Int("generated", result.Generated),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}
