package repository

import "context"

// KeywordEmbeddingRepository caches search query vectors.
type KeywordEmbeddingRepository interface {
	// Get returns pkg.ErrNotFound for an unseen keyword.
	Get(ctx context.Context, keyword string) ([]float32, error)
	Save(ctx context.Context, keyword string, embedding []float32) error
}
