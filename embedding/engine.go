// Package embedding turns circle descriptions and search keywords into
// vectors and compares them.
package embedding

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/akinalp/circles/config"
)

// Embedder generates a vector for a piece of text. An empty vector with a
// nil error means "no embedding available".
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Name() string
}

// New returns the GenAI engine when an API key is configured and a no-op
// engine otherwise, so the rest of the app never has to check.
func New(cfg config.EmbeddingConfig, logger *zap.Logger) (Embedder, error) {
	if cfg.APIKey == "" {
		logger.Warn("GENAI_API_KEY not set, circle embeddings disabled")
		return Noop{}, nil
	}

	engine, err := NewGenAIEngine(context.Background(), cfg.APIKey, cfg.Model, cfg.TaskType)
	if err != nil {
		return nil, err
	}
	logger.Info("embedding engine ready", zap.String("engine", engine.Name()))
	return engine, nil
}

// Noop never produces a vector.
type Noop struct{}

func (Noop) Embed(context.Context, string) ([]float32, error) {
	return nil, nil
}

func (Noop) Name() string {
	return "noop"
}

// Cosine returns dot(a, b) / (|a| * |b|). Empty, zero-magnitude or
// mismatched vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		magA += x * x
		magB += y * y
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
