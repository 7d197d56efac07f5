package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/akinalp/circles/embedding"
	"github.com/akinalp/circles/models"
	"github.com/akinalp/circles/pkg"
	"github.com/akinalp/circles/pkg/cache"
	"github.com/akinalp/circles/repository"
	"go.uber.org/zap"
)

const (
	// minQuerySimilarity filters circles unrelated to the query.
	minQuerySimilarity = 0.75
	graphRoots         = 3
	// maxSiblings caps how many circles hang off one child node.
	maxSiblings = 3

	candidateTTL = 30 * time.Second
	candidateKey = "circles"
)

type SuggestionService interface {
	// Search embeds query and returns the similarity graph of circles.
	// threshold <= 0 uses the configured default. Failures yield an empty
	// graph.
	Search(ctx context.Context, query string, threshold float64) models.Graph
	// InvalidateCandidates drops the cached circle embeddings.
	InvalidateCandidates()
	Close()
}

type suggestionService struct {
	store      *repository.Store
	embedder   embedding.Embedder
	candidates *cache.TTLCache[string, []models.Circle]
	threshold  float64
	log        *zap.Logger
}

func NewSuggestionService(
	store *repository.Store,
	embedder embedding.Embedder,
	threshold float64,
	logger *zap.Logger,
) SuggestionService {
	return &suggestionService{
		store:      store,
		embedder:   embedder,
		candidates: cache.New[string, []models.Circle](candidateTTL, time.Minute),
		threshold:  threshold,
		log:        logger.Named("suggestion"),
	}
}

func (s *suggestionService) Search(ctx context.Context, query string, threshold float64) models.Graph {
	query = strings.TrimSpace(query)
	if query == "" {
		return models.EmptyGraph()
	}
	if threshold <= 0 {
		threshold = s.threshold
	}

	queryVec, err := s.queryEmbedding(ctx, query)
	if err != nil {
		s.log.Warn("failed to embed suggestion query", zap.String("query", query), zap.Error(err))
		return models.EmptyGraph()
	}

	circles, err := s.loadCandidates(ctx)
	if err != nil {
		s.log.Warn("failed to load suggestion candidates", zap.Error(err))
		return models.EmptyGraph()
	}

	return BuildGraph(query, queryVec, circles, threshold)
}

// queryEmbedding reads the keyword cache and falls back to the embedder.
// Only non-empty vectors are cached.
func (s *suggestionService) queryEmbedding(ctx context.Context, query string) ([]float32, error) {
	vec, err := s.store.KeywordEmbeddings.Get(ctx, query)
	if err == nil {
		return vec, nil
	}
	if !errors.Is(err, pkg.ErrNotFound) {
		return nil, err
	}

	vec, err = s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed with %s: %w", s.embedder.Name(), err)
	}
	if len(vec) == 0 {
		return nil, nil
	}

	if err := s.store.KeywordEmbeddings.Save(ctx, query, vec); err != nil {
		s.log.Warn("failed to cache keyword embedding", zap.String("query", query), zap.Error(err))
	}
	return vec, nil
}

func (s *suggestionService) loadCandidates(ctx context.Context) ([]models.Circle, error) {
	return s.candidates.GetOrLoad(candidateKey, func() ([]models.Circle, error) {
		return s.store.Circles.ListWithEmbeddings(ctx)
	})
}

func (s *suggestionService) InvalidateCandidates() {
	s.candidates.Delete(candidateKey)
}

func (s *suggestionService) Close() {
	s.candidates.Close()
}

type scoredCircle struct {
	circle     *models.Circle
	similarity float64
}

// BuildGraph builds the suggestion tree for a query vector:
//
//   - circles at least minQuerySimilarity close to the query are ranked;
//   - the best graphRoots of them hang off the "query" node;
//   - each remaining circle hangs off its closest root when that cosine
//     reaches threshold, and then pulls up to maxSiblings not yet placed
//     circles whose cosine to it exceeds threshold.
func BuildGraph(query string, queryVec []float32, circles []models.Circle, threshold float64) models.Graph {
	graph := models.EmptyGraph()
	graph.Nodes = append(graph.Nodes, models.GraphNode{ID: "query", Label: query, Name: query})

	if len(queryVec) == 0 {
		return graph
	}

	ranked := make([]scoredCircle, 0, len(circles))
	for i := range circles {
		sim := embedding.Cosine(queryVec, circles[i].Embedding)
		if sim >= minQuerySimilarity {
			ranked = append(ranked, scoredCircle{circle: &circles[i], similarity: sim})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].similarity > ranked[j].similarity
	})

	roots := ranked[:min(graphRoots, len(ranked))]
	added := make(map[string]bool, len(ranked))

	addNode := func(c *models.Circle) {
		graph.Nodes = append(graph.Nodes, circleNode(c))
		added[c.ID] = true
	}
	link := func(source, target string, value float64) {
		graph.Links = append(graph.Links, models.GraphLink{Source: source, Target: target, Value: truncate2(value)})
	}

	for _, root := range roots {
		addNode(root.circle)
		link("query", root.circle.ID, root.similarity)
	}

	for _, candidate := range ranked[len(roots):] {
		c := candidate.circle
		if added[c.ID] {
			continue
		}

		parent := roots[0].circle
		best := embedding.Cosine(c.Embedding, parent.Embedding)
		for _, root := range roots[1:] {
			if sim := embedding.Cosine(c.Embedding, root.circle.Embedding); sim > best {
				parent, best = root.circle, sim
			}
		}
		if best < threshold {
			continue
		}

		addNode(c)
		link(parent.ID, c.ID, best)

		siblings := 0
		for _, other := range ranked {
			if siblings == maxSiblings {
				break
			}
			if added[other.circle.ID] {
				continue
			}
			if sim := embedding.Cosine(c.Embedding, other.circle.Embedding); sim > threshold {
				addNode(other.circle)
				link(c.ID, other.circle.ID, sim)
				siblings++
			}
		}
	}

	return graph
}

func circleNode(c *models.Circle) models.GraphNode {
	node := models.GraphNode{ID: c.ID, Label: c.Name, Name: c.Name}
	if c.ImagePath != nil && *c.ImagePath != "" {
		node.ImagePath = c.ImagePath
	}
	return node
}

// truncate2 cuts v to two decimals toward negative infinity.
func truncate2(v float64) float64 {
	return math.Floor(v*100) / 100
}
