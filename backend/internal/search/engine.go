package search

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/AdelJumaily/Odin/backend/internal/embed"
	"github.com/AdelJumaily/Odin/backend/internal/graphstore"
	"github.com/AdelJumaily/Odin/backend/internal/model"
	"github.com/AdelJumaily/Odin/backend/internal/store"
	apperrors "github.com/AdelJumaily/Odin/backend/pkg/errors"
	"github.com/AdelJumaily/Odin/backend/pkg/logger"
)

// Mode selects which signals contribute to a chunk's score
type Mode string

const (
	ModeKeyword Mode = "keyword"
	ModeVector  Mode = "vector"
	ModeHybrid  Mode = "hybrid"
)

// keywordWeight is the fixed score contribution of a substring match
const keywordWeight = 0.6

const (
	minQueryLength = 2
	defaultLimit   = 10
)

// Result is one scored chunk
type Result struct {
	Chunk *model.Chunk `json:"chunk"`
	Score float64      `json:"score"`
}

// Engine scores stored chunks against a query. Keyword matching is a
// case-insensitive substring test with a fixed weight; vector matching is
// cosine similarity between the query embedding and chunk embeddings.
// Hybrid sums both signals.
type Engine struct {
	store        *store.Store
	provider     embed.Provider
	graph        graphstore.GraphStore
	candidateCap int
	logger       *zap.Logger
}

// NewEngine creates a search engine. candidateCap bounds how many chunks
// one query will score.
func NewEngine(s *store.Store, provider embed.Provider, graph graphstore.GraphStore, candidateCap int) *Engine {
	return &Engine{
		store:        s,
		provider:     provider,
		graph:        graph,
		candidateCap: candidateCap,
		logger:       logger.Get(),
	}
}

// Search scores up to candidateCap chunks of a project and returns the top
// limit results in descending score order. Chunks scoring zero or below
// are dropped.
func (e *Engine) Search(ctx context.Context, projectID, query string, mode Mode, limit int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if len(query) < minQueryLength {
		return nil, apperrors.NewValidation("query", "must be at least 2 characters")
	}
	switch mode {
	case ModeKeyword, ModeVector, ModeHybrid:
	case "":
		mode = ModeHybrid
	default:
		return nil, apperrors.NewValidation("mode", "must be keyword, vector, or hybrid")
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	candidates, err := e.store.ChunksByProject(projectID, e.candidateCap)
	if err != nil {
		return nil, err
	}

	var queryEmbedding []float32
	if mode != ModeKeyword {
		queryEmbedding, err = e.provider.Embed(ctx, query)
		if err != nil {
			return nil, err
		}
	}

	loweredQuery := strings.ToLower(query)
	results := make([]Result, 0, len(candidates))
	for _, chunk := range candidates {
		var score float64
		if mode != ModeVector && strings.Contains(strings.ToLower(chunk.Content), loweredQuery) {
			score += keywordWeight
		}
		if mode != ModeKeyword {
			score += embed.Cosine(queryEmbedding, chunk.Embedding)
		}
		if score <= 0 {
			continue
		}
		results = append(results, Result{Chunk: chunk, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}

	e.logger.Debug("Search executed",
		zap.String("project_id", projectID),
		zap.String("mode", string(mode)),
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(results)))
	return results, nil
}

// GraphSearch returns the bounded neighborhood of an entity
func (e *Engine) GraphSearch(ctx context.Context, projectID, entityName string, depth int) (*model.Subgraph, error) {
	entityName = strings.TrimSpace(entityName)
	if entityName == "" {
		return nil, apperrors.NewValidation("entity", "must not be empty")
	}
	if depth <= 0 {
		depth = 1
	}
	return e.graph.GetSubgraph(ctx, projectID, entityName, depth)
}
