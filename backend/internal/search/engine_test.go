package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdelJumaily/Odin/backend/internal/embed"
	"github.com/AdelJumaily/Odin/backend/internal/graphstore"
	"github.com/AdelJumaily/Odin/backend/internal/model"
	"github.com/AdelJumaily/Odin/backend/internal/store"
	apperrors "github.com/AdelJumaily/Odin/backend/pkg/errors"
)

func newTestEngine(t *testing.T) (*Engine, *store.Store, embed.Provider) {
	t.Helper()

	st, err := store.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	provider := embed.NewHashProvider(64)
	gs := graphstore.New(context.Background(), nil, st)
	return NewEngine(st, provider, gs, 500), st, provider
}

func putChunk(t *testing.T, st *store.Store, provider embed.Provider, docID string, idx int, content string) *model.Chunk {
	t.Helper()

	embedding, err := provider.Embed(context.Background(), content)
	require.NoError(t, err)
	chunk := &model.Chunk{
		DocumentID: docID,
		ProjectID:  "proj-1",
		Index:      idx,
		Content:    content,
		Embedding:  embedding,
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, st.PutChunks([]*model.Chunk{chunk}))
	return chunk
}

func TestSearchRejectsShortQuery(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	_, err := engine.Search(context.Background(), "proj-1", "a", ModeHybrid, 10)
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeValidation))

	_, err = engine.Search(context.Background(), "proj-1", "  x  ", ModeKeyword, 10)
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeValidation))
}

func TestSearchRejectsUnknownMode(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	_, err := engine.Search(context.Background(), "proj-1", "rockets", Mode("fuzzy"), 10)
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeValidation))
}

func TestSearchKeywordScoresSubstringMatches(t *testing.T) {
	engine, st, provider := newTestEngine(t)
	putChunk(t, st, provider, "doc-1", 0, "The Apollo program landed on the moon.")
	putChunk(t, st, provider, "doc-1", 1, "Unrelated text about gardening.")

	results, err := engine.Search(context.Background(), "proj-1", "APOLLO", ModeKeyword, 10)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.InDelta(t, 0.6, results[0].Score, 1e-9)
	assert.Contains(t, results[0].Chunk.Content, "Apollo")
}

func TestSearchVectorScoresIdenticalTextHighest(t *testing.T) {
	engine, st, provider := newTestEngine(t)
	target := putChunk(t, st, provider, "doc-1", 0, "moon landing")
	putChunk(t, st, provider, "doc-1", 1, "gardening tips")

	results, err := engine.Search(context.Background(), "proj-1", "moon landing", ModeVector, 10)
	require.NoError(t, err)

	require.NotEmpty(t, results)
	assert.Equal(t, target.Content, results[0].Chunk.Content)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
}

func TestSearchHybridCombinesSignals(t *testing.T) {
	engine, st, provider := newTestEngine(t)
	putChunk(t, st, provider, "doc-1", 0, "moon landing")

	keyword, err := engine.Search(context.Background(), "proj-1", "moon landing", ModeKeyword, 10)
	require.NoError(t, err)
	vector, err := engine.Search(context.Background(), "proj-1", "moon landing", ModeVector, 10)
	require.NoError(t, err)
	hybrid, err := engine.Search(context.Background(), "proj-1", "moon landing", ModeHybrid, 10)
	require.NoError(t, err)

	require.Len(t, hybrid, 1)
	assert.InDelta(t, keyword[0].Score+vector[0].Score, hybrid[0].Score, 1e-6)
	assert.Greater(t, hybrid[0].Score, keyword[0].Score)
	assert.Greater(t, hybrid[0].Score, vector[0].Score)
}

func TestSearchOrdersByScoreAndTruncates(t *testing.T) {
	engine, st, provider := newTestEngine(t)
	putChunk(t, st, provider, "doc-1", 0, "rockets and rockets again")
	putChunk(t, st, provider, "doc-1", 1, "rockets")
	putChunk(t, st, provider, "doc-1", 2, "nothing relevant")

	results, err := engine.Search(context.Background(), "proj-1", "rockets", ModeHybrid, 1)
	require.NoError(t, err)

	require.Len(t, results, 1)
	// Exact text wins on the vector signal; both carry the keyword weight
	assert.Equal(t, "rockets", results[0].Chunk.Content)
}

func TestSearchDefaultsToHybrid(t *testing.T) {
	engine, st, provider := newTestEngine(t)
	putChunk(t, st, provider, "doc-1", 0, "moon landing")

	results, err := engine.Search(context.Background(), "proj-1", "moon landing", "", 10)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Greater(t, results[0].Score, 1.0)
}

func TestSearchEmptyProject(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	results, err := engine.Search(context.Background(), "proj-1", "anything", ModeHybrid, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestGraphSearchValidatesEntity(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	_, err := engine.GraphSearch(context.Background(), "proj-1", "  ", 2)
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeValidation))
}

func TestGraphSearchUnknownEntityReturnsEmpty(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	subgraph, err := engine.GraphSearch(context.Background(), "proj-1", "Nobody", 2)
	require.NoError(t, err)
	assert.Empty(t, subgraph.Nodes)
	assert.Empty(t, subgraph.Edges)
}
