package embed

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func norm(vec []float32) float64 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

func TestHashProvider_Deterministic(t *testing.T) {
	p := NewHashProvider(128)
	ctx := context.Background()

	a, err := p.Embed(ctx, "some text")
	require.NoError(t, err)
	b, err := p.Embed(ctx, "some text")
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestHashProvider_EmptyIsZeroVector(t *testing.T) {
	p := NewHashProvider(64)

	vec, err := p.Embed(context.Background(), "")
	require.NoError(t, err)

	assert.Len(t, vec, 64)
	assert.Zero(t, norm(vec))
}

func TestHashProvider_UnitNorm(t *testing.T) {
	p := NewHashProvider(1536)

	vec, err := p.Embed(context.Background(), "Alice met Bob in Apollo project.")
	require.NoError(t, err)

	assert.Len(t, vec, 1536)
	assert.InDelta(t, 1.0, norm(vec), 1e-6)
}

func TestHashProvider_DistinctTexts(t *testing.T) {
	p := NewHashProvider(128)
	ctx := context.Background()

	a, _ := p.Embed(ctx, "first")
	b, _ := p.Embed(ctx, "second")

	assert.NotEqual(t, a, b)
}

func TestHashProvider_EmbedBatch(t *testing.T) {
	p := NewHashProvider(32)

	vecs, err := p.EmbedBatch(context.Background(), []string{"one", "two", ""})
	require.NoError(t, err)
	require.Len(t, vecs, 3)

	single, _ := p.Embed(context.Background(), "one")
	assert.Equal(t, single, vecs[0])
	assert.Zero(t, norm(vecs[2]))
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Zero(t, Cosine([]float32{0, 0}, []float32{1, 1}))
	assert.Zero(t, Cosine([]float32{1}, []float32{1, 2}))
}
