package embed

import (
	"context"
	"crypto/sha256"
	"math"
)

// HashProvider derives embeddings from a SHA-256 digest of the text. It is
// a pure function: the same text always yields the same vector, which keeps
// indexing and search testable without a model. Empty text yields the zero
// vector. Non-empty text yields a unit vector.
type HashProvider struct {
	dims int
}

// NewHashProvider creates a hash-based embedding provider
func NewHashProvider(dims int) *HashProvider {
	if dims < 1 {
		dims = 1
	}
	return &HashProvider{dims: dims}
}

// Dimensions returns the configured vector length
func (p *HashProvider) Dimensions() int {
	return p.dims
}

// Embed returns the deterministic embedding of text
func (p *HashProvider) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, p.dims)
	if text == "" {
		return vec, nil
	}

	digest := sha256.Sum256([]byte(text))
	var norm float64
	for i := 0; i < p.dims; i++ {
		v := float32(digest[i%len(digest)])
		vec[i] = v
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec, nil
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec, nil
}

// EmbedBatch embeds each text in order
func (p *HashProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := p.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vecs[i] = vec
	}
	return vecs, nil
}
