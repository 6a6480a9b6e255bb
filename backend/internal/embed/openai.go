package embed

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/AdelJumaily/Odin/backend/pkg/config"
	"github.com/AdelJumaily/Odin/backend/pkg/logger"
)

// OpenAIProvider embeds text through an OpenAI-compatible endpoint.
// It implements the same Provider contract as the hash fallback so the
// orchestrator and search engine never branch on which one is active.
type OpenAIProvider struct {
	client *openai.Client
	model  string
	dims   int
	logger *zap.Logger
}

// NewOpenAIProvider creates a model-backed embedding provider
func NewOpenAIProvider(baseURL, apiKey, model string, dims int) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL + "/v1"
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		dims:   dims,
		logger: logger.Get(),
	}
}

// Dimensions returns the configured vector length
func (p *OpenAIProvider) Dimensions() int {
	return p.dims
}

// Embed embeds a single text
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return make([]float32, p.dims), nil
	}
	vecs, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds all texts in a single request
func (p *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input:      texts,
		Model:      openai.EmbeddingModel(p.model),
		Dimensions: p.dims,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding response has %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	vecs := make([][]float32, len(resp.Data))
	for i, item := range resp.Data {
		vecs[i] = item.Embedding
	}
	return vecs, nil
}

// Select resolves the embedding provider once at startup: the model-backed
// provider when an API key is configured, otherwise the hash fallback.
func Select(cfg *config.Config) Provider {
	log := logger.Get()
	if cfg.HasOpenAI() {
		log.Info("Using model-backed embedding provider",
			zap.String("model", cfg.EmbeddingModel),
			zap.Int("dimensions", cfg.EmbedDimensions),
		)
		return NewOpenAIProvider(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.EmbeddingModel, cfg.EmbedDimensions)
	}
	log.Info("Using hash-derived embedding provider",
		zap.Int("dimensions", cfg.EmbedDimensions),
	)
	return NewHashProvider(cfg.EmbedDimensions)
}
