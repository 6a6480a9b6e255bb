package extract

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/AdelJumaily/Odin/backend/pkg/config"
	"github.com/AdelJumaily/Odin/backend/pkg/logger"
)

const extractionPrompt = `Extract named entities from the text. Respond with a JSON array only, no prose. Each element: {"canonical_name": string, "entity_type": string, "aliases": [string]}. Entity types: PERSON, ORG, LOCATION, PRODUCT, EVENT, or UNKNOWN.`

// ModelExtractor runs named entity recognition through a chat model.
// On any model or parse failure it degrades to the regex heuristic for
// that call, so ingestion never depends on model availability.
type ModelExtractor struct {
	client   *openai.Client
	model    string
	fallback *RegexExtractor
	logger   *zap.Logger
}

// NewModelExtractor creates a model-backed extractor
func NewModelExtractor(baseURL, apiKey, model string) *ModelExtractor {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL + "/v1"
	}
	return &ModelExtractor{
		client:   openai.NewClientWithConfig(cfg),
		model:    model,
		fallback: NewRegexExtractor(),
		logger:   logger.Get(),
	}
}

// Extract asks the model for entities and normalizes the result through the
// same lowercase-dedup rule as the heuristic extractor
func (e *ModelExtractor) Extract(ctx context.Context, text string) ([]ExtractedEntity, error) {
	if text == "" {
		return nil, nil
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: extractionPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0,
	})
	if err != nil {
		e.logger.Warn("Entity extraction model request failed, using heuristic fallback", zap.Error(err))
		return e.fallback.Extract(ctx, text)
	}
	if len(resp.Choices) == 0 {
		e.logger.Warn("Entity extraction model returned no choices, using heuristic fallback")
		return e.fallback.Extract(ctx, text)
	}

	raw := strings.TrimSpace(resp.Choices[0].Message.Content)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var parsed []ExtractedEntity
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &parsed); err != nil {
		e.logger.Warn("Entity extraction response was not valid JSON, using heuristic fallback", zap.Error(err))
		return e.fallback.Extract(ctx, text)
	}

	return dedupeEntities(parsed), nil
}

func dedupeEntities(raw []ExtractedEntity) []ExtractedEntity {
	byKey := make(map[string]int)
	var entities []ExtractedEntity
	for _, ent := range raw {
		if ent.CanonicalName == "" {
			continue
		}
		if ent.EntityType == "" {
			ent.EntityType = EntityTypeUnknown
		}
		aliases := mergeAlias(ent.Aliases, ent.CanonicalName)
		key := strings.ToLower(ent.CanonicalName)
		idx, seen := byKey[key]
		if !seen {
			byKey[key] = len(entities)
			entities = append(entities, ExtractedEntity{
				CanonicalName: ent.CanonicalName,
				EntityType:    ent.EntityType,
				Aliases:       aliases,
			})
			continue
		}
		entities[idx].Aliases = MergeAliases(entities[idx].Aliases, aliases)
	}
	return entities
}

// Select resolves extractor availability once at startup into an explicit
// strategy, rather than probing per call.
func Select(cfg *config.Config) Extractor {
	log := logger.Get()
	if cfg.HasOpenAI() && cfg.ExtractionModel != "" {
		log.Info("Using model-backed entity extractor", zap.String("model", cfg.ExtractionModel))
		return NewModelExtractor(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.ExtractionModel)
	}
	log.Info("Entity recognition model unavailable, using capitalized-phrase heuristic")
	return NewRegexExtractor()
}
