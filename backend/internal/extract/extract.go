package extract

import (
	"context"
	"regexp"
	"strings"
)

// RelationTypeRelated is the generic type assigned by the adjacency
// heuristic. It labels the relation as a placeholder, not a semantic claim.
const RelationTypeRelated = "RELATED_TO"

// EntityTypeUnknown is assigned when no recognition model classified the entity
const EntityTypeUnknown = "UNKNOWN"

// ExtractedEntity is one canonical entity mention found in text
type ExtractedEntity struct {
	CanonicalName string   `json:"canonical_name"`
	EntityType    string   `json:"entity_type"`
	Aliases       []string `json:"aliases"`
}

// ExtractedRelation links two extracted entities by canonical name
type ExtractedRelation struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	RelationType string `json:"relation_type"`
}

// Extractor finds named entities in raw text. Two implementations exist:
// a recognition-model-backed one and the capitalized-phrase heuristic
// fallback. Which one runs is resolved once at startup, never per call.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]ExtractedEntity, error)
}

// capitalizedPhrase matches runs of capitalized words ("Apollo", "New York")
var capitalizedPhrase = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\b`)

// RegexExtractor is the heuristic fallback: sequences of capitalized words
// become entities. Deduplication is by lowercased canonical name; the first
// occurrence's casing is kept, later occurrences only contribute aliases.
type RegexExtractor struct{}

// NewRegexExtractor creates the heuristic extractor
func NewRegexExtractor() *RegexExtractor {
	return &RegexExtractor{}
}

// Extract finds capitalized phrases in text
func (e *RegexExtractor) Extract(_ context.Context, text string) ([]ExtractedEntity, error) {
	if text == "" {
		return nil, nil
	}

	byKey := make(map[string]int)
	var entities []ExtractedEntity
	for _, match := range capitalizedPhrase.FindAllString(text, -1) {
		key := strings.ToLower(match)
		idx, seen := byKey[key]
		if !seen {
			byKey[key] = len(entities)
			entities = append(entities, ExtractedEntity{
				CanonicalName: match,
				EntityType:    EntityTypeUnknown,
				Aliases:       []string{match},
			})
			continue
		}
		entities[idx].Aliases = mergeAlias(entities[idx].Aliases, match)
	}
	return entities, nil
}

// ExtractRelations connects each entity to the next in extraction order
// with a generic RELATED_TO edge. This adjacency heuristic is a placeholder,
// not relation extraction.
func ExtractRelations(_ string, entities []ExtractedEntity) []ExtractedRelation {
	if len(entities) < 2 {
		return nil
	}
	relations := make([]ExtractedRelation, 0, len(entities)-1)
	for i := 0; i < len(entities)-1; i++ {
		relations = append(relations, ExtractedRelation{
			Source:       entities[i].CanonicalName,
			Target:       entities[i+1].CanonicalName,
			RelationType: RelationTypeRelated,
		})
	}
	return relations
}

// MergeAliases unions two alias sets preserving insertion order
func MergeAliases(existing, incoming []string) []string {
	merged := existing
	for _, alias := range incoming {
		merged = mergeAlias(merged, alias)
	}
	return merged
}

func mergeAlias(aliases []string, alias string) []string {
	for _, a := range aliases {
		if a == alias {
			return aliases
		}
	}
	return append(aliases, alias)
}
