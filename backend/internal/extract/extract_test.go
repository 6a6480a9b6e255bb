package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegexExtractor_CapitalizedPhrases(t *testing.T) {
	e := NewRegexExtractor()

	entities, err := e.Extract(context.Background(), "Alice met Bob in Apollo project.")
	require.NoError(t, err)
	require.Len(t, entities, 3)

	names := []string{entities[0].CanonicalName, entities[1].CanonicalName, entities[2].CanonicalName}
	assert.Equal(t, []string{"Alice", "Bob", "Apollo"}, names)
	for _, ent := range entities {
		assert.Equal(t, EntityTypeUnknown, ent.EntityType)
	}
}

func TestRegexExtractor_MultiWordPhrase(t *testing.T) {
	e := NewRegexExtractor()

	entities, err := e.Extract(context.Background(), "The office in New York opened.")
	require.NoError(t, err)

	names := make([]string, 0, len(entities))
	for _, ent := range entities {
		names = append(names, ent.CanonicalName)
	}
	assert.Contains(t, names, "New York")
}

func TestRegexExtractor_DedupKeepsFirstCasingOnce(t *testing.T) {
	e := NewRegexExtractor()

	entities, err := e.Extract(context.Background(), "Apollo launched. Apollo landed.")
	require.NoError(t, err)
	require.Len(t, entities, 1)

	assert.Equal(t, "Apollo", entities[0].CanonicalName)
	assert.Equal(t, []string{"Apollo"}, entities[0].Aliases)
}

func TestRegexExtractor_Empty(t *testing.T) {
	e := NewRegexExtractor()

	entities, err := e.Extract(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, entities)
}

func TestExtractRelations_AdjacentPairs(t *testing.T) {
	entities := []ExtractedEntity{
		{CanonicalName: "Alice"},
		{CanonicalName: "Bob"},
		{CanonicalName: "Apollo"},
	}

	relations := ExtractRelations("", entities)
	require.Len(t, relations, 2)

	assert.Equal(t, ExtractedRelation{Source: "Alice", Target: "Bob", RelationType: RelationTypeRelated}, relations[0])
	assert.Equal(t, ExtractedRelation{Source: "Bob", Target: "Apollo", RelationType: RelationTypeRelated}, relations[1])
}

func TestExtractRelations_TooFewEntities(t *testing.T) {
	assert.Empty(t, ExtractRelations("", nil))
	assert.Empty(t, ExtractRelations("", []ExtractedEntity{{CanonicalName: "Solo"}}))
}

func TestMergeAliases(t *testing.T) {
	merged := MergeAliases([]string{"Alice", "alice"}, []string{"alice", "A. Smith"})
	assert.Equal(t, []string{"Alice", "alice", "A. Smith"}, merged)
}
