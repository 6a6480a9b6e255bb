package segment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit_Empty(t *testing.T) {
	assert.Empty(t, Split("", 10, 2))
	assert.Empty(t, Split("   ", 10, 2))
}

func TestSplit_SingleWindow(t *testing.T) {
	chunks := Split("one two three", 10, 2)
	assert.Equal(t, []string{"one two three"}, chunks)
}

func TestSplit_Overlap(t *testing.T) {
	text := "a b c d e f g h"
	chunks := Split(text, 4, 2)

	assert.Equal(t, []string{"a b c d", "c d e f", "e f g h"}, chunks)

	// Token counts across chunks cover at least the input tokens
	total := 0
	for _, c := range chunks {
		total += len(strings.Fields(c))
	}
	assert.GreaterOrEqual(t, total, len(strings.Fields(text)))
}

func TestSplit_OverlapAtLeastChunkSize(t *testing.T) {
	// overlap >= chunkSize must still terminate and cover every token
	text := "a b c d e"
	chunks := Split(text, 2, 5)

	assert.Equal(t, []string{"a b", "b c", "c d", "d e"}, chunks)
}

func TestSplit_NoOverlap(t *testing.T) {
	chunks := Split("a b c d e", 2, 0)
	assert.Equal(t, []string{"a b", "c d", "e"}, chunks)
}

func TestTokenCount(t *testing.T) {
	assert.Equal(t, 0, TokenCount(""))
	assert.Equal(t, 1, TokenCount("   "))
	assert.Equal(t, 3, TokenCount("one two three"))
}
