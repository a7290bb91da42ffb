package corpus

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkShortDocumentPassesThrough(t *testing.T) {
	c := NewChunker(5, 1)
	doc := Document{ID: "boil", Text: "Bring the water to a boil. Add salt.", SourceType: "fact"}

	out, err := c.Chunk(doc)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, doc, out[0], "documents within the chunk size keep their identity")
}

func TestChunkLongDocument(t *testing.T) {
	sentences := make([]string, 8)
	for i := range sentences {
		sentences[i] = fmt.Sprintf("Step %d of the recipe goes here.", i+1)
	}
	doc := Document{ID: "stew", Text: strings.Join(sentences, " "), SourceType: "recipe"}

	c := NewChunker(3, 1)
	out, err := c.Chunk(doc)
	require.NoError(t, err)
	require.Len(t, out, 4)

	for i, chunk := range out {
		assert.Equal(t, fmt.Sprintf("stew_chunk_%d", i), chunk.ID)
		assert.Equal(t, "recipe", chunk.SourceType)
		assert.NotEmpty(t, chunk.Text)
	}

	// Step 2 window starts where overlap begins: sentences 3..5.
	assert.Contains(t, out[1].Text, "Step 3")
	assert.Contains(t, out[0].Text, "Step 3", "overlapping sentence appears in both chunks")
}

func TestChunkCoversAllSentences(t *testing.T) {
	sentences := make([]string, 11)
	for i := range sentences {
		sentences[i] = fmt.Sprintf("Sentence number %d ends here.", i+1)
	}
	doc := Document{ID: "doc", Text: strings.Join(sentences, " ")}

	c := NewChunker(4, 0)
	out, err := c.Chunk(doc)
	require.NoError(t, err)

	joined := ""
	for _, chunk := range out {
		joined += chunk.Text + " "
	}
	for i := 1; i <= 11; i++ {
		assert.Contains(t, joined, fmt.Sprintf("Sentence number %d", i))
	}
}

func TestNewChunkerDefaults(t *testing.T) {
	// Invalid settings fall back to safe values instead of erroring.
	c := NewChunker(0, 5)
	assert.Equal(t, 5, c.sentencesPerChunk)
	assert.Equal(t, 0, c.overlapSentences, "overlap must stay below the chunk size")
}
