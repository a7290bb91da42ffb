package corpus

import (
	"fmt"
	"strings"

	"github.com/jdkato/prose/v2"
)

// Chunker splits long documents into passage-sized pieces along sentence
// boundaries, with a small sentence overlap so instructions that span a
// boundary stay retrievable.
type Chunker struct {
	sentencesPerChunk int
	overlapSentences  int
}

func NewChunker(sentencesPerChunk, overlapSentences int) *Chunker {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 5
	}
	if overlapSentences < 0 || overlapSentences >= sentencesPerChunk {
		overlapSentences = 0
	}
	return &Chunker{
		sentencesPerChunk: sentencesPerChunk,
		overlapSentences:  overlapSentences,
	}
}

// Chunk returns the document unchanged when it fits in a single chunk,
// otherwise a sequence of derived documents with stable _chunk_N IDs.
func (c *Chunker) Chunk(doc Document) ([]Document, error) {
	sentences, err := splitSentences(doc.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to segment document %s: %w", doc.ID, err)
	}
	if len(sentences) <= c.sentencesPerChunk {
		return []Document{doc}, nil
	}

	step := c.sentencesPerChunk - c.overlapSentences
	var out []Document
	for start, n := 0, 0; start < len(sentences); start, n = start+step, n+1 {
		end := start + c.sentencesPerChunk
		if end > len(sentences) {
			end = len(sentences)
		}
		out = append(out, Document{
			ID:         fmt.Sprintf("%s_chunk_%d", doc.ID, n),
			Text:       strings.Join(sentences[start:end], " "),
			SourceType: doc.SourceType,
		})
		if end == len(sentences) {
			break
		}
	}
	return out, nil
}

func splitSentences(text string) ([]string, error) {
	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil, err
	}
	sentences := doc.Sentences()
	out := make([]string, 0, len(sentences))
	for _, s := range sentences {
		trimmed := strings.TrimSpace(s.Text)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out, nil
}
