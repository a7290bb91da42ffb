package retrieval

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cookassist/backend/internal/corpus"
	"github.com/cookassist/backend/internal/embedding"
	"github.com/cookassist/backend/internal/vector"
	"github.com/cookassist/backend/pkg/logger"
)

// batchEncoder is implemented by encoders that can embed many texts per
// round-trip; corpus indexing uses it when available.
type batchEncoder interface {
	EncodeBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// BuildIndex embeds every corpus document and builds the vector index over
// the results. Called once at startup and on explicit reload; a failure
// here is fatal because the process cannot serve any query without an
// index.
func BuildIndex(ctx context.Context, store *corpus.Store, encoder embedding.Encoder) (*vector.Index, error) {
	startTime := time.Now()
	documents := store.All()

	var vectors [][]float32
	if batcher, ok := encoder.(batchEncoder); ok {
		texts := make([]string, len(documents))
		for i, d := range documents {
			texts[i] = d.Text
		}
		batched, err := batcher.EncodeBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("failed to embed corpus: %w", err)
		}
		vectors = batched
	} else {
		vectors = make([][]float32, len(documents))
		for i, d := range documents {
			vec, err := encoder.Encode(ctx, d.Text)
			if err != nil {
				return nil, fmt.Errorf("failed to embed document %s: %w", d.ID, err)
			}
			vectors[i] = vec
		}
	}

	if len(vectors) != len(documents) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, expected %d", len(vectors), len(documents))
	}

	entries := make([]vector.Entry, len(documents))
	for i, d := range documents {
		entries[i] = vector.Entry{DocumentID: d.ID, Embedding: vectors[i]}
	}

	index := vector.NewIndex()
	if err := index.Build(entries); err != nil {
		return nil, fmt.Errorf("failed to build index: %w", err)
	}

	logger.Info("Vector index built",
		zap.String("encoder", encoder.Name()),
		zap.Int("entries", index.Len()),
		zap.Int("dimension", encoder.Dimension()),
		zap.Duration("elapsed", time.Since(startTime)),
	)

	return index, nil
}
