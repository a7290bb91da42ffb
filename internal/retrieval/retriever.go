package retrieval

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cookassist/backend/internal/corpus"
	"github.com/cookassist/backend/internal/embedding"
	"github.com/cookassist/backend/internal/metrics"
	"github.com/cookassist/backend/internal/vector"
	"github.com/cookassist/backend/pkg/logger"
)

// ScoredDocument is one retrieved passage with its similarity score.
type ScoredDocument struct {
	Document corpus.Document
	Score    float64
}

// Result is ordered by non-increasing score and never longer than the
// requested k. Empty after threshold filtering is a valid outcome meaning
// "no relevant context".
type Result []ScoredDocument

// DocumentIDs lists the retrieved document IDs in rank order, for response
// provenance.
func (r Result) DocumentIDs() []string {
	ids := make([]string, len(r))
	for i, sd := range r {
		ids[i] = sd.Document.ID
	}
	return ids
}

// Retriever encodes a question and ranks corpus passages against it,
// dropping hits below the similarity threshold even when fewer than k
// remain.
type Retriever struct {
	encoder   embedding.Encoder
	index     *vector.Index
	store     *corpus.Store
	threshold float64
}

func NewRetriever(encoder embedding.Encoder, index *vector.Index, store *corpus.Store, threshold float64) *Retriever {
	return &Retriever{
		encoder:   encoder,
		index:     index,
		store:     store,
		threshold: threshold,
	}
}

func (r *Retriever) Retrieve(ctx context.Context, question string, k int) (Result, error) {
	queryVec, err := r.encoder.Encode(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to encode question: %w", err)
	}

	hits, err := r.index.TopK(queryVec, k)
	if err != nil {
		return nil, fmt.Errorf("index lookup failed: %w", err)
	}

	result := make(Result, 0, len(hits))
	for _, hit := range hits {
		if hit.Score < r.threshold {
			// Hits are sorted, everything after this is below threshold too.
			break
		}
		doc, ok := r.store.Get(hit.DocumentID)
		if !ok {
			logger.Warn("Index entry points at unknown document", zap.String("document_id", hit.DocumentID))
			continue
		}
		result = append(result, ScoredDocument{Document: doc, Score: hit.Score})
	}

	metrics.RetrievalResults.Observe(float64(len(result)))
	logger.Debug("Passages retrieved",
		zap.Int("requested_k", k),
		zap.Int("returned", len(result)),
		zap.Float64("threshold", r.threshold),
	)

	return result, nil
}
