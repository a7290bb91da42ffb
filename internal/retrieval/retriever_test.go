package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cookassist/backend/internal/corpus"
	"github.com/cookassist/backend/internal/embedding"
)

func buildFixture(t *testing.T, threshold float64) *Retriever {
	t.Helper()

	store := corpus.NewStore([]corpus.Document{
		{ID: "boil", Text: "Boil water by heating it to 100°C", SourceType: "fact"},
		{ID: "fry", Text: "Pan-fry requires medium heat and oil", SourceType: "fact"},
	})

	encoder := embedding.NewTFIDF()
	texts := make([]string, 0, store.Len())
	for _, d := range store.All() {
		texts = append(texts, d.Text)
	}
	require.NoError(t, encoder.Fit(texts))

	index, err := BuildIndex(context.Background(), store, encoder)
	require.NoError(t, err)

	return NewRetriever(encoder, index, store, threshold)
}

func TestRetrieveBoilWaterScenario(t *testing.T) {
	r := buildFixture(t, 0)

	result, err := r.Retrieve(context.Background(), "how do I boil water", 1)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "boil", result[0].Document.ID)
	assert.Greater(t, result[0].Score, 0.0)
}

func TestRetrieveScoresNonIncreasing(t *testing.T) {
	r := buildFixture(t, 0)

	result, err := r.Retrieve(context.Background(), "heat water and oil", 2)
	require.NoError(t, err)
	for i := 1; i < len(result); i++ {
		assert.GreaterOrEqual(t, result[i-1].Score, result[i].Score)
	}
}

func TestRetrieveThresholdFilters(t *testing.T) {
	r := buildFixture(t, 0.9)

	result, err := r.Retrieve(context.Background(), "asdfqwerty nonsense", 3)
	require.NoError(t, err)
	assert.Empty(t, result, "irrelevant query must yield no passages above a high threshold")
}

func TestRetrieveEmptyQuestionErrors(t *testing.T) {
	r := buildFixture(t, 0)

	_, err := r.Retrieve(context.Background(), "   ", 3)
	assert.Error(t, err)
}

func TestResultDocumentIDs(t *testing.T) {
	r := buildFixture(t, 0)

	result, err := r.Retrieve(context.Background(), "how do I boil water", 2)
	require.NoError(t, err)
	ids := result.DocumentIDs()
	require.NotEmpty(t, ids)
	assert.Equal(t, "boil", ids[0])
}
