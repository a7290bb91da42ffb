package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexTopK(t *testing.T) {
	idx := NewIndex()
	err := idx.Build([]Entry{
		{DocumentID: "a", Embedding: []float32{1, 0, 0}},
		{DocumentID: "b", Embedding: []float32{0, 1, 0}},
		{DocumentID: "c", Embedding: []float32{1, 1, 0}},
	})
	require.NoError(t, err)

	t.Run("ranked by descending similarity", func(t *testing.T) {
		hits, err := idx.TopK([]float32{1, 0, 0}, 3)
		require.NoError(t, err)
		require.Len(t, hits, 3)
		assert.Equal(t, "a", hits[0].DocumentID)
		assert.Equal(t, "c", hits[1].DocumentID)
		assert.Equal(t, "b", hits[2].DocumentID)
		for i := 1; i < len(hits); i++ {
			assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score, "scores must be non-increasing")
		}
	})

	t.Run("k larger than index", func(t *testing.T) {
		hits, err := idx.TopK([]float32{1, 0, 0}, 10)
		require.NoError(t, err)
		assert.Len(t, hits, 3)
	})

	t.Run("k must be positive", func(t *testing.T) {
		_, err := idx.TopK([]float32{1, 0, 0}, 0)
		assert.Error(t, err)
		_, err = idx.TopK([]float32{1, 0, 0}, -1)
		assert.Error(t, err)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		_, err := idx.TopK([]float32{1, 0}, 1)
		assert.Error(t, err)
	})
}

func TestIndexTopKTiesKeepInsertionOrder(t *testing.T) {
	idx := NewIndex()
	// b and c are identical, so they tie exactly; b was inserted first.
	err := idx.Build([]Entry{
		{DocumentID: "a", Embedding: []float32{0, 1}},
		{DocumentID: "b", Embedding: []float32{1, 0}},
		{DocumentID: "c", Embedding: []float32{1, 0}},
	})
	require.NoError(t, err)

	hits, err := idx.TopK([]float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "b", hits[0].DocumentID)
	assert.Equal(t, "c", hits[1].DocumentID)
	assert.Equal(t, "a", hits[2].DocumentID)
}

func TestIndexTopKEmptyIndex(t *testing.T) {
	idx := NewIndex()

	hits, err := idx.TopK([]float32{1, 0, 0}, 5)
	require.NoError(t, err, "empty index must not error")
	assert.Empty(t, hits)
}

func TestIndexBuildValidation(t *testing.T) {
	t.Run("mixed dimensions rejected", func(t *testing.T) {
		idx := NewIndex()
		err := idx.Build([]Entry{
			{DocumentID: "a", Embedding: []float32{1, 0}},
			{DocumentID: "b", Embedding: []float32{1, 0, 0}},
		})
		assert.Error(t, err)
	})

	t.Run("empty embedding rejected", func(t *testing.T) {
		idx := NewIndex()
		err := idx.Build([]Entry{{DocumentID: "a", Embedding: nil}})
		assert.Error(t, err)
	})

	t.Run("build replaces contents", func(t *testing.T) {
		idx := NewIndex()
		require.NoError(t, idx.Build([]Entry{
			{DocumentID: "old", Embedding: []float32{1, 0}},
		}))
		require.NoError(t, idx.Build([]Entry{
			{DocumentID: "new", Embedding: []float32{1, 0}},
		}))

		hits, err := idx.TopK([]float32{1, 0}, 5)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "new", hits[0].DocumentID)
	})
}

func TestCosine(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{3, 2, 1}

	t.Run("symmetric", func(t *testing.T) {
		assert.Equal(t, Cosine(a, b), Cosine(b, a))
	})

	t.Run("self similarity is one", func(t *testing.T) {
		assert.InDelta(t, 1.0, Cosine(a, a), 1e-9)
	})

	t.Run("zero vector scores exactly zero", func(t *testing.T) {
		zero := []float32{0, 0, 0}
		assert.Equal(t, 0.0, Cosine(a, zero))
		assert.Equal(t, 0.0, Cosine(zero, a))
		assert.Equal(t, 0.0, Cosine(zero, zero))
	})

	t.Run("orthogonal vectors score zero", func(t *testing.T) {
		assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	})
}
