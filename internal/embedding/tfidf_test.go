package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fittedTFIDF(t *testing.T) *TFIDF {
	t.Helper()
	e := NewTFIDF()
	err := e.Fit([]string{
		"Boil water by heating it to 100 degrees",
		"Pan-fry requires medium heat and oil",
		"Baking bread needs a hot oven and patience",
	})
	require.NoError(t, err)
	return e
}

func TestTFIDFFit(t *testing.T) {
	t.Run("empty corpus rejected", func(t *testing.T) {
		e := NewTFIDF()
		assert.Error(t, e.Fit(nil))
	})

	t.Run("dimension is vocabulary size", func(t *testing.T) {
		e := fittedTFIDF(t)
		assert.Greater(t, e.Dimension(), 0)
	})
}

func TestTFIDFEncode(t *testing.T) {
	e := fittedTFIDF(t)
	ctx := context.Background()

	t.Run("deterministic", func(t *testing.T) {
		a, err := e.Encode(ctx, "how do I boil water")
		require.NoError(t, err)
		b, err := e.Encode(ctx, "how do I boil water")
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("empty text rejected", func(t *testing.T) {
		_, err := e.Encode(ctx, "")
		assert.ErrorIs(t, err, ErrEmptyText)
		_, err = e.Encode(ctx, "   \t\n")
		assert.ErrorIs(t, err, ErrEmptyText)
	})

	t.Run("unfitted encoder rejected", func(t *testing.T) {
		_, err := NewTFIDF().Encode(ctx, "boil water")
		assert.Error(t, err)
	})

	t.Run("output is L2 normalised", func(t *testing.T) {
		vec, err := e.Encode(ctx, "boil water")
		require.NoError(t, err)
		norm := 0.0
		for _, v := range vec {
			norm += float64(v) * float64(v)
		}
		assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
	})

	t.Run("out of vocabulary text encodes to zero vector", func(t *testing.T) {
		vec, err := e.Encode(ctx, "asdfqwerty zzzz")
		require.NoError(t, err)
		for _, v := range vec {
			assert.Zero(t, v)
		}
	})

	t.Run("fixed dimension", func(t *testing.T) {
		vec, err := e.Encode(ctx, "boil water")
		require.NoError(t, err)
		assert.Len(t, vec, e.Dimension())
	})
}
