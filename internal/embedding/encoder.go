package embedding

import (
	"context"
	"errors"
	"strings"
)

// ErrEmptyText is returned when a caller asks for the embedding of empty or
// whitespace-only text. Encoders never hand back a silent zero vector.
var ErrEmptyText = errors.New("cannot encode empty text")

// Encoder maps text to a fixed-size vector. Implementations are
// deterministic for a fixed model version, so embeddings can be cached and
// used as test fixtures.
type Encoder interface {
	Name() string
	Dimension() int
	Encode(ctx context.Context, text string) ([]float32, error)
}

func validateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	return nil
}
