package embedding

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOpenAIEncoderDimensionFixesOnce(t *testing.T) {
	e := NewOpenAIEncoder("http://127.0.0.1:8080/v1", "", "test-model", 0, time.Second)
	assert.Zero(t, e.Dimension())

	// Concurrent encodes all observe the same width; whichever lands first
	// must fix it without racing the others.
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.fixDimension(384)
		}()
	}
	wg.Wait()
	assert.Equal(t, 384, e.Dimension())

	e.fixDimension(768)
	assert.Equal(t, 384, e.Dimension(), "the first observed width wins")
}

func TestOpenAIEncoderConfiguredDimensionSticks(t *testing.T) {
	e := NewOpenAIEncoder("http://127.0.0.1:8080/v1", "", "test-model", 1536, time.Second)
	e.fixDimension(384)
	assert.Equal(t, 1536, e.Dimension(), "an explicitly configured width is never overwritten")
}
