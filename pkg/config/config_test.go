package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Corpus:    CorpusConfig{Path: "./data/corpus.json", SentencesPerChunk: 5, OverlapSentences: 1},
		Encoder:   EncoderConfig{Type: "tfidf"},
		Retrieval: RetrievalConfig{K: 3, SimilarityThreshold: 0.25, TimeoutMs: 10000},
		Local:     LocalModelConfig{TimeoutMs: 60000},
		Remote:    RemoteModelConfig{TimeoutMs: 30000},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(validConfig()))

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing corpus path", func(c *Config) { c.Corpus.Path = "" }},
		{"zero k", func(c *Config) { c.Retrieval.K = 0 }},
		{"negative threshold", func(c *Config) { c.Retrieval.SimilarityThreshold = -0.1 }},
		{"threshold above one", func(c *Config) { c.Retrieval.SimilarityThreshold = 1.5 }},
		{"unknown encoder", func(c *Config) { c.Encoder.Type = "word2vec" }},
		{"openai encoder without base url", func(c *Config) { c.Encoder.Type = "openai" }},
		{"zero retrieval timeout", func(c *Config) { c.Retrieval.TimeoutMs = 0 }},
		{"negative local timeout", func(c *Config) { c.Local.TimeoutMs = -1 }},
		{"zero remote timeout", func(c *Config) { c.Remote.TimeoutMs = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}

func TestTierEnablement(t *testing.T) {
	assert.False(t, LocalModelConfig{}.Enabled())
	assert.True(t, LocalModelConfig{ModelPath: "/models/chef-7b.gguf"}.Enabled())

	assert.False(t, RemoteModelConfig{}.Enabled())
	assert.True(t, RemoteModelConfig{APIKey: "sk-test"}.Enabled())
}

func TestTimeoutConversion(t *testing.T) {
	assert.Equal(t, 10*time.Second, RetrievalConfig{TimeoutMs: 10000}.Timeout())
	assert.Equal(t, time.Minute, LocalModelConfig{TimeoutMs: 60000}.Timeout())
	assert.Equal(t, 30*time.Second, RemoteModelConfig{TimeoutMs: 30000}.Timeout())
}
