package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/cookassist/backend/pkg/logger"
	"github.com/cookassist/backend/pkg/retry"
)

// OpenAIEncoder calls an OpenAI-compatible embeddings endpoint. BaseURL may
// point at the hosted API or at a co-located llama.cpp server; the wire
// format is the same.
type OpenAIEncoder struct {
	client      *openai.Client
	model       string
	timeout     time.Duration
	retryConfig retry.Config

	// dimension is fixed by the first successful Encode when the
	// configuration leaves it at zero; queries run concurrently, so the
	// write needs the lock.
	mu        sync.Mutex
	dimension int
}

func NewOpenAIEncoder(baseURL, apiKey, model string, dimension int, timeout time.Duration) *OpenAIEncoder {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	retryConfig := retry.DefaultConfig()
	retryConfig.Logger = logger.GetLogger()

	logger.Info("Embedding encoder initialized",
		zap.String("encoder", "openai"),
		zap.String("base_url", cfg.BaseURL),
		zap.String("model", model),
	)

	return &OpenAIEncoder{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		dimension:   dimension,
		timeout:     timeout,
		retryConfig: retryConfig,
	}
}

func (e *OpenAIEncoder) Name() string { return "openai" }

// Dimension is the configured embedding width; the first successful Encode
// fixes it when the configuration left it at zero.
func (e *OpenAIEncoder) Dimension() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dimension
}

// fixDimension records the first observed embedding width. Later calls with
// a different width lose; the index rejects the mismatch.
func (e *OpenAIEncoder) fixDimension(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dimension == 0 {
		e.dimension = n
	}
}

func (e *OpenAIEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	if err := validateText(text); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var embedding []float32

	err := retry.Do(ctx, e.retryConfig, func() error {
		resp, err := e.client.CreateEmbeddings(
			ctx,
			openai.EmbeddingRequest{
				Input: []string{text},
				Model: openai.EmbeddingModel(e.model),
			},
		)
		if err != nil {
			return fmt.Errorf("failed to generate embedding: %w", err)
		}
		if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
			return fmt.Errorf("embeddings endpoint returned no vector")
		}

		embedding = make([]float32, len(resp.Data[0].Embedding))
		copy(embedding, resp.Data[0].Embedding)
		return nil
	})

	if err != nil {
		return nil, err
	}

	e.fixDimension(len(embedding))

	return embedding, nil
}

// EncodeBatch embeds corpus chunks in bounded batches at index build time.
func (e *OpenAIEncoder) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var embeddings [][]float32

	batchSize := 100
	for i := 0; i < len(texts); i += batchSize {
		end := i + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[i:end]

		batchCtx, cancel := context.WithTimeout(ctx, e.timeout)
		err := retry.Do(batchCtx, e.retryConfig, func() error {
			resp, err := e.client.CreateEmbeddings(
				batchCtx,
				openai.EmbeddingRequest{
					Input: batch,
					Model: openai.EmbeddingModel(e.model),
				},
			)
			if err != nil {
				return fmt.Errorf("failed to generate batch embeddings: %w", err)
			}
			for _, data := range resp.Data {
				vec := make([]float32, len(data.Embedding))
				copy(vec, data.Embedding)
				embeddings = append(embeddings, vec)
			}
			return nil
		})
		cancel()
		if err != nil {
			return nil, err
		}
	}

	logger.Debug("Batch embeddings generated", zap.Int("count", len(embeddings)))

	if len(embeddings) > 0 {
		e.fixDimension(len(embeddings[0]))
	}

	return embeddings, nil
}
