package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cookassist/backend/internal/metrics"
	"github.com/cookassist/backend/pkg/logger"
	"github.com/cookassist/backend/pkg/utils"
)

// CachedEncoder wraps another encoder with a redis lookaside cache keyed by
// content hash. Encoders are deterministic per model version, so a hit is
// always safe to serve. Cache failures degrade to a direct encode.
type CachedEncoder struct {
	inner  Encoder
	client *redis.Client
	ttl    time.Duration
}

func NewCachedEncoder(inner Encoder, client *redis.Client, ttl time.Duration) *CachedEncoder {
	return &CachedEncoder{inner: inner, client: client, ttl: ttl}
}

func (c *CachedEncoder) Name() string { return c.inner.Name() }

func (c *CachedEncoder) Dimension() int { return c.inner.Dimension() }

func (c *CachedEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	if err := validateText(text); err != nil {
		return nil, err
	}

	key := c.key(text)

	data, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var vec []float32
		if jsonErr := json.Unmarshal(data, &vec); jsonErr == nil {
			metrics.CacheHits.WithLabelValues("embedding").Inc()
			return vec, nil
		}
		logger.Warn("Discarding undecodable cached embedding", zap.String("key", key))
	} else if err != redis.Nil {
		logger.Warn("Embedding cache read failed", zap.Error(err))
	}
	metrics.CacheMisses.WithLabelValues("embedding").Inc()

	vec, err := c.inner.Encode(ctx, text)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(vec); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			logger.Warn("Embedding cache write failed", zap.Error(err))
		}
	}

	return vec, nil
}

func (c *CachedEncoder) key(text string) string {
	return fmt.Sprintf("embedding:%s:%s", c.inner.Name(), utils.HashString(text))
}
