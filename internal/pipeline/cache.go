package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cookassist/backend/internal/metrics"
	"github.com/cookassist/backend/pkg/logger"
	"github.com/cookassist/backend/pkg/utils"
)

// AnswerCache is an optional redis lookaside cache for full responses,
// keyed by the normalised question. A hit keeps the provenance the answer
// was produced with. All cache failures are logged and ignored; the
// pipeline works identically without the cache.
type AnswerCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAnswerCache(client *redis.Client, ttl time.Duration) *AnswerCache {
	return &AnswerCache{client: client, ttl: ttl}
}

func (c *AnswerCache) Get(ctx context.Context, question string) (*Response, bool) {
	data, err := c.client.Get(ctx, c.key(question)).Bytes()
	if err == redis.Nil {
		metrics.CacheMisses.WithLabelValues("answer").Inc()
		return nil, false
	}
	if err != nil {
		logger.Warn("Answer cache read failed", zap.Error(err))
		metrics.CacheMisses.WithLabelValues("answer").Inc()
		return nil, false
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		logger.Warn("Discarding undecodable cached answer", zap.Error(err))
		metrics.CacheMisses.WithLabelValues("answer").Inc()
		return nil, false
	}

	metrics.CacheHits.WithLabelValues("answer").Inc()
	return &resp, true
}

func (c *AnswerCache) Set(ctx context.Context, question string, resp *Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		logger.Warn("Failed to marshal response for caching", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, c.key(question), data, c.ttl).Err(); err != nil {
		logger.Warn("Answer cache write failed", zap.Error(err))
	}
}

func (c *AnswerCache) key(question string) string {
	normalised := strings.Join(strings.Fields(strings.ToLower(question)), " ")
	return fmt.Sprintf("answer:%s", utils.HashString(normalised))
}
