package loader

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"survey-forms/internal/common/logger"
	"survey-forms/internal/common/metrics"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "survey:schema:"

// CachedLoader keeps loaded documents in Redis for ttl. Redis failures are
// logged and never fail a load.
type CachedLoader struct {
	next   SchemaLoader
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedLoader(next SchemaLoader, rdb *redis.Client, ttl time.Duration, log logger.Logger) *CachedLoader {
	return &CachedLoader{next: next, redis: rdb, ttl: ttl, logger: log}
}

// CacheKey is the Redis key a file name is cached under.
func CacheKey(fileName string) string {
	return cacheKeyPrefix + fileName
}

func (c *CachedLoader) Load(ctx context.Context, fileName string) (interface{}, error) {
	key := CacheKey(fileName)

	cached, err := c.redis.Get(ctx, key).Result()
	switch {
	case err == nil:
		var doc interface{}
		if jsonErr := json.Unmarshal([]byte(cached), &doc); jsonErr == nil {
			metrics.SchemaCacheHits.WithLabelValues("hit").Inc()
			return doc, nil
		}
		c.logger.Warn("discarding unreadable cached form definition", map[string]interface{}{"key": key})
	case errors.Is(err, redis.Nil):
		metrics.SchemaCacheHits.WithLabelValues("miss").Inc()
	default:
		metrics.SchemaCacheHits.WithLabelValues("error").Inc()
		c.logger.Warn("schema cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
	}

	doc, err := c.next.Load(ctx, fileName)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return doc, nil
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("schema cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
	return doc, nil
}

// Invalidate drops the cached document for fileName.
func (c *CachedLoader) Invalidate(ctx context.Context, fileName string) error {
	return c.redis.Del(ctx, CacheKey(fileName)).Err()
}
