package implementation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"dashboard-assistant-be/internal/pkg/logger"
	"dashboard-assistant-be/internal/repository/contract"
	"dashboard-assistant-be/pkg/knowledge/engine"

	"github.com/redis/go-redis/v9"
)

const (
	cacheLogModule = "CACHE"
	contextPrefix  = "assistant:ctx:"
)

// RedisContextCache shares gathered context across instances. Redis
// expiry bounds it in time, maxmemory in size.
type RedisContextCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger logger.ILogger
}

var _ contract.ContextCache = (*RedisContextCache)(nil)

func NewRedisContextCache(rdb *redis.Client, ttl time.Duration, log logger.ILogger) *RedisContextCache {
	return &RedisContextCache{
		rdb:    rdb,
		ttl:    ttl,
		logger: log,
	}
}

func (c *RedisContextCache) Get(ctx context.Context, owner, key string) (*engine.SearchResult, bool) {
	raw, err := c.rdb.Get(ctx, redisKey(owner, key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn(cacheLogModule, "Context cache read failed", map[string]interface{}{"error": err.Error()})
		}
		return nil, false
	}

	var result engine.SearchResult
	if err := json.Unmarshal(raw, &result); err != nil {
		c.logger.Warn(cacheLogModule, "Context cache entry unreadable", map[string]interface{}{"error": err.Error()})
		return nil, false
	}
	return &result, true
}

func (c *RedisContextCache) Set(ctx context.Context, owner, key string, result *engine.SearchResult) {
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, redisKey(owner, key), raw, c.ttl).Err(); err != nil {
		c.logger.Warn(cacheLogModule, "Context cache write failed", map[string]interface{}{"error": err.Error()})
	}
}

func (c *RedisContextCache) InvalidateOwner(ctx context.Context, owner string) {
	iter := c.rdb.Scan(ctx, 0, contextPrefix+owner+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn(cacheLogModule, "Context cache scan failed", map[string]interface{}{"owner": owner, "error": err.Error()})
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn(cacheLogModule, "Context cache invalidation failed", map[string]interface{}{"owner": owner, "error": err.Error()})
		return
	}
	c.logger.Debug(cacheLogModule, "Cached context invalidated", map[string]interface{}{"owner": owner, "removed": len(keys)})
}

func redisKey(owner, key string) string {
	sum := sha256.Sum256([]byte(key))
	return contextPrefix + owner + ":" + hex.EncodeToString(sum[:16])
}
