package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"dashboard-assistant-be/internal/pkg/logger"
	"dashboard-assistant-be/internal/repository/contract"
	"dashboard-assistant-be/pkg/knowledge/engine"

	"github.com/patrickmn/go-cache"
)

const cacheLogModule = "CACHE"

// ContextCache is a bounded, time-keyed cache of gathered chat context.
// When full, the entry closest to expiry is evicted.
type ContextCache struct {
	mu         sync.Mutex
	cache      *cache.Cache
	maxEntries int
	logger     logger.ILogger
}

var _ contract.ContextCache = (*ContextCache)(nil)

func NewContextCache(ttl time.Duration, maxEntries int, log logger.ILogger) *ContextCache {
	if maxEntries <= 0 {
		maxEntries = 500
	}
	return &ContextCache{
		cache:      cache.New(ttl, ttl*2),
		maxEntries: maxEntries,
		logger:     log,
	}
}

func (c *ContextCache) Get(ctx context.Context, owner, key string) (*engine.SearchResult, bool) {
	x, found := c.cache.Get(cacheKey(owner, key))
	if !found {
		return nil, false
	}
	return x.(*engine.SearchResult), true
}

func (c *ContextCache) Set(ctx context.Context, owner, key string, result *engine.SearchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := cacheKey(owner, key)
	if _, found := c.cache.Get(k); !found && c.cache.ItemCount() >= c.maxEntries {
		c.cache.DeleteExpired()
		if c.cache.ItemCount() >= c.maxEntries {
			c.evictOldest()
		}
	}
	c.cache.SetDefault(k, result)
}

func (c *ContextCache) InvalidateOwner(ctx context.Context, owner string) {
	prefix := owner + "|"
	removed := 0
	for k := range c.cache.Items() {
		if strings.HasPrefix(k, prefix) {
			c.cache.Delete(k)
			removed++
		}
	}
	if removed > 0 {
		c.logger.Debug(cacheLogModule, "Cached context invalidated", map[string]interface{}{
			"owner":   owner,
			"removed": removed,
		})
	}
}

// Len is the number of live entries
func (c *ContextCache) Len() int {
	return c.cache.ItemCount()
}

func (c *ContextCache) evictOldest() {
	var oldestKey string
	var oldest int64
	for k, item := range c.cache.Items() {
		if oldestKey == "" || item.Expiration < oldest {
			oldestKey, oldest = k, item.Expiration
		}
	}
	if oldestKey != "" {
		c.cache.Delete(oldestKey)
	}
}

func cacheKey(owner, key string) string {
	return owner + "|" + key
}
