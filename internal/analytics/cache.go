package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrJamesThe3rd/steppin/internal/logx"
)

// Cache memoizes reports. A miss is (nil, nil).
type Cache interface {
	Get(ctx context.Context, key string) (*Report, error)
	Set(ctx context.Context, key string, r *Report) error
}

// MemoryCache keeps only the latest report per scope; older versions can never
// be asked for again once the counters move.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	key    string
	report *Report
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[slotOf(key)]
	if !ok || e.key != key {
		return nil, nil
	}

	return e.report, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, r *Report) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[slotOf(key)] = memoryEntry{key: key, report: r}

	return nil
}

type RedisCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisCache(rdb redis.Cmdable, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (c *RedisCache) redisKey(key string) string {
	return fmt.Sprintf("pos:analytics:%s", key)
}

func (c *RedisCache) Get(ctx context.Context, key string) (*Report, error) {
	raw, err := c.rdb.Get(ctx, c.redisKey(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}

		return nil, fmt.Errorf("reading cached report: %w", err)
	}

	var r Report
	if err := json.Unmarshal(raw, &r); err != nil {
		logx.Warn().Err(err).Str("key", key).Msg("dropping undecodable cached report")
		return nil, nil
	}

	return &r, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, r *Report) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	if err := c.rdb.Set(ctx, c.redisKey(key), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("caching report: %w", err)
	}

	return nil
}
