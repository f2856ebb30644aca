package forecasts

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/redis/go-redis/v9"

	"skycast/internal/types"
)

// Cache stores forecast payloads by key. A miss is (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) (*types.ForecastPayload, bool, error)
	Set(ctx context.Context, key string, p *types.ForecastPayload) error
}

// CacheKey builds the cache key for a city lookup. Cities differing only in
// case or surrounding whitespace share an entry.
func CacheKey(namespace, city string) string {
	return namespace + ":" + strings.ToLower(strings.TrimSpace(city))
}

// NoopCache never stores anything.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) (*types.ForecastPayload, bool, error) {
	return nil, false, nil
}

func (NoopCache) Set(context.Context, string, *types.ForecastPayload) error { return nil }

type entry struct {
	data      *types.ForecastPayload
	expiresAt time.Time
}

// MemoryCache is an in-process TTL cache. Expired entries are dropped lazily
// on read and by Sweep.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]entry
	ttl   time.Duration
	now   func() time.Time
}

// NewMemoryCache creates a MemoryCache with the given entry lifetime.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{items: make(map[string]entry), ttl: ttl, now: time.Now}
}

// Get returns a copy of the cached payload.
func (c *MemoryCache) Get(_ context.Context, key string) (*types.ForecastPayload, bool, error) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if c.now().After(e.expiresAt) {
		c.mu.Lock()
		if cur, ok := c.items[key]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return nil, false, nil
	}
	return e.data.Clone(), true, nil
}

// Set stores a copy of p.
func (c *MemoryCache) Set(_ context.Context, key string, p *types.ForecastPayload) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = entry{data: p.Clone(), expiresAt: c.now().Add(c.ttl)}
	return nil
}

// Sweep removes expired entries and returns how many were dropped.
func (c *MemoryCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	n := 0
	for k, e := range c.items {
		if now.After(e.expiresAt) {
			delete(c.items, k)
			n++
		}
	}
	return n
}

// Len returns the number of stored entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// redisClient is the subset of *redis.Client used by RedisCache.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisCache shares payloads between service replicas. Values are
// zstd-compressed timeline JSON documents.
type RedisCache struct {
	rdb    redisClient
	ttl    time.Duration
	prefix string
	enc    *zstd.Encoder
	dec    *zstd.Decoder
}

// NewRedisCache wraps rdb. Keys are stored under "skycast:forecast:".
func NewRedisCache(rdb redisClient, ttl time.Duration) (*RedisCache, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalCache, "failed to create zstd encoder", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalCache, "failed to create zstd decoder", err)
	}
	return &RedisCache{rdb: rdb, ttl: ttl, prefix: "skycast:forecast:", enc: enc, dec: dec}, nil
}

// NewRedisClient parses a redis:// URL into a client.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalCache, "invalid REDIS_URL", err)
	}
	return redis.NewClient(opts), nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (*types.ForecastPayload, bool, error) {
	b, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, types.NewAppError(types.ErrCodeInternalCache, "redis get failed", err)
	}
	raw, err := c.dec.DecodeAll(b, nil)
	if err != nil {
		return nil, false, types.NewAppError(types.ErrCodeInternalCache, "cached payload is not valid zstd", err)
	}
	var p types.ForecastPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false, types.NewAppError(types.ErrCodeInternalCache, "cached payload is corrupt", err)
	}
	if err := p.Validate(); err != nil {
		return nil, false, types.NewAppError(types.ErrCodeInternalCache, "cached payload is incomplete", err)
	}
	return &p, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, p *types.ForecastPayload) error {
	b, err := json.Marshal(p)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalCache, "failed to encode payload", err)
	}
	if err := c.rdb.Set(ctx, c.prefix+key, c.enc.EncodeAll(b, nil), c.ttl).Err(); err != nil {
		return types.NewAppError(types.ErrCodeInternalCache, "redis set failed", err)
	}
	return nil
}
