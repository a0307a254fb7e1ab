package geocode

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vetperto/providersearch/internal/model"
)

// Cache stores resolved coordinates keyed by normalized location token.
// Entries expire after the TTL chosen by the composition root. The cache is
// shared read/write across concurrent searches.
type Cache interface {
	Get(ctx context.Context, key string) (*model.Coordinate, bool)
	Set(ctx context.Context, key string, coord model.Coordinate)
}

// ─── Redis-backed cache ─────────────────────────────────────

const redisKeyPrefix = "geocode:"

// RedisCache stores entries in Redis so all instances share lookups.
// Redis owns TTL expiry; misses and errors both read as "not cached".
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a Redis-backed geocode cache with the given TTL.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Get returns the cached coordinate for key, if present and unexpired.
func (c *RedisCache) Get(ctx context.Context, key string) (*model.Coordinate, bool) {
	val, err := c.client.Get(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		return nil, false
	}

	var coord model.Coordinate
	if _, err := fmt.Sscanf(val, "%f,%f", &coord.Lat, &coord.Lng); err != nil {
		return nil, false
	}
	return &coord, true
}

// Set stores the coordinate under key. Write errors are swallowed: the cache
// is an optimization, never a dependency.
func (c *RedisCache) Set(ctx context.Context, key string, coord model.Coordinate) {
	val := fmt.Sprintf("%f,%f", coord.Lat, coord.Lng)
	_ = c.client.Set(ctx, redisKeyPrefix+key, val, c.ttl).Err()
}

// ─── In-memory cache ────────────────────────────────────────

type memoryEntry struct {
	coord     model.Coordinate
	expiresAt time.Time
}

// MemoryCache is a process-local TTL cache. Expired entries are purged
// lazily on access and on write.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates an in-memory geocode cache with the given TTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns the cached coordinate for key, if present and unexpired.
func (c *MemoryCache) Get(_ context.Context, key string) (*model.Coordinate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}

	coord := entry.coord
	return &coord, true
}

// Set stores the coordinate under key and sweeps expired entries.
func (c *MemoryCache) Set(_ context.Context, key string, coord model.Coordinate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}

	c.entries[key] = memoryEntry{coord: coord, expiresAt: now.Add(c.ttl)}
}
