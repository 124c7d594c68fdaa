package quotes

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"stockdash/internal/resilience"
)

// Cache memoizes encoded results for a fixed time.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is an in-process TTL cache.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty cache. A nil now uses time.Now.
func NewMemoryCache(now func() time.Time) *MemoryCache {
	if now == nil {
		now = time.Now
	}
	return &MemoryCache{entries: make(map[string]cacheEntry), now: now}
}

// Get returns a live entry. Expired entries are evicted on read.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set stores value for ttl.
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, expiresAt: c.now().Add(ttl)}
	return nil
}

// Len returns the number of stored entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// RedisCache stores entries in Redis with SET ... EX.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache creates a cache whose keys are prefixed with prefix.
func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

// Get returns the cached value, if any.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set stores value with an expiry of ttl.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, c.prefix+key, value, ttl).Err()
}

// GuardedCache puts a circuit breaker in front of a remote cache. While the
// breaker is open reads are misses and writes are skipped.
type GuardedCache struct {
	next    Cache
	breaker *resilience.Breaker
}

// NewGuardedCache wraps next with breaker.
func NewGuardedCache(next Cache, breaker *resilience.Breaker) *GuardedCache {
	return &GuardedCache{next: next, breaker: breaker}
}

// Get reads through the breaker.
func (c *GuardedCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	var found bool
	err := c.breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		data, found, err = c.next.Get(ctx, key)
		return err
	})
	if errors.Is(err, resilience.ErrOpen) {
		return nil, false, nil
	}
	return data, found, err
}

// Set writes through the breaker.
func (c *GuardedCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := c.breaker.Do(ctx, func(ctx context.Context) error {
		return c.next.Set(ctx, key, value, ttl)
	})
	if errors.Is(err, resilience.ErrOpen) {
		return nil
	}
	return err
}
