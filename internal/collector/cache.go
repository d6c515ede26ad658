package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/m09352000/my-stock-dashboard-sub000/internal/model"
)

// Cache is a small TTL map safe for concurrent use.
type Cache[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry[V]
}

type cacheEntry[V any] struct {
	value   V
	expires time.Time
}

// NewCache creates a cache whose entries live for ttl.
func NewCache[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry[V]),
	}
}

// Get returns the cached value for key if it has not expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expires) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry[V]{value: value, expires: c.now().Add(c.ttl)}
}

// Purge drops every entry.
func (c *Cache[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

// CachedFetcher memoizes daily bars per code and window.
type CachedFetcher struct {
	Fetcher Fetcher
	cache   *Cache[model.Series]
}

// NewCachedFetcher wraps f with a TTL cache. A non-positive ttl disables caching.
func NewCachedFetcher(f Fetcher, ttl time.Duration) Fetcher {
	if ttl <= 0 {
		return f
	}
	return &CachedFetcher{Fetcher: f, cache: NewCache[model.Series](ttl)}
}

func (c *CachedFetcher) Name() string { return c.Fetcher.Name() + "+cache" }

func (c *CachedFetcher) FetchDailyBars(ctx context.Context, code string, days int) (model.Series, error) {
	key := fmt.Sprintf("%s/%d", code, days)
	if s, ok := c.cache.Get(key); ok {
		return s.Clone(), nil
	}
	s, err := c.Fetcher.FetchDailyBars(ctx, code, days)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, s.Clone())
	return s, nil
}
