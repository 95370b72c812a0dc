package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/staffparty/partyhub/common/logger"
)

// Cache interface for key-value storage
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// MemoryCache is an in-process TTL cache
type MemoryCache struct {
	data map[string]*cacheEntry
	mu   sync.RWMutex
	log  *logger.Logger
	done chan struct{}
	once sync.Once
}

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryCache creates a new in-memory cache and starts its sweeper
func NewMemoryCache(log *logger.Logger) *MemoryCache {
	c := &MemoryCache{
		data: make(map[string]*cacheEntry),
		log:  log,
		done: make(chan struct{}),
	}

	go c.cleanup(time.Minute)

	return c
}

// Get retrieves a value from cache
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.data[key]
	if !exists {
		return nil, false, nil
	}

	if time.Now().After(entry.expiresAt) {
		return nil, false, nil
	}

	return entry.value, true, nil
}

// Set stores a value in cache with TTL
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.data == nil {
		return fmt.Errorf("cache closed")
	}

	c.data[key] = &cacheEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}

	return nil
}

// Delete removes a value from cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, key)
	return nil
}

// Close stops the sweeper and drops all entries
func (c *MemoryCache) Close() error {
	c.once.Do(func() { close(c.done) })

	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = nil
	c.log.Info("memory cache closed")
	return nil
}

// cleanup removes expired entries periodically
func (c *MemoryCache) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, entry := range c.data {
				if now.After(entry.expiresAt) {
					delete(c.data, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// Stats returns cache statistics
func (c *MemoryCache) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return map[string]interface{}{
		"entries": len(c.data),
		"type":    "memory",
	}
}

// GetJSON decodes a cached JSON value into dst. A nil cache always misses.
func GetJSON(ctx context.Context, c Cache, key string, dst any) (bool, error) {
	if c == nil {
		return false, nil
	}

	raw, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("failed to decode cached %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it. A nil cache is a no-op.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	if c == nil {
		return nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s for cache: %w", key, err)
	}
	return c.Set(ctx, key, raw, ttl)
}

// Guard serializes cache-aside fills and invalidations of one key. A fill
// that read its data before an invalidation is dropped instead of stored.
type Guard struct {
	cache Cache
	key   string
	ttl   time.Duration

	mu  sync.Mutex
	gen uint64
}

// NewGuard creates a guard for key. A nil cache disables caching.
func NewGuard(c Cache, key string, ttl time.Duration) *Guard {
	return &Guard{cache: c, key: key, ttl: ttl}
}

// Get decodes the cached value into dst. The returned generation must be
// passed to Fill after the caller has loaded fresh data on a miss.
func (g *Guard) Get(ctx context.Context, dst any) (bool, uint64, error) {
	g.mu.Lock()
	gen := g.gen
	g.mu.Unlock()

	ok, err := GetJSON(ctx, g.cache, g.key, dst)
	return ok, gen, err
}

// Fill stores v unless the key was invalidated after gen was read
func (g *Guard) Fill(ctx context.Context, gen uint64, v any) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if gen != g.gen {
		return false, nil
	}
	if err := SetJSON(ctx, g.cache, g.key, v, g.ttl); err != nil {
		return false, err
	}
	return g.cache != nil, nil
}

// Invalidate drops the cached value and rejects fills already in flight
func (g *Guard) Invalidate(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.gen++
	if g.cache == nil {
		return nil
	}
	return g.cache.Delete(ctx, g.key)
}
