package cache

import (
	"context"
	"sync"
	"time"
)

//go:generate mockgen -destination=../mocks/mock_cache.go -package=mocks github.com/lifenjoy/campaigns/pkg/cache Cache

// Cache stores short lived string values, such as resolved storage URLs.
// Implementations are safe for concurrent use.
type Cache interface {
	// Get returns the value and true when the key is present and not expired.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores a value for ttl.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases background resources.
	Close() error
}

type cacheItem struct {
	value      string
	expiration time.Time
}

func (item cacheItem) isExpired(now time.Time) bool {
	return now.After(item.expiration)
}

// InMemoryCache keeps entries in a map and sweeps expired ones on an interval.
type InMemoryCache struct {
	items    map[string]cacheItem
	mu       sync.RWMutex
	stop     chan struct{}
	stopOnce sync.Once
	now      func() time.Time
}

// NewInMemoryCache starts the sweeper; call Close to stop it.
func NewInMemoryCache(cleanupInterval time.Duration) *InMemoryCache {
	c := &InMemoryCache{
		items: make(map[string]cacheItem),
		stop:  make(chan struct{}),
		now:   time.Now,
	}
	if cleanupInterval > 0 {
		go c.sweep(cleanupInterval)
	}
	return c
}

func (c *InMemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, found := c.items[key]
	if !found || item.isExpired(c.now()) {
		return "", false, nil
	}
	return item.value, true, nil
}

func (c *InMemoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = cacheItem{value: value, expiration: c.now().Add(ttl)}
	return nil
}

func (c *InMemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
	return nil
}

// Size includes expired entries that have not been swept yet.
func (c *InMemoryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

func (c *InMemoryCache) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	return nil
}

func (c *InMemoryCache) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *InMemoryCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, item := range c.items {
		if item.isExpired(now) {
			delete(c.items, key)
		}
	}
}
