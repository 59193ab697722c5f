package in_memory

import (
	"context"
	"sync"
	"time"

	"github.com/olyamironova/depthbook/internal/port"
)

type item struct {
	value     []byte
	expiresAt time.Time
}

// Cache is a process-local CacheStore. Expired entries are reported as
// missing and dropped on read.
type Cache struct {
	mu    sync.Mutex
	store map[string]item
	now   func() time.Time
}

var _ port.CacheStore = (*Cache)(nil)

func NewCache() *Cache {
	return NewCacheWithClock(time.Now)
}

func NewCacheWithClock(now func() time.Time) *Cache {
	return &Cache{store: make(map[string]item), now: now}
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.store[key]
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(it.expiresAt) {
		delete(c.store, key)
		return nil, false, nil
	}
	return append([]byte(nil), it.value...), true, nil
}

func (c *Cache) SetEx(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = item{
		value:     append([]byte(nil), value...),
		expiresAt: c.now().Add(ttl),
	}
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.store)
}
