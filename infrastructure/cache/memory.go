package cache

import (
	"context"
	"sync"
	"time"
)

// Memory provides the in-process cache backing the session-scoped
// recipe materialization. One instance exists per process; the
// mutation layer is its only writer.
type Memory struct {
	mu     sync.RWMutex
	items  map[string]cacheItem
	stopCh chan struct{}
	once   sync.Once
}

type cacheItem struct {
	value     interface{}
	expiresAt time.Time
}

// NewMemory creates a new in-memory cache
func NewMemory() *Memory {
	c := &Memory{
		items:  make(map[string]cacheItem),
		stopCh: make(chan struct{}),
	}

	// Start cleanup goroutine
	go c.cleanupExpired()

	return c
}

// Get retrieves a value from cache
func (c *Memory) Get(ctx context.Context, key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.items[key]
	if !exists {
		return nil, false
	}

	if time.Now().After(item.expiresAt) {
		return nil, false
	}

	return item.value, true
}

// Set stores a value in cache with TTL in seconds
func (c *Memory) Set(ctx context.Context, key string, value interface{}, ttl int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = cacheItem{
		value:     value,
		expiresAt: time.Now().Add(time.Duration(ttl) * time.Second),
	}

	return nil
}

// Delete removes a value from cache
func (c *Memory) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
	return nil
}

// Clear removes all values from cache
func (c *Memory) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]cacheItem)
	return nil
}

// Close stops the cleanup goroutine
func (c *Memory) Close() {
	c.once.Do(func() { close(c.stopCh) })
}

// cleanupExpired periodically removes expired items
func (c *Memory) cleanupExpired() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, item := range c.items {
				if now.After(item.expiresAt) {
					delete(c.items, key)
				}
			}
			c.mu.Unlock()
		}
	}
}
