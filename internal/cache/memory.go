package cache

import (
	"context"
	"sync"
)

// InMemoryCache stores cache entries in process memory.
type InMemoryCache struct {
	mu   sync.RWMutex
	data map[string]string
}

var _ Cache = (*InMemoryCache)(nil)

func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{
		data: make(map[string]string),
	}
}

func (c *InMemoryCache) Get(_ context.Context, key string) (string, error) {
	c.mu.RLock()
	value, ok := c.data[key]
	c.mu.RUnlock()
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (c *InMemoryCache) Set(_ context.Context, key, value string) error {
	c.mu.Lock()
	c.data[key] = value
	c.mu.Unlock()
	return nil
}
