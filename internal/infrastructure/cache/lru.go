package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/macrolens/foodengine/internal/domain"
)

// LRUCache is a bounded store. Every entry shares the TTL given at
// construction; the per-call ttl passed to Set is capped by it.
type LRUCache struct {
	lru *expirable.LRU[string, lruItem]
}

type lruItem struct {
	value     []byte
	expiresAt time.Time
}

// NewLRUCache creates a store holding at most maxEntries items
func NewLRUCache(maxEntries int, ttl time.Duration) *LRUCache {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &LRUCache{lru: expirable.NewLRU[string, lruItem](maxEntries, nil, ttl)}
}

// Get implements domain.CacheStore
func (c *LRUCache) Get(ctx context.Context, key string) ([]byte, error) {
	item, ok := c.lru.Get(key)
	if !ok || time.Now().After(item.expiresAt) {
		return nil, domain.ErrCacheMiss
	}
	return item.value, nil
}

// Set implements domain.CacheStore
func (c *LRUCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	c.lru.Add(key, lruItem{value: stored, expiresAt: time.Now().Add(ttl)})
	return nil
}

// Delete implements domain.CacheStore
func (c *LRUCache) Delete(ctx context.Context, key string) error {
	c.lru.Remove(key)
	return nil
}

// Size returns the number of live entries
func (c *LRUCache) Size() int {
	return c.lru.Len()
}
