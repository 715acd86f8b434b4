// Package cache provides the generic in-memory caches used for compiler
// query output and analysis results.
package cache

import (
	"context"
	"sync"
)

// Cache is a named, mutex-guarded map. The context parameter keeps the call
// shape uniform with I/O-backed lookups and leaves room for tracing.
type Cache[V any] struct {
	Name  string
	Cache map[string]V
	Mutex *sync.Mutex
}

// NewCache creates a new cache with the given name.
func NewCache[V any](name string) *Cache[V] {
	return &Cache[V]{
		Name:  name,
		Cache: map[string]V{},
		Mutex: &sync.Mutex{},
	}
}

// Get returns the cached value for the given key, if any.
func (c *Cache[V]) Get(ctx context.Context, key string) (V, bool) {
	c.Mutex.Lock()
	defer c.Mutex.Unlock()

	value, found := c.Cache[key]

	return value, found
}

// Put stores the given value under the given key.
func (c *Cache[V]) Put(ctx context.Context, key string, value V) {
	c.Mutex.Lock()
	defer c.Mutex.Unlock()

	c.Cache[key] = value
}

// Len returns the number of cached entries.
func (c *Cache[V]) Len() int {
	c.Mutex.Lock()
	defer c.Mutex.Unlock()

	return len(c.Cache)
}

// Snapshot returns a shallow copy of the cache contents, for serialization.
func (c *Cache[V]) Snapshot() map[string]V {
	c.Mutex.Lock()
	defer c.Mutex.Unlock()

	out := make(map[string]V, len(c.Cache))
	for key, value := range c.Cache {
		out[key] = value
	}

	return out
}
