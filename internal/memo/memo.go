// Package memo provides a concurrent cache that computes each value at most
// once per key.
package memo

import "sync"

type entry[V any] struct {
	once sync.Once
	val  V
	err  error
}

// Cache maps keys to lazily computed values. Concurrent callers asking for
// the same key wait for a single computation and share its result,
// including its error.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[V]
}

// New returns an empty cache.
func New[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{entries: make(map[K]*entry[V])}
}

// Get returns the value for key, calling fn to compute it on first use.
func (c *Cache[K, V]) Get(key K, fn func() (V, error)) (V, error) {
	c.mu.Lock()
	if c.entries == nil {
		c.entries = make(map[K]*entry[V])
	}
	e, ok := c.entries[key]
	if !ok {
		e = &entry[V]{}
		c.entries[key] = e
	}
	c.mu.Unlock()

	e.once.Do(func() {
		e.val, e.err = fn()
	})
	return e.val, e.err
}

// Len returns the number of keys that have been requested.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
