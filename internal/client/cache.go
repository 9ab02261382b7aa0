package client

import (
	"context"
	"sync"
)

// CacheKey identifies a cache entry regardless of its value type.
type CacheKey interface {
	cacheKey() string
}

// Key is a cache key bound to the type of the value it holds.
type Key[T any] struct {
	name string
}

func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

func (k Key[T]) cacheKey() string { return k.name }

func (k Key[T]) String() string { return k.name }

type entry struct {
	value interface{}
	stale bool
}

// Cache holds the last known value of each query. Values are replaced, never
// mutated in place, so a Snapshot stays valid after later writes.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]entry)}
}

// Get returns the cached value of key, stale or not.
func Get[T any](c *Cache, key Key[T]) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key.name]
	if !ok {
		var zero T
		return zero, false
	}
	return e.value.(T), true
}

// Set stores a fresh value.
func Set[T any](c *Cache, key Key[T], value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key.name] = entry{value: value}
}

// Invalidate marks entries stale. Their values stay readable until the next
// successful Fetch replaces them.
func (c *Cache) Invalidate(keys ...CacheKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		if e, ok := c.entries[k.cacheKey()]; ok {
			e.stale = true
			c.entries[k.cacheKey()] = e
		}
	}
}

// IsStale reports whether key is missing or invalidated.
func (c *Cache) IsStale(key CacheKey) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key.cacheKey()]
	return !ok || e.stale
}

// Snapshot is the state of a set of entries at one point in time, including
// which of them were absent.
type Snapshot struct {
	entries map[string]entry
	absent  map[string]bool
}

func (c *Cache) Snapshot(keys ...CacheKey) Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := Snapshot{entries: make(map[string]entry), absent: make(map[string]bool)}
	for _, k := range keys {
		name := k.cacheKey()
		if e, ok := c.entries[name]; ok {
			s.entries[name] = e
		} else {
			s.absent[name] = true
		}
	}
	return s
}

// Restore puts every entry of s back as it was when the snapshot was taken.
func (c *Cache) Restore(s Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, e := range s.entries {
		c.entries[name] = e
	}
	for name := range s.absent {
		delete(c.entries, name)
	}
}

// Fetch returns the cached value while it is fresh, otherwise loads and
// stores a new one. When the load fails the previous value, if any, is
// returned with the error. Loads are not deduplicated; the last one to
// finish wins.
func Fetch[T any](ctx context.Context, c *Cache, key Key[T], load func(context.Context) (T, error)) (T, error) {
	if !c.IsStale(key) {
		if v, ok := Get(c, key); ok {
			return v, nil
		}
	}
	v, err := load(ctx)
	if err != nil {
		prev, _ := Get(c, key)
		return prev, err
	}
	Set(c, key, v)
	return v, nil
}
