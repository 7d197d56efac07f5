// Package cache holds a small generic read-through cache with per-entry
// expiry.
package cache

import (
	"sync"
	"time"
)

type item[V any] struct {
	value   V
	expires time.Time
}

// TTLCache is safe for concurrent use. A background goroutine sweeps
// expired items until Close is called.
type TTLCache[K comparable, V any] struct {
	mu    sync.Mutex
	items map[K]item[V]
	ttl   time.Duration
	now   func() time.Time

	done     chan struct{}
	doneOnce sync.Once
}

func New[K comparable, V any](ttl, sweepEvery time.Duration) *TTLCache[K, V] {
	c := &TTLCache[K, V]{
		items: make(map[K]item[V]),
		ttl:   ttl,
		now:   time.Now,
		done:  make(chan struct{}),
	}
	go c.sweepLoop(sweepEvery)
	return c
}

func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookup(key)
}

func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	c.items[key] = item[V]{value: value, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// GetOrLoad returns the cached value or calls load and stores its result.
// Errors from load are returned and not cached. The lock is held while
// loading, so concurrent callers for a cold cache share one load.
func (c *TTLCache[K, V]) GetOrLoad(key K, load func() (V, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.lookup(key); ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		var zero V
		return zero, err
	}
	c.items[key] = item[V]{value: v, expires: c.now().Add(c.ttl)}
	return v, nil
}

func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Len includes expired items the sweeper has not reached yet.
func (c *TTLCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Close stops the sweeper. Calling it again is a no-op.
func (c *TTLCache[K, V]) Close() {
	c.doneOnce.Do(func() { close(c.done) })
}

func (c *TTLCache[K, V]) lookup(key K) (V, bool) {
	it, ok := c.items[key]
	if !ok || !c.now().Before(it.expires) {
		var zero V
		return zero, false
	}
	return it.value, true
}

func (c *TTLCache[K, V]) sweepLoop(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-t.C:
			c.mu.Lock()
			now := c.now()
			for k, it := range c.items {
				if !now.Before(it.expires) {
					delete(c.items, k)
				}
			}
			c.mu.Unlock()
		}
	}
}
