package cache

import (
	"sync"

	"golang.org/x/exp/constraints"
)

// Cached holds at most one value built from a key, and rebuilds it when a
// request no longer matches.
//
// Values are never mutated in place. A rebuild replaces the whole entry and
// releases the cache's reference to the previous generation; that generation
// is destroyed once every handle obtained from Get has been released too.
//
// Cached is safe for concurrent use.
type Cached[K comparable, V any] struct {
	mu      sync.Mutex
	create  func(K) (V, error)
	destroy func(V)

	key     K
	entry   *Shared[V]
	creates int
}

// NewCached returns an empty cache that builds values with create and
// tears them down with destroy. destroy may be nil.
func NewCached[K comparable, V any](create func(K) (V, error), destroy func(V)) *Cached[K, V] {
	return &Cached[K, V]{create: create, destroy: destroy}
}

// Get returns the value for key, building it if the cache is empty or holds
// a different key. The returned handle carries a reference owned by the
// caller, who must Release it.
//
// If the factory fails the error is returned and the cache is left empty.
func (c *Cached[K, V]) Get(key K) (*Shared[V], error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lookup(key, func(cur K) bool { return cur == key })
}

// GetAtLeast is like Get for integer keys, but any cached key greater than
// or equal to key satisfies the request. It is used for grow-only resources
// such as buffers sized by element count.
func GetAtLeast[K constraints.Integer, V any](c *Cached[K, V], key K) (*Shared[V], error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lookup(key, func(cur K) bool { return cur >= key })
}

// Caller must hold c.mu.
func (c *Cached[K, V]) lookup(key K, fits func(K) bool) (*Shared[V], error) {
	if c.entry != nil && fits(c.key) {
		return c.entry.Retain(), nil
	}

	c.dropLocked()

	v, err := c.create(key)
	if err != nil {
		return nil, err
	}
	c.key = key
	c.entry = NewShared(v, c.destroy)
	c.creates++
	return c.entry.Retain(), nil
}

// Key reports the key of the current entry, if any.
func (c *Cached[K, V]) Key() (K, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entry == nil {
		var zero K
		return zero, false
	}
	return c.key, true
}

// Creates returns how many times the factory has produced a value.
func (c *Cached[K, V]) Creates() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.creates
}

// Close drops the cache's reference to the current entry.
// Outstanding handles keep the value alive until they are released.
func (c *Cached[K, V]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dropLocked()
}

func (c *Cached[K, V]) dropLocked() {
	if c.entry == nil {
		return
	}
	c.entry.Release()
	c.entry = nil
	var zero K
	c.key = zero
}
