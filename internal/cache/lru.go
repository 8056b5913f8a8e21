package cache

import "sync"

// LRU is a bounded map that evicts the least recently used entry once it
// holds more than its capacity. A capacity of 0 means unbounded.
//
// LRU is safe for concurrent use. It must not be copied after creation.
type LRU[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	entries  map[K]*lruNode[K, V]

	// head is the most recently used node, tail the least.
	head *lruNode[K, V]
	tail *lruNode[K, V]

	hits, misses, evictions uint64
}

type lruNode[K comparable, V any] struct {
	key   K
	value V
	prev  *lruNode[K, V]
	next  *lruNode[K, V]
}

// NewLRU creates an empty LRU with the given capacity.
func NewLRU[K comparable, V any](capacity int) *LRU[K, V] {
	return &LRU[K, V]{
		capacity: capacity,
		entries:  make(map[K]*lruNode[K, V]),
	}
}

// Get returns the value stored for key and marks it as recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	c.moveToFront(n)
	return n.value, true
}

// Set stores value under key, evicting the oldest entry if needed.
func (c *LRU[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.setLocked(key, value)
}

// GetOrCreate returns the cached value for key or stores the result of
// create. create runs under the lock, so it is called at most once per
// missing key. Errors are not cached.
func (c *LRU[K, V]) GetOrCreate(key K, create func() (V, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.entries[key]; ok {
		c.hits++
		c.moveToFront(n)
		return n.value, nil
	}
	c.misses++

	v, err := create()
	if err != nil {
		var zero V
		return zero, err
	}
	c.setLocked(key, v)
	return v, nil
}

// Len returns the number of entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Clear removes every entry. Counters are kept.
func (c *LRU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]*lruNode[K, V])
	c.head, c.tail = nil, nil
}

// Stats returns a snapshot of the cache counters.
func (c *LRU[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Len:       len(c.entries),
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

// Stats contains LRU counters.
type Stats struct {
	Len       int
	Capacity  int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Caller must hold c.mu.
func (c *LRU[K, V]) setLocked(key K, value V) {
	if n, ok := c.entries[key]; ok {
		n.value = value
		c.moveToFront(n)
		return
	}

	n := &lruNode[K, V]{key: key, value: value}
	c.entries[key] = n
	c.pushFront(n)

	for c.capacity > 0 && len(c.entries) > c.capacity {
		oldest := c.tail
		c.unlink(oldest)
		delete(c.entries, oldest.key)
		c.evictions++
	}
}

func (c *LRU[K, V]) pushFront(n *lruNode[K, V]) {
	n.prev = nil
	n.next = c.head
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
}

func (c *LRU[K, V]) moveToFront(n *lruNode[K, V]) {
	if n == c.head {
		return
	}
	c.unlink(n)
	c.pushFront(n)
}

func (c *LRU[K, V]) unlink(n *lruNode[K, V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.tail = n.prev
	}
	n.prev, n.next = nil, nil
}
