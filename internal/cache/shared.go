package cache

import "sync/atomic"

// Shared is a reference-counted handle to a value whose destruction must wait
// until every holder has let go of it.
//
// A new Shared starts with one reference owned by its creator. Each Retain
// must be paired with one Release. The destroy callback runs exactly once,
// on the Release that drops the count to zero.
//
// Shared is safe for concurrent use.
type Shared[V any] struct {
	value   V
	refs    atomic.Int64
	destroy func(V)
}

// NewShared wraps value with a reference count of one.
// destroy may be nil.
func NewShared[V any](value V, destroy func(V)) *Shared[V] {
	s := &Shared[V]{value: value, destroy: destroy}
	s.refs.Store(1)
	return s
}

// Value returns the wrapped value. Callers must hold a reference.
func (s *Shared[V]) Value() V { return s.value }

// Retain adds a reference and returns s for chaining.
func (s *Shared[V]) Retain() *Shared[V] {
	if s.refs.Add(1) <= 1 {
		panic("cache: Retain on released Shared value")
	}
	return s
}

// Release drops a reference. The value is destroyed when the last
// reference goes away.
func (s *Shared[V]) Release() {
	n := s.refs.Add(-1)
	switch {
	case n == 0:
		if s.destroy != nil {
			s.destroy(s.value)
		}
	case n < 0:
		panic("cache: Release on released Shared value")
	}
}

// Refs returns the current reference count.
func (s *Shared[V]) Refs() int64 { return s.refs.Load() }
