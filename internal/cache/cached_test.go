package cache

import (
	"errors"
	"slices"
	"testing"
)

// countingFactory records every value it builds and destroys.
type countingFactory struct {
	created   []int
	destroyed []int
	fail      bool
}

func (f *countingFactory) create(key int) (int, error) {
	if f.fail {
		return 0, errors.New("factory failure")
	}
	f.created = append(f.created, key)
	return key, nil
}

func (f *countingFactory) destroy(v int) {
	f.destroyed = append(f.destroyed, v)
}

func TestCachedGetRebuildsOnKeyChange(t *testing.T) {
	f := &countingFactory{}
	c := NewCached(f.create, f.destroy)

	for _, key := range []int{10, 10, 5, 20} {
		h, err := c.Get(key)
		if err != nil {
			t.Fatalf("Get(%d) failed: %v", key, err)
		}
		if h.Value() != key {
			t.Errorf("Get(%d) value = %d", key, h.Value())
		}
		h.Release()
	}

	if want := []int{10, 5, 20}; !slices.Equal(f.created, want) {
		t.Errorf("created = %v, want %v", f.created, want)
	}
	if want := []int{10, 5}; !slices.Equal(f.destroyed, want) {
		t.Errorf("destroyed = %v, want %v", f.destroyed, want)
	}
	if c.Creates() != 3 {
		t.Errorf("Creates() = %d, want 3", c.Creates())
	}
}

func TestGetAtLeastGrowsOnly(t *testing.T) {
	f := &countingFactory{}
	c := NewCached(f.create, f.destroy)

	for _, key := range []int{10, 10, 5, 20} {
		h, err := GetAtLeast(c, key)
		if err != nil {
			t.Fatalf("GetAtLeast(%d) failed: %v", key, err)
		}
		if h.Value() < key {
			t.Errorf("GetAtLeast(%d) returned smaller value %d", key, h.Value())
		}
		h.Release()
	}

	if want := []int{10, 20}; !slices.Equal(f.created, want) {
		t.Errorf("created = %v, want %v", f.created, want)
	}
	key, ok := c.Key()
	if !ok || key != 20 {
		t.Errorf("Key() = (%d, %v), want (20, true)", key, ok)
	}
}

func TestCachedOldGenerationOutlivesReplacement(t *testing.T) {
	f := &countingFactory{}
	c := NewCached(f.create, f.destroy)

	inFlight, err := c.Get(1)
	if err != nil {
		t.Fatalf("Get(1) failed: %v", err)
	}

	next, err := c.Get(2)
	if err != nil {
		t.Fatalf("Get(2) failed: %v", err)
	}
	next.Release()

	if len(f.destroyed) != 0 {
		t.Fatalf("value destroyed while still held: %v", f.destroyed)
	}

	inFlight.Release()
	if want := []int{1}; !slices.Equal(f.destroyed, want) {
		t.Errorf("destroyed = %v, want %v", f.destroyed, want)
	}
}

func TestCachedFactoryError(t *testing.T) {
	f := &countingFactory{}
	c := NewCached(f.create, f.destroy)

	h, err := c.Get(1)
	if err != nil {
		t.Fatalf("Get(1) failed: %v", err)
	}
	h.Release()

	f.fail = true
	if _, err := c.Get(2); err == nil {
		t.Fatal("expected factory error")
	}
	if _, ok := c.Key(); ok {
		t.Error("cache should be empty after a failed rebuild")
	}
	if want := []int{1}; !slices.Equal(f.destroyed, want) {
		t.Errorf("previous generation should be released, destroyed = %v", f.destroyed)
	}
}

func TestCachedClose(t *testing.T) {
	f := &countingFactory{}
	c := NewCached(f.create, f.destroy)

	h, err := c.Get(7)
	if err != nil {
		t.Fatalf("Get(7) failed: %v", err)
	}

	c.Close()
	if len(f.destroyed) != 0 {
		t.Fatal("Close must not destroy a value that is still held")
	}
	h.Release()
	if want := []int{7}; !slices.Equal(f.destroyed, want) {
		t.Errorf("destroyed = %v, want %v", f.destroyed, want)
	}

	// Double close is a no-op.
	c.Close()
}

func TestCachedKeyEmpty(t *testing.T) {
	c := NewCached[string, int](func(string) (int, error) { return 0, nil }, nil)
	if _, ok := c.Key(); ok {
		t.Error("Key() on empty cache should report false")
	}
}
