package cache

import (
	"errors"
	"testing"
)

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[int, string](2)
	c.Set(1, "a")
	c.Set(2, "b")

	// Touch 1 so that 2 becomes the oldest.
	if v, ok := c.Get(1); !ok || v != "a" {
		t.Fatalf("Get(1) = (%q, %v)", v, ok)
	}
	c.Set(3, "c")

	if _, ok := c.Get(2); ok {
		t.Error("expected key 2 to be evicted")
	}
	if _, ok := c.Get(1); !ok {
		t.Error("expected key 1 to survive")
	}
	if _, ok := c.Get(3); !ok {
		t.Error("expected key 3 to be present")
	}
	if s := c.Stats(); s.Evictions != 1 || s.Len != 2 {
		t.Errorf("Stats() = %+v, want 1 eviction and 2 entries", s)
	}
}

func TestLRUGetOrCreate(t *testing.T) {
	c := NewLRU[string, int](0)
	calls := 0
	create := func() (int, error) {
		calls++
		return 42, nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.GetOrCreate("k", create)
		if err != nil {
			t.Fatalf("GetOrCreate failed: %v", err)
		}
		if v != 42 {
			t.Errorf("GetOrCreate = %d, want 42", v)
		}
	}
	if calls != 1 {
		t.Errorf("create called %d times, want 1", calls)
	}

	s := c.Stats()
	if s.Hits != 2 || s.Misses != 1 {
		t.Errorf("Stats() = %+v, want 2 hits and 1 miss", s)
	}
}

func TestLRUGetOrCreateErrorNotCached(t *testing.T) {
	c := NewLRU[string, int](4)
	boom := errors.New("boom")

	if _, err := c.GetOrCreate("k", func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("GetOrCreate error = %v, want %v", err, boom)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestLRUSetOverwrite(t *testing.T) {
	c := NewLRU[int, int](2)
	c.Set(1, 1)
	c.Set(1, 2)
	if v, _ := c.Get(1); v != 2 {
		t.Errorf("Get(1) = %d, want 2", v)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
}
