//go:build !nogpu

package gpu

import (
	"errors"
	"testing"
	"time"
)

func newTestTracker(t *testing.T) (*FrameTracker, *Gfx) {
	t.Helper()
	g, _ := newTestGfx(t)
	tracker, err := NewFrameTracker(g)
	if err != nil {
		t.Fatalf("NewFrameTracker: %v", err)
	}
	return tracker, g
}

func TestFrameTrackerRetiresInOrder(t *testing.T) {
	g, rec := newTestGfx(t)
	rec.Manual = true
	tracker, err := NewFrameTracker(g)
	if err != nil {
		t.Fatal(err)
	}

	var released []int
	for i := 1; i <= 3; i++ {
		f := tracker.Begin()
		f.Hold(func() { released = append(released, i) })
		if err := tracker.Submit(f, nil); err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
	}
	if got := rec.Submits; len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("fence values = %v, want [1 2 3]", got)
	}
	if tracker.InFlight() != 3 || tracker.Submitted() != 3 {
		t.Fatalf("in flight %d, submitted %d", tracker.InFlight(), tracker.Submitted())
	}

	if n := tracker.Retire(); n != 0 {
		t.Errorf("Retire before completion freed %d", n)
	}

	rec.Completed = 2
	if n := tracker.Retire(); n != 2 {
		t.Errorf("Retire freed %d, want 2", n)
	}
	if len(released) != 2 || released[0] != 1 || released[1] != 2 {
		t.Errorf("released = %v, want [1 2]", released)
	}
	if tracker.InFlight() != 1 {
		t.Errorf("InFlight = %d, want 1", tracker.InFlight())
	}

	rec.Completed = 3
	if err := tracker.Destroy(time.Second); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if len(released) != 3 {
		t.Errorf("released = %v after Destroy", released)
	}
}

func TestInFlightReleasesInReverseOrder(t *testing.T) {
	tracker, _ := newTestTracker(t)
	defer tracker.Destroy(time.Second) //nolint:errcheck

	var order []string
	f := tracker.Begin()
	f.Hold(func() { order = append(order, "texture") })
	f.Hold(func() { order = append(order, "buffer") })
	tracker.Discard(f)

	if len(order) != 2 || order[0] != "buffer" || order[1] != "texture" {
		t.Errorf("release order = %v", order)
	}

	// Freeing twice is a no-op.
	tracker.Discard(f)
	if len(order) != 2 {
		t.Errorf("second Discard released again: %v", order)
	}
}

func TestFrameTrackerWaitIdleTimeout(t *testing.T) {
	g, rec := newTestGfx(t)
	rec.Manual = true
	tracker, err := NewFrameTracker(g)
	if err != nil {
		t.Fatal(err)
	}

	released := false
	f := tracker.Begin()
	f.Hold(func() { released = true })
	if err := tracker.Submit(f, nil); err != nil {
		t.Fatal(err)
	}

	if err := tracker.WaitIdle(time.Millisecond); !errors.Is(err, ErrWaitTimeout) {
		t.Errorf("WaitIdle err = %v, want ErrWaitTimeout", err)
	}
	if released {
		t.Error("frame released before completion")
	}

	// Destroy frees pending frames even when the GPU never finishes.
	if err := tracker.Destroy(time.Millisecond); !errors.Is(err, ErrWaitTimeout) {
		t.Errorf("Destroy err = %v, want ErrWaitTimeout", err)
	}
	if !released {
		t.Error("Destroy did not release the pending frame")
	}
	if err := tracker.Destroy(time.Millisecond); err != nil {
		t.Errorf("second Destroy: %v", err)
	}
}

func TestFrameTrackerDestroysBindGroups(t *testing.T) {
	g, rec := newTestGfx(t)
	p, err := NewPipelines(g, ShaderFormatWGSL)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Destroy()
	tracker, err := NewFrameTracker(g)
	if err != nil {
		t.Fatal(err)
	}

	b := NewCachedBuffer[OutputPassUniform](g, "output", 0)
	defer b.Close()
	buf, err := b.Get(1)
	if err != nil {
		t.Fatal(err)
	}

	bg, err := p.OutputPassBindGroup(buf.Value(), g.Dummy().View)
	if err != nil {
		t.Fatalf("OutputPassBindGroup: %v", err)
	}
	f := tracker.Begin()
	f.Hold(buf.Release)
	f.BindGroup(bg)
	if err := tracker.Submit(f, nil); err != nil {
		t.Fatal(err)
	}
	tracker.Retire()

	if rec.DestroyedBindGroups != 1 {
		t.Errorf("destroyed bind groups = %d, want 1", rec.DestroyedBindGroups)
	}
	if err := tracker.Destroy(time.Second); err != nil {
		t.Fatal(err)
	}
}
