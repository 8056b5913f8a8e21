//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gogpu/wgpu/hal"
)

// ErrWaitTimeout is returned when the GPU does not finish in time.
var ErrWaitTimeout = errors.New("gpu: timed out waiting for submitted work")

// InFlight collects everything one submission uses. Its resources are
// released once the GPU has signalled the submission's fence value.
type InFlight struct {
	value      uint64
	cmdBuf     hal.CommandBuffer
	bindGroups []hal.BindGroup
	releases   []func()
}

// Hold registers a release callback to run when the frame retires.
func (f *InFlight) Hold(release func()) {
	f.releases = append(f.releases, release)
}

// BindGroup registers a bind group to destroy when the frame retires.
func (f *InFlight) BindGroup(bg hal.BindGroup) {
	f.bindGroups = append(f.bindGroups, bg)
}

func (f *InFlight) free(device hal.Device) {
	if f.cmdBuf != nil {
		device.FreeCommandBuffer(f.cmdBuf)
		f.cmdBuf = nil
	}
	for _, bg := range f.bindGroups {
		device.DestroyBindGroup(bg)
	}
	f.bindGroups = nil
	// Release in reverse acquisition order.
	for i := len(f.releases) - 1; i >= 0; i-- {
		f.releases[i]()
	}
	f.releases = nil
}

// FrameTracker orders submissions on a single timeline fence and frees the
// resources of each one after the GPU is done with it. Nothing here blocks
// except WaitIdle.
//
// FrameTracker is not safe for concurrent use.
type FrameTracker struct {
	gfx       *Gfx
	fence     hal.Fence
	submitted uint64
	inFlight  []*InFlight
}

// NewFrameTracker creates the timeline fence.
func NewFrameTracker(g *Gfx) (*FrameTracker, error) {
	fence, err := g.Device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("create fence: %w", err)
	}
	return &FrameTracker{gfx: g, fence: fence}, nil
}

// Begin starts collecting resources for a new submission.
func (t *FrameTracker) Begin() *InFlight { return &InFlight{} }

// Submit submits cmdBuf and keeps f alive until the fence passes it.
// On failure f is released immediately.
func (t *FrameTracker) Submit(f *InFlight, cmdBuf hal.CommandBuffer) error {
	f.cmdBuf = cmdBuf
	value := t.submitted + 1
	if err := t.gfx.Queue.Submit([]hal.CommandBuffer{cmdBuf}, t.fence, value); err != nil {
		f.free(t.gfx.Device)
		return fmt.Errorf("submit: %w", err)
	}
	t.submitted = value
	f.value = value
	t.inFlight = append(t.inFlight, f)
	return nil
}

// Discard releases f without submitting anything.
func (t *FrameTracker) Discard(f *InFlight) { f.free(t.gfx.Device) }

// Retire frees every submission the GPU has completed, oldest first, and
// returns how many were freed. It never waits.
func (t *FrameTracker) Retire() int {
	n := 0
	for len(t.inFlight) > 0 {
		f := t.inFlight[0]
		done, err := t.gfx.Device.Wait(t.fence, f.value, 0)
		if err != nil {
			slogger().Warn("poll fence", slog.Uint64("value", f.value), slog.Any("error", err))
			break
		}
		if !done {
			break
		}
		f.free(t.gfx.Device)
		t.inFlight[0] = nil
		t.inFlight = t.inFlight[1:]
		n++
	}
	return n
}

// WaitIdle blocks until every submission has completed or timeout expires,
// then retires them.
func (t *FrameTracker) WaitIdle(timeout time.Duration) error {
	if len(t.inFlight) == 0 {
		return nil
	}
	done, err := t.gfx.Device.Wait(t.fence, t.submitted, timeout)
	if err != nil {
		return fmt.Errorf("wait for fence %d: %w", t.submitted, err)
	}
	if !done {
		return ErrWaitTimeout
	}
	t.Retire()
	return nil
}

// InFlight returns the number of submissions not yet retired.
func (t *FrameTracker) InFlight() int { return len(t.inFlight) }

// Submitted returns the fence value of the latest submission.
func (t *FrameTracker) Submitted() uint64 { return t.submitted }

// Destroy waits for outstanding work and destroys the fence. If the wait
// fails, pending resources are freed anyway and the error is returned.
func (t *FrameTracker) Destroy(timeout time.Duration) error {
	if t.fence == nil {
		return nil
	}
	err := t.WaitIdle(timeout)
	if err != nil {
		slogger().Warn("freeing frames before GPU finished",
			slog.Int("in_flight", len(t.inFlight)), slog.Any("error", err))
		for _, f := range t.inFlight {
			f.free(t.gfx.Device)
		}
		t.inFlight = nil
	}
	t.gfx.Device.DestroyFence(t.fence)
	t.fence = nil
	return err
}
