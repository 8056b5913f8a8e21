//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ErrNilDevice is returned when NewGfx is called without a device or queue.
var ErrNilDevice = errors.New("gpu: nil device or queue")

// SampleTextureFormat is the format of the first-pass accumulation texture.
// A float format keeps negative winding contributions and sums above 1.
const SampleTextureFormat = gputypes.TextureFormatRGBA16Float

// Gfx is the graphics driver state shared by every part of the renderer.
type Gfx struct {
	Device       hal.Device
	Queue        hal.Queue
	TargetFormat gputypes.TextureFormat
	Limits       gputypes.Limits

	// Label prefixes every debug label, e.g. "teqxt".
	Label string

	dummy Target
}

// NewGfx wraps an opened device and creates the 1x1 dummy texture returned
// for frames with nothing to draw.
func NewGfx(device hal.Device, queue hal.Queue, targetFormat gputypes.TextureFormat, limits gputypes.Limits, label string) (*Gfx, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	g := &Gfx{
		Device:       device,
		Queue:        queue,
		TargetFormat: targetFormat,
		Limits:       limits,
		Label:        label,
	}

	dummy, err := g.CreateTarget("dummy_texture", 1, 1, targetFormat, gputypes.TextureUsageTextureBinding)
	if err != nil {
		return nil, fmt.Errorf("create dummy texture: %w", err)
	}
	g.dummy = dummy
	return g, nil
}

// Dummy returns the 1x1 placeholder texture.
func (g *Gfx) Dummy() Target { return g.dummy }

// Labelf returns a debug label under the Gfx prefix.
func (g *Gfx) Labelf(format string, args ...any) string {
	return g.label(fmt.Sprintf(format, args...))
}

func (g *Gfx) label(name string) string {
	if g.Label == "" {
		return name
	}
	return g.Label + "_" + name
}

// Destroy releases the dummy texture. The device itself belongs to the caller.
func (g *Gfx) Destroy() {
	g.dummy.Destroy(g.Device)
	g.dummy = Target{}
}

// Target is a 2D texture together with its default view.
type Target struct {
	Texture hal.Texture
	View    hal.TextureView
	Width   uint32
	Height  uint32
	Format  gputypes.TextureFormat
}

// CreateTarget creates a single-sampled 2D texture and a view of it.
func (g *Gfx) CreateTarget(name string, w, h uint32, format gputypes.TextureFormat, usage gputypes.TextureUsage) (Target, error) {
	tex, err := g.Device.CreateTexture(&hal.TextureDescriptor{
		Label:         g.label(name),
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return Target{}, fmt.Errorf("create %s: %w", name, err)
	}

	view, err := g.Device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: g.label(name + "_view"),
	})
	if err != nil {
		g.Device.DestroyTexture(tex)
		return Target{}, fmt.Errorf("create %s view: %w", name, err)
	}

	return Target{Texture: tex, View: view, Width: w, Height: h, Format: format}, nil
}

// Destroy releases the view and the texture. Safe on a zero Target.
func (t Target) Destroy(device hal.Device) {
	if t.View != nil {
		device.DestroyTextureView(t.View)
	}
	if t.Texture != nil {
		device.DestroyTexture(t.Texture)
	}
}
