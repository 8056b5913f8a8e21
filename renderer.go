// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package teqxt

import (
	"fmt"
	"image"
	"log/slog"
	"slices"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/teqxt/internal/cache"
	"github.com/gogpu/teqxt/internal/gpu"
)

// Renderer draws glyph outlines into textures. It owns its pipelines and
// caches; the device and queue belong to the caller.
//
// Renderer is not safe for concurrent use.
type Renderer struct {
	gfx       *gpu.Gfx
	pipelines *gpu.Pipelines
	frames    *gpu.FrameTracker

	firstPassTargets *gpu.TargetCache
	outputTargets    *gpu.TargetCache

	curveInstances    *gpu.CachedBuffer[gpu.CurveInstance]
	firstPassUniforms *gpu.CachedBuffer[gpu.FirstPassUniform]
	outputUniforms    *gpu.CachedBuffer[gpu.OutputPassUniform]

	waitTimeout time.Duration
	closed      bool

	// Scratch and bookkeeping for the most recent Draw.
	instances    []gpu.CurveInstance
	sampleBlocks [SampleCount]gpu.FirstPassUniform
	outputBlock  gpu.OutputPassUniform
	stats        Stats
}

// Stats describes the work of the most recent Draw and cumulative
// resource allocations.
type Stats struct {
	// Instances is the number of curve instances drawn.
	Instances int
	// DrawCalls counts draw commands over both passes.
	DrawCalls int
	// Passes is the number of render passes encoded.
	Passes int
	// Submitted is the fence value of the latest submission.
	Submitted uint64
	// InFlight is the number of submissions the GPU has not finished.
	InFlight int

	// TextureCreates and BufferCreates count (re)allocations since creation.
	TextureCreates int
	BufferCreates  int
}

// NewRenderer creates a renderer on an opened HAL device.
func NewRenderer(device hal.Device, queue hal.Queue, opts ...Option) (*Renderer, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	if queue == nil {
		return nil, ErrNilQueue
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newRenderer(device, queue, o)
}

func newRenderer(device hal.Device, queue hal.Queue, o options) (*Renderer, error) {
	gfx, err := gpu.NewGfx(device, queue, o.targetFormat, o.limits, o.label)
	if err != nil {
		return nil, fmt.Errorf("teqxt: %w", err)
	}

	pipelines, err := gpu.NewPipelines(gfx, o.shaderFormat)
	if err != nil {
		gfx.Destroy()
		return nil, fmt.Errorf("teqxt: %w", err)
	}

	frames, err := gpu.NewFrameTracker(gfx)
	if err != nil {
		pipelines.Destroy()
		gfx.Destroy()
		return nil, fmt.Errorf("teqxt: %w", err)
	}

	return &Renderer{
		gfx:       gfx,
		pipelines: pipelines,
		frames:    frames,

		firstPassTargets: gpu.NewFirstPassTargets(gfx),
		outputTargets:    gpu.NewOutputTargets(gfx),

		curveInstances:    gpu.NewCachedBuffer[gpu.CurveInstance](gfx, "bezier_instance_buffer", gputypes.BufferUsageVertex),
		firstPassUniforms: gpu.NewCachedBuffer[gpu.FirstPassUniform](gfx, "first_pass_uniform_buffer", gputypes.BufferUsageUniform),
		outputUniforms:    gpu.NewCachedBuffer[gpu.OutputPassUniform](gfx, "output_pass_uniform_buffer", gputypes.BufferUsageUniform),

		waitTimeout: o.waitTimeout,
	}, nil
}

// TargetFormat returns the format of the textures returned by Draw.
func (r *Renderer) TargetFormat() gputypes.TextureFormat { return r.gfx.TargetFormat }

// Draw renders one frame and returns its output texture.
//
// A zero output size or a frame without curves returns the 1x1 dummy
// texture with Empty set, without touching any GPU resource and without
// validating the remaining parameters. Draw does not wait for the GPU.
func (r *Renderer) Draw(params DrawParams) (Frame, error) {
	if r.closed {
		return Frame{}, ErrRendererClosed
	}
	r.frames.Retire()

	w, h := params.OutputSize[0], params.OutputSize[1]
	if w == 0 || h == 0 {
		return r.emptyFrame("zero output size"), nil
	}
	n := params.InstanceCount()
	if n == 0 {
		return r.emptyFrame("no curves"), nil
	}
	if err := params.validate(); err != nil {
		return Frame{}, err
	}

	r.instances = flatten(slices.Grow(r.instances[:0], n), params.Glyphs)

	r.sampleBlocks = sampleUniforms(&params)
	r.outputBlock = outputUniform(&params)

	frame := r.frames.Begin()
	out, err := r.encode(frame, gpu.Extent{Width: w, Height: h})
	if err != nil {
		r.frames.Discard(frame)
		return Frame{}, err
	}

	r.stats.Submitted = r.frames.Submitted()
	r.stats.InFlight = r.frames.InFlight()
	r.stats.TextureCreates = r.firstPassTargets.Creates() + r.outputTargets.Creates()
	r.stats.BufferCreates = r.curveInstances.Creates() + r.firstPassUniforms.Creates() + r.outputUniforms.Creates()
	slogger().Debug("frame submitted",
		slog.Uint64("fence", r.stats.Submitted),
		slog.Int("instances", r.stats.Instances),
		slog.Int("draw_calls", r.stats.DrawCalls),
		slog.Int("in_flight", r.stats.InFlight),
	)
	return out, nil
}

// encode acquires the frame's resources, records both passes and submits.
// Every acquired resource is held by frame until the GPU is done with it.
func (r *Renderer) encode(frame *gpu.InFlight, extent gpu.Extent) (Frame, error) { //nolint:funlen // linear pass recording
	device := r.gfx.Device
	instanceCount := uint32(len(r.instances))

	firstPass, err := r.firstPassTargets.Get(extent)
	if err != nil {
		return Frame{}, fmt.Errorf("teqxt: first pass texture: %w", err)
	}
	frame.Hold(firstPass.Release)

	output, err := r.outputTargets.Get(extent)
	if err != nil {
		return Frame{}, fmt.Errorf("teqxt: output texture: %w", err)
	}
	frame.Hold(output.Release)

	instanceBuf, err := r.curveInstances.WithData(r.instances)
	if err != nil {
		return Frame{}, fmt.Errorf("teqxt: curve instances: %w", err)
	}
	frame.Hold(instanceBuf.Release)

	sampleBuf, err := r.firstPassUniforms.WithData(r.sampleBlocks[:])
	if err != nil {
		return Frame{}, fmt.Errorf("teqxt: sample uniforms: %w", err)
	}
	frame.Hold(sampleBuf.Release)

	outputBuf, err := r.outputUniforms.WithData([]gpu.OutputPassUniform{r.outputBlock})
	if err != nil {
		return Frame{}, fmt.Errorf("teqxt: output uniform: %w", err)
	}
	frame.Hold(outputBuf.Release)

	firstBindGroup, err := r.pipelines.FirstPassBindGroup(sampleBuf.Value())
	if err != nil {
		return Frame{}, fmt.Errorf("teqxt: %w", err)
	}
	frame.BindGroup(firstBindGroup)

	outputBindGroup, err := r.pipelines.OutputPassBindGroup(outputBuf.Value(), firstPass.Value().View)
	if err != nil {
		return Frame{}, fmt.Errorf("teqxt: %w", err)
	}
	frame.BindGroup(outputBindGroup)

	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: r.gfx.Labelf("command_encoder"),
	})
	if err != nil {
		return Frame{}, fmt.Errorf("teqxt: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(r.gfx.Labelf("draw")); err != nil {
		return Frame{}, fmt.Errorf("teqxt: begin encoding: %w", err)
	}

	stats := Stats{Instances: int(instanceCount)}

	// --- First pass: coverage accumulation ---
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: r.gfx.Labelf("main_render_pass"),
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       firstPass.Value().View,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{},
		}},
	})
	rp.SetVertexBuffer(0, instanceBuf.Value(), 0)
	stride := uint32(r.firstPassUniforms.Stride())
	for _, pipeline := range []hal.RenderPipeline{r.pipelines.Triangles, r.pipelines.Curves} {
		rp.SetPipeline(pipeline)
		for i := range SampleCount {
			rp.SetBindGroup(0, firstBindGroup, []uint32{uint32(i) * stride})
			rp.Draw(3, instanceCount, 0, 0)
			stats.DrawCalls++
		}
	}
	rp.End()
	stats.Passes++

	// --- Output pass: resolve ---
	rp = encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: r.gfx.Labelf("postprocess_render_pass"),
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       output.Value().View,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{},
		}},
	})
	rp.SetPipeline(r.pipelines.Output)
	rp.SetBindGroup(0, outputBindGroup, nil)
	rp.Draw(gpu.OutputVertexCount, 1, 0, 0)
	stats.DrawCalls++
	rp.End()
	stats.Passes++

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		encoder.DiscardEncoding()
		return Frame{}, fmt.Errorf("teqxt: end encoding: %w", err)
	}
	if err := r.frames.Submit(frame, cmdBuf); err != nil {
		return Frame{}, fmt.Errorf("teqxt: %w", err)
	}

	r.stats.Instances = stats.Instances
	r.stats.DrawCalls = stats.DrawCalls
	r.stats.Passes = stats.Passes

	t := output.Value()
	return Frame{
		View:   t.View,
		Width:  t.Width,
		Height: t.Height,
		target: output,
	}, nil
}

func (r *Renderer) emptyFrame(reason string) Frame {
	r.stats.Instances = 0
	r.stats.DrawCalls = 0
	r.stats.Passes = 0
	slogger().Debug("empty frame", slog.String("reason", reason))
	d := r.gfx.Dummy()
	return Frame{View: d.View, Width: d.Width, Height: d.Height, Empty: true}
}

// Stats returns statistics about the most recent Draw.
func (r *Renderer) Stats() Stats {
	s := r.stats
	s.InFlight = r.frames.InFlight()
	return s
}

// ReadPixels copies a frame's output into host memory, blocking until the
// GPU has finished it. Only RGBA8Unorm and BGRA8Unorm targets can be read.
// A frame whose texture was already freed returns ErrFrameReleased.
func (r *Renderer) ReadPixels(f Frame) (*image.RGBA, error) {
	if r.closed {
		return nil, ErrRendererClosed
	}
	if f.Empty || f.target == nil {
		return nil, ErrEmptyFrame
	}
	if f.target.Refs() <= 0 {
		return nil, ErrFrameReleased
	}
	img, err := gpu.ReadTarget(r.gfx, r.frames, f.target.Value(), r.waitTimeout)
	if err != nil {
		return nil, fmt.Errorf("teqxt: read pixels: %w", err)
	}
	return img, nil
}

// Close waits for submitted frames, then releases every GPU object the
// renderer created. Textures kept with Frame.Retain stay valid until
// released. Close is idempotent.
func (r *Renderer) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	err := r.frames.Destroy(r.waitTimeout)

	r.curveInstances.Close()
	r.firstPassUniforms.Close()
	r.outputUniforms.Close()
	r.firstPassTargets.Close()
	r.outputTargets.Close()
	r.pipelines.Destroy()
	r.gfx.Destroy()

	if err != nil {
		return fmt.Errorf("teqxt: close: %w", err)
	}
	return nil
}

// Frame is the result of a Draw.
type Frame struct {
	// View is the output texture view. It stays valid until the next Draw
	// with a different output size retires it, unless retained.
	View   hal.TextureView
	Width  uint32
	Height uint32
	// Empty reports that nothing was drawn and View is the 1x1 dummy texture.
	Empty bool

	target *cache.Shared[gpu.Target]
}

// Retain keeps the frame's output texture alive until the returned function
// is called. It must be called before the next Draw. For empty frames it
// returns a no-op.
func (f Frame) Retain() (release func()) {
	if f.target == nil {
		return func() {}
	}
	f.target.Retain()
	return f.target.Release
}
