// Package haltest provides HAL devices for tests. The noop backend is
// wrapped to record resource lifetimes, encoded commands, buffer writes and
// submissions. Fence completion is under the test's control.
package haltest

import (
	"errors"
	"testing"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// NoopDevice opens a device on the noop backend. Cleanup is registered with t.
func NoopDevice(t testing.TB) (hal.Device, hal.Queue) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		t.Fatal("noop backend has no adapters")
	}
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})
	return openDev.Device, openDev.Queue
}

// Recorder counts what a Device and Queue pair did.
type Recorder struct {
	Textures []hal.TextureDescriptor
	Buffers  []hal.BufferDescriptor

	DestroyedTextures   int
	DestroyedBuffers    int
	DestroyedBindGroups int
	FreedCommandBuffers int

	// Submits holds the fence value of every submission.
	Submits []uint64

	// Writes holds every Queue.WriteBuffer in order.
	Writes []Write

	// Encoders counts created command encoders. Discarded counts
	// DiscardEncoding calls.
	Encoders  int
	Discarded int
	// Passes holds every render pass begun on any encoder.
	Passes []*Pass

	// FailBeginEncoding and FailEndEncoding make the next call fail.
	FailBeginEncoding bool
	FailEndEncoding   bool

	bufferLabels map[hal.Buffer]string

	// Manual makes fences complete only up to Completed. Otherwise every
	// submission is complete as soon as it is made.
	Manual    bool
	Completed uint64
}

// Device wraps a hal.Device and records into a Recorder.
type Device struct {
	hal.Device
	R *Recorder
}

// Queue wraps a hal.Queue and records into a Recorder.
type Queue struct {
	hal.Queue
	R *Recorder
}

// RecordingDevice opens a noop device wrapped in a shared Recorder.
func RecordingDevice(t testing.TB) (*Device, *Queue, *Recorder) {
	t.Helper()
	device, queue := NoopDevice(t)
	r := &Recorder{}
	return &Device{Device: device, R: r}, &Queue{Queue: queue, R: r}, r
}

func (d *Device) CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error) {
	tex, err := d.Device.CreateTexture(desc)
	if err == nil {
		d.R.Textures = append(d.R.Textures, *desc)
	}
	return tex, err
}

func (d *Device) DestroyTexture(tex hal.Texture) {
	d.R.DestroyedTextures++
	d.Device.DestroyTexture(tex)
}

func (d *Device) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	buf, err := d.Device.CreateBuffer(desc)
	if err == nil {
		d.R.Buffers = append(d.R.Buffers, *desc)
		if d.R.bufferLabels == nil {
			d.R.bufferLabels = make(map[hal.Buffer]string)
		}
		d.R.bufferLabels[buf] = desc.Label
	}
	return buf, err
}

func (d *Device) DestroyBuffer(buf hal.Buffer) {
	d.R.DestroyedBuffers++
	d.Device.DestroyBuffer(buf)
}

func (d *Device) DestroyBindGroup(bg hal.BindGroup) {
	d.R.DestroyedBindGroups++
	d.Device.DestroyBindGroup(bg)
}

func (d *Device) FreeCommandBuffer(cb hal.CommandBuffer) {
	d.R.FreedCommandBuffers++
	d.Device.FreeCommandBuffer(cb)
}

// Wait reports whether value has been reached without blocking.
func (d *Device) Wait(_ hal.Fence, value uint64, _ time.Duration) (bool, error) {
	if !d.R.Manual {
		return true, nil
	}
	return value <= d.R.Completed, nil
}

// Submit records the fence value; nothing is executed.
func (q *Queue) Submit(_ []hal.CommandBuffer, _ hal.Fence, value uint64) error {
	q.R.Submits = append(q.R.Submits, value)
	return nil
}

// WriteBuffer records a copy of data under the buffer's label.
func (q *Queue) WriteBuffer(buf hal.Buffer, offset uint64, data []byte) error {
	q.R.Writes = append(q.R.Writes, Write{
		Label:  q.R.bufferLabels[buf],
		Offset: offset,
		Data:   append([]byte(nil), data...),
	})
	return q.Queue.WriteBuffer(buf, offset, data)
}

// ReadBuffer leaves data zeroed; nothing is ever rendered.
func (q *Queue) ReadBuffer(_ hal.Buffer, _ uint64, data []byte) error {
	clear(data)
	return nil
}

// Write is one recorded buffer upload.
type Write struct {
	Label  string
	Offset uint64
	Data   []byte
}

// WritesTo returns the writes into the buffer labelled label.
func (r *Recorder) WritesTo(label string) []Write {
	var out []Write
	for _, w := range r.Writes {
		if w.Label == label {
			out = append(out, w)
		}
	}
	return out
}

// Pass is one recorded render pass.
type Pass struct {
	Label string
	Draws []DrawCall
	Ended bool
}

// Pipeline wraps a hal.RenderPipeline with its label. Noop pipelines are
// indistinguishable from each other otherwise.
type Pipeline struct {
	hal.RenderPipeline
	Label string
}

func (d *Device) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	p, err := d.Device.CreateRenderPipeline(desc)
	if err != nil {
		return nil, err
	}
	return &Pipeline{RenderPipeline: p, Label: desc.Label}, nil
}

func (d *Device) DestroyRenderPipeline(p hal.RenderPipeline) {
	if w, ok := p.(*Pipeline); ok {
		p = w.RenderPipeline
	}
	d.Device.DestroyRenderPipeline(p)
}

// DrawCall is one Draw with the state bound when it was issued.
type DrawCall struct {
	// Pipeline is the label of the bound pipeline.
	Pipeline      string
	BindGroup     hal.BindGroup
	Offsets       []uint32
	VertexCount   uint32
	InstanceCount uint32
}

func (d *Device) CreateCommandEncoder(desc *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	enc, err := d.Device.CreateCommandEncoder(desc)
	if err != nil {
		return nil, err
	}
	d.R.Encoders++
	return &Encoder{CommandEncoder: enc, r: d.R}, nil
}

// Encoder wraps a hal.CommandEncoder and records its render passes.
type Encoder struct {
	hal.CommandEncoder
	r *Recorder
}

var errInjected = errors.New("haltest: injected failure")

func (e *Encoder) BeginEncoding(label string) error {
	if e.r.FailBeginEncoding {
		e.r.FailBeginEncoding = false
		return errInjected
	}
	return e.CommandEncoder.BeginEncoding(label)
}

func (e *Encoder) EndEncoding() (hal.CommandBuffer, error) {
	if e.r.FailEndEncoding {
		e.r.FailEndEncoding = false
		return nil, errInjected
	}
	return e.CommandEncoder.EndEncoding()
}

func (e *Encoder) DiscardEncoding() {
	e.r.Discarded++
	e.CommandEncoder.DiscardEncoding()
}

func (e *Encoder) BeginRenderPass(desc *hal.RenderPassDescriptor) hal.RenderPassEncoder {
	p := &Pass{Label: desc.Label}
	e.r.Passes = append(e.r.Passes, p)
	return &RenderPass{RenderPassEncoder: e.CommandEncoder.BeginRenderPass(desc), pass: p}
}

// RenderPass wraps a hal.RenderPassEncoder and records draws.
type RenderPass struct {
	hal.RenderPassEncoder
	pass      *Pass
	pipeline  string
	bindGroup hal.BindGroup
	offsets   []uint32
}

func (p *RenderPass) SetPipeline(pipeline hal.RenderPipeline) {
	p.pipeline = ""
	if w, ok := pipeline.(*Pipeline); ok {
		p.pipeline = w.Label
		pipeline = w.RenderPipeline
	}
	p.RenderPassEncoder.SetPipeline(pipeline)
}

func (p *RenderPass) SetBindGroup(index uint32, group hal.BindGroup, offsets []uint32) {
	p.bindGroup = group
	p.offsets = append([]uint32(nil), offsets...)
	p.RenderPassEncoder.SetBindGroup(index, group, offsets)
}

func (p *RenderPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.pass.Draws = append(p.pass.Draws, DrawCall{
		Pipeline:      p.pipeline,
		BindGroup:     p.bindGroup,
		Offsets:       p.offsets,
		VertexCount:   vertexCount,
		InstanceCount: instanceCount,
	})
	p.RenderPassEncoder.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

func (p *RenderPass) End() {
	p.pass.Ended = true
	p.RenderPassEncoder.End()
}
