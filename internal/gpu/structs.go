//go:build !nogpu

package gpu

import (
	"unsafe"

	"github.com/gogpu/gputypes"
	"golang.org/x/exp/constraints"
)

// Struct is a record with a fixed layout on the GPU.
//
// GPUSize is the size of the record as the shader sees it, padded to the
// alignment of its largest member. GPUStride is the distance between
// consecutive records in a buffer; it may depend on device limits.
// Both are called on the zero value, so implementations must not read
// their receiver.
type Struct interface {
	GPUSize() uint64
	GPUStride(limits *gputypes.Limits) uint64
}

// Alignments of WGSL vector types, in bytes.
const (
	alignVec2 = 8
	alignVec4 = 16
)

// defaultUniformOffsetAlignment is the WebGPU default for
// minUniformBufferOffsetAlignment, used when the limits leave it unset.
const defaultUniformOffsetAlignment = 256

func alignUp[T constraints.Integer](x, align T) T {
	if r := x % align; r != 0 {
		return x + align - r
	}
	return x
}

func sizeOf[T any]() uint64 {
	var zero T
	return uint64(unsafe.Sizeof(zero))
}

// CurveInstance is one quadratic Bézier curve of one glyph, as consumed by
// both coverage pipelines. All coordinates are in em units; P0, P1 and P2
// are relative to Offset.
type CurveInstance struct {
	Offset [2]float32
	P0     [2]float32
	P1     [2]float32
	P2     [2]float32
}

// GPUSize returns 32.
func (CurveInstance) GPUSize() uint64 { return alignUp(sizeOf[CurveInstance](), alignVec2) }

// GPUStride equals GPUSize: instances are tightly packed.
func (c CurveInstance) GPUStride(*gputypes.Limits) uint64 { return c.GPUSize() }

// CurveInstanceLayout describes CurveInstance as a per-instance vertex
// buffer with attributes at locations 0 through 3.
func CurveInstanceLayout() gputypes.VertexBufferLayout {
	attrs := make([]gputypes.VertexAttribute, 4)
	for i := range attrs {
		attrs[i] = gputypes.VertexAttribute{
			Format:         gputypes.VertexFormatFloat32x2,
			Offset:         uint64(i) * 8,
			ShaderLocation: uint32(i),
		}
	}
	return gputypes.VertexBufferLayout{
		ArrayStride: CurveInstance{}.GPUStride(nil),
		StepMode:    gputypes.VertexStepModeInstance,
		Attributes:  attrs,
	}
}

// FirstPassUniform is the per-sample uniform block of the coverage pass.
type FirstPassUniform struct {
	// Components is the channel mask the sample contributes to. Alpha is
	// always 1.
	Components [4]float32
	// Scale converts em units to normalized device coordinates.
	Scale [2]float32
	// Translation is added to em coordinates before scaling.
	Translation [2]float32
}

// GPUSize returns 32.
func (FirstPassUniform) GPUSize() uint64 { return alignUp(sizeOf[FirstPassUniform](), alignVec4) }

// GPUStride rounds the size up to the device's dynamic uniform offset
// alignment, so each sample can be bound at i*stride.
func (u FirstPassUniform) GPUStride(limits *gputypes.Limits) uint64 {
	return alignUp(u.GPUSize(), uniformOffsetAlignment(limits))
}

// OutputPassUniform is the uniform block of the resolve pass.
type OutputPassUniform struct {
	SampleCount uint32
	// SubpixelAA is 1 when channels are resolved independently.
	SubpixelAA uint32
	Gamma      float32
}

// GPUSize returns 16.
func (OutputPassUniform) GPUSize() uint64 { return alignUp(sizeOf[OutputPassUniform](), alignVec2) }

// GPUStride equals GPUSize.
func (u OutputPassUniform) GPUStride(*gputypes.Limits) uint64 { return u.GPUSize() }

func uniformOffsetAlignment(limits *gputypes.Limits) uint64 {
	if limits == nil || limits.MinUniformBufferOffsetAlignment == 0 {
		return defaultUniformOffsetAlignment
	}
	return uint64(limits.MinUniformBufferOffsetAlignment)
}
