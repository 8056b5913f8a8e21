//go:build !nogpu

package gpu

import (
	"testing"

	"github.com/gogpu/gputypes"
)

func TestStructLayouts(t *testing.T) {
	limits := gputypes.DefaultLimits()
	tests := []struct {
		name   string
		s      Struct
		size   uint64
		stride uint64
	}{
		{"CurveInstance", CurveInstance{}, 32, 32},
		{"FirstPassUniform", FirstPassUniform{}, 32, 256},
		{"OutputPassUniform", OutputPassUniform{}, 16, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.GPUSize(); got != tt.size {
				t.Errorf("GPUSize() = %d, want %d", got, tt.size)
			}
			if got := tt.s.GPUStride(&limits); got != tt.stride {
				t.Errorf("GPUStride() = %d, want %d", got, tt.stride)
			}
			if tt.s.GPUStride(&limits) < tt.s.GPUSize() {
				t.Error("stride smaller than size")
			}
		})
	}
}

func TestFirstPassUniformStrideFollowsLimits(t *testing.T) {
	tests := []struct {
		name   string
		limits *gputypes.Limits
		want   uint64
	}{
		{"nil limits", nil, 256},
		{"unset", &gputypes.Limits{}, 256},
		{"64", &gputypes.Limits{MinUniformBufferOffsetAlignment: 64}, 64},
		{"smaller than size", &gputypes.Limits{MinUniformBufferOffsetAlignment: 16}, 32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (FirstPassUniform{}).GPUStride(tt.limits); got != tt.want {
				t.Errorf("GPUStride = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAlignUp(t *testing.T) {
	tests := []struct{ x, align, want uint64 }{
		{0, 8, 0},
		{1, 8, 8},
		{8, 8, 8},
		{12, 8, 16},
		{32, 256, 256},
		{257, 256, 512},
	}
	for _, tt := range tests {
		if got := alignUp(tt.x, tt.align); got != tt.want {
			t.Errorf("alignUp(%d, %d) = %d, want %d", tt.x, tt.align, got, tt.want)
		}
	}
}

func TestCurveInstanceLayout(t *testing.T) {
	l := CurveInstanceLayout()
	if l.ArrayStride != 32 {
		t.Errorf("ArrayStride = %d, want 32", l.ArrayStride)
	}
	if l.StepMode != gputypes.VertexStepModeInstance {
		t.Errorf("StepMode = %v, want instance", l.StepMode)
	}
	if len(l.Attributes) != 4 {
		t.Fatalf("got %d attributes, want 4", len(l.Attributes))
	}
	for i, a := range l.Attributes {
		if a.ShaderLocation != uint32(i) || a.Offset != uint64(i)*8 || a.Format != gputypes.VertexFormatFloat32x2 {
			t.Errorf("attribute %d = %+v", i, a)
		}
	}
}
