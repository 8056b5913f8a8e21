//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Binding slots inside bind group 0.
const (
	UniformBinding       uint32 = 0
	SampleTextureBinding uint32 = 1
)

// firstPassLayoutEntries: one uniform block per sample, selected with a
// dynamic offset.
func firstPassLayoutEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{
		{
			Binding:    UniformBinding,
			Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
			Buffer: &gputypes.BufferBindingLayout{
				Type:             gputypes.BufferBindingTypeUniform,
				HasDynamicOffset: true,
				MinBindingSize:   FirstPassUniform{}.GPUSize(),
			},
		},
	}
}

// outputPassLayoutEntries: the resolve uniform and the accumulation texture,
// read with textureLoad so it needs no sampler.
func outputPassLayoutEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{
		{
			Binding:    UniformBinding,
			Visibility: gputypes.ShaderStageFragment,
			Buffer: &gputypes.BufferBindingLayout{
				Type:           gputypes.BufferBindingTypeUniform,
				MinBindingSize: OutputPassUniform{}.GPUSize(),
			},
		},
		{
			Binding:    SampleTextureBinding,
			Visibility: gputypes.ShaderStageFragment,
			Texture: &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeUnfilterableFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			},
		},
	}
}

// FirstPassBindGroup binds the sample uniform buffer. Only one block is
// visible at a time; SetBindGroup picks it with offset i*stride.
func (p *Pipelines) FirstPassBindGroup(uniforms hal.Buffer) (hal.BindGroup, error) {
	bg, err := p.gfx.Device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  p.gfx.label("first_pass_bind_group"),
		Layout: p.firstPassLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: UniformBinding, Resource: gputypes.BufferBinding{
				Buffer: uniforms.NativeHandle(), Offset: 0, Size: FirstPassUniform{}.GPUSize(),
			}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create first pass bind group: %w", err)
	}
	return bg, nil
}

// OutputPassBindGroup binds the resolve uniform and the accumulation view.
func (p *Pipelines) OutputPassBindGroup(uniform hal.Buffer, samples hal.TextureView) (hal.BindGroup, error) {
	bg, err := p.gfx.Device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  p.gfx.label("output_pass_bind_group"),
		Layout: p.outputLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: UniformBinding, Resource: gputypes.BufferBinding{
				Buffer: uniform.NativeHandle(), Offset: 0, Size: OutputPassUniform{}.GPUSize(),
			}},
			{Binding: SampleTextureBinding, Resource: gputypes.TextureViewBinding{
				TextureView: samples.NativeHandle(),
			}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create output pass bind group: %w", err)
	}
	return bg, nil
}
