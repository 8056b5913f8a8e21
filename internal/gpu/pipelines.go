//go:build !nogpu

package gpu

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Entry points of the embedded shaders.
const (
	triangleVertexEntry   = "triangle_vertex"
	triangleFragmentEntry = "triangle_fragment"
	curveVertexEntry      = "curve_vertex"
	curveFragmentEntry    = "curve_fragment"
	outputVertexEntry     = "output_vertex"
	outputFragmentEntry   = "output_fragment"
)

// OutputVertexCount is the vertex count of the full-screen strip drawn by
// the output pipeline.
const OutputVertexCount = 4

// Pipelines holds the three render pipelines of the renderer and the
// objects they are built from. They never change after construction.
type Pipelines struct {
	gfx *Gfx

	coverageShader hal.ShaderModule
	resolveShader  hal.ShaderModule

	firstPassLayout     hal.BindGroupLayout
	outputLayout        hal.BindGroupLayout
	firstPassPipeLayout hal.PipelineLayout
	outputPipeLayout    hal.PipelineLayout

	// Triangles accumulates fan triangles (clockwise front faces).
	Triangles hal.RenderPipeline
	// Curves accumulates the chord-to-curve correction (clockwise front
	// faces).
	Curves hal.RenderPipeline
	// Output resolves the accumulation texture into the target format.
	Output hal.RenderPipeline
}

// NewPipelines compiles the shaders and builds all pipelines. On error
// everything created so far is destroyed.
func NewPipelines(g *Gfx, format ShaderFormat) (*Pipelines, error) {
	p := &Pipelines{gfx: g}
	if err := p.create(format); err != nil {
		p.Destroy()
		return nil, err
	}
	slogger().Info("pipelines ready",
		slog.String("shader_format", format.String()),
		slog.Any("target_format", g.TargetFormat),
	)
	return p, nil
}

func (p *Pipelines) create(format ShaderFormat) error { //nolint:funlen // three pipelines share one setup
	device := p.gfx.Device
	var err error

	if p.coverageShader, err = p.gfx.createShaderModule("coverage", coverageShaderSource, format); err != nil {
		return err
	}
	if p.resolveShader, err = p.gfx.createShaderModule("resolve", resolveShaderSource, format); err != nil {
		return err
	}

	p.firstPassLayout, err = device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   p.gfx.label("first_pass_bind_group_layout"),
		Entries: firstPassLayoutEntries(),
	})
	if err != nil {
		return fmt.Errorf("create first pass bind group layout: %w", err)
	}
	p.outputLayout, err = device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   p.gfx.label("output_pass_bind_group_layout"),
		Entries: outputPassLayoutEntries(),
	})
	if err != nil {
		return fmt.Errorf("create output pass bind group layout: %w", err)
	}

	p.firstPassPipeLayout, err = device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            p.gfx.label("first_pass_pipeline_layout"),
		BindGroupLayouts: []hal.BindGroupLayout{p.firstPassLayout},
	})
	if err != nil {
		return fmt.Errorf("create first pass pipeline layout: %w", err)
	}
	p.outputPipeLayout, err = device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            p.gfx.label("output_pass_pipeline_layout"),
		BindGroupLayouts: []hal.BindGroupLayout{p.outputLayout},
	})
	if err != nil {
		return fmt.Errorf("create output pass pipeline layout: %w", err)
	}

	if p.Triangles, err = p.firstPassPipeline("render_triangles_pipeline",
		triangleVertexEntry, triangleFragmentEntry); err != nil {
		return err
	}
	if p.Curves, err = p.firstPassPipeline("render_curves_pipeline",
		curveVertexEntry, curveFragmentEntry); err != nil {
		return err
	}

	// --- Output Pipeline ---
	//
	// No vertex buffers: the strip is generated from vertex_index.
	// Standard alpha blending into the caller's format.
	alphaBlend := gputypes.BlendState{
		Color: gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorSrcAlpha,
			DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
			Operation: gputypes.BlendOperationAdd,
		},
		Alpha: gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorOne,
			DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
			Operation: gputypes.BlendOperationAdd,
		},
	}
	p.Output, err = device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  p.gfx.label("render_output_pipeline"),
		Layout: p.outputPipeLayout,
		Vertex: hal.VertexState{
			Module:     p.resolveShader,
			EntryPoint: outputVertexEntry,
		},
		Fragment: &hal.FragmentState{
			Module:     p.resolveShader,
			EntryPoint: outputFragmentEntry,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    p.gfx.TargetFormat,
					Blend:     &alphaBlend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  gputypes.PrimitiveTopologyTriangleStrip,
			FrontFace: gputypes.FrontFaceCCW,
			CullMode:  gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
	})
	if err != nil {
		return fmt.Errorf("create output pipeline: %w", err)
	}
	return nil
}

// firstPassPipeline builds one of the two coverage pipelines. They differ
// only in entry points; both count clockwise triangles as positive.
func (p *Pipelines) firstPassPipeline(name, vertexEntry, fragmentEntry string) (hal.RenderPipeline, error) {
	// Color channels sum up; alpha is a flag and is overwritten.
	accumulate := gputypes.BlendState{
		Color: gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorOne,
			DstFactor: gputypes.BlendFactorOne,
			Operation: gputypes.BlendOperationAdd,
		},
		Alpha: gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorOne,
			DstFactor: gputypes.BlendFactorZero,
			Operation: gputypes.BlendOperationAdd,
		},
	}

	pipeline, err := p.gfx.Device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  p.gfx.label(name),
		Layout: p.firstPassPipeLayout,
		Vertex: hal.VertexState{
			Module:     p.coverageShader,
			EntryPoint: vertexEntry,
			Buffers:    []gputypes.VertexBufferLayout{CurveInstanceLayout()},
		},
		Fragment: &hal.FragmentState{
			Module:     p.coverageShader,
			EntryPoint: fragmentEntry,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    SampleTextureFormat,
					Blend:     &accumulate,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  gputypes.PrimitiveTopologyTriangleList,
			FrontFace: gputypes.FrontFaceCW,
			CullMode:  gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}
	return pipeline, nil
}

// Destroy releases all pipeline objects. Safe to call more than once.
func (p *Pipelines) Destroy() {
	device := p.gfx.Device
	for _, rp := range []*hal.RenderPipeline{&p.Output, &p.Curves, &p.Triangles} {
		if *rp != nil {
			device.DestroyRenderPipeline(*rp)
			*rp = nil
		}
	}
	for _, pl := range []*hal.PipelineLayout{&p.outputPipeLayout, &p.firstPassPipeLayout} {
		if *pl != nil {
			device.DestroyPipelineLayout(*pl)
			*pl = nil
		}
	}
	for _, bgl := range []*hal.BindGroupLayout{&p.outputLayout, &p.firstPassLayout} {
		if *bgl != nil {
			device.DestroyBindGroupLayout(*bgl)
			*bgl = nil
		}
	}
	for _, sm := range []*hal.ShaderModule{&p.resolveShader, &p.coverageShader} {
		if *sm != nil {
			device.DestroyShaderModule(*sm)
			*sm = nil
		}
	}
}
