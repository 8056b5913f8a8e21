// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package teqxt

import (
	"github.com/chewxy/math32"

	"github.com/gogpu/teqxt/internal/gpu"
)

// Vec2 is a 2D vector in em units unless stated otherwise.
type Vec2 [2]float32

// Curve is a quadratic Bézier curve: start, control and end point.
type Curve [3]Vec2

// Line returns the straight segment from a to b as a degenerate quadratic
// curve with its control point at the midpoint.
func Line(a, b Vec2) Curve {
	mid := Vec2{(a[0] + b[0]) / 2, (a[1] + b[1]) / 2}
	return Curve{a, mid, b}
}

// Glyph is one positioned glyph outline.
//
// Curves must form closed contours. Their orientation decides the winding
// sign; overlapping contours of the same orientation are filled once.
type Glyph struct {
	// Offset is the glyph origin in ems.
	Offset Vec2
	// Curves are relative to Offset, in ems.
	Curves []Curve
}

// DrawParams describes one frame.
type DrawParams struct {
	// OutputSize is the output texture size in pixels.
	OutputSize [2]uint32
	// PxPerEm is the number of output pixels per em.
	PxPerEm float32
	// Translation is added to every em coordinate before scaling.
	// The em-space origin maps to the center of the output.
	Translation Vec2
	Glyphs      []Glyph
	// Gamma is the exponent applied as 1/Gamma to coverage, typically 2.2.
	Gamma float32
	// SubpixelAA resolves the three color channels independently.
	SubpixelAA bool
}

// InstanceCount returns the total number of curves over all glyphs.
func (p *DrawParams) InstanceCount() int {
	n := 0
	for i := range p.Glyphs {
		n += len(p.Glyphs[i].Curves)
	}
	return n
}

func (p *DrawParams) validate() error {
	if !positiveFinite(p.PxPerEm) {
		return ErrInvalidScale
	}
	if !positiveFinite(p.Gamma) {
		return ErrInvalidGamma
	}
	return nil
}

func positiveFinite(v float32) bool {
	return v > 0 && !math32.IsInf(v, 1) && !math32.IsNaN(v)
}

// Sample is one jittered coverage sample.
type Sample struct {
	// Offset is the sample position inside the pixel, in pixels.
	Offset Vec2
	// Components is the channel the sample counts toward. Alpha is 1 on every
	// sample so each touched pixel is flagged.
	Components [4]float32
}

var (
	red   = [4]float32{1, 0, 0, 1}
	green = [4]float32{0, 1, 0, 1}
	blue  = [4]float32{0, 0, 1, 1}
)

// SampleCount is the number of coverage samples per pixel.
const SampleCount = 6

// samples is the fixed sample pattern: two samples per channel, spread over
// the pixel so no two share a row or a column.
var samples = [SampleCount]Sample{
	{Offset: Vec2{0.0 / 6, 4.0 / 6}, Components: blue},
	{Offset: Vec2{1.0 / 6, 1.0 / 6}, Components: blue},
	{Offset: Vec2{2.0 / 6, 5.0 / 6}, Components: green},
	{Offset: Vec2{3.0 / 6, 2.0 / 6}, Components: green},
	{Offset: Vec2{4.0 / 6, 3.0 / 6}, Components: red},
	{Offset: Vec2{5.0 / 6, 0.0 / 6}, Components: red},
}

// Samples returns a copy of the sample pattern.
func Samples() [SampleCount]Sample { return samples }

// flatten appends one instance per curve, in glyph order then curve order.
func flatten(dst []gpu.CurveInstance, glyphs []Glyph) []gpu.CurveInstance {
	for i := range glyphs {
		g := &glyphs[i]
		for _, c := range g.Curves {
			dst = append(dst, gpu.CurveInstance{
				Offset: g.Offset,
				P0:     c[0],
				P1:     c[1],
				P2:     c[2],
			})
		}
	}
	return dst
}

// ndcPerEm converts em units to normalized device coordinates for an output
// of w by h pixels.
func ndcPerEm(w, h uint32, pxPerEm float32) [2]float32 {
	return [2]float32{2 * pxPerEm / float32(w), 2 * pxPerEm / float32(h)}
}

// sampleUniforms builds one uniform block per sample, shifting the
// translation by the sample offset converted to ems.
func sampleUniforms(params *DrawParams) [SampleCount]gpu.FirstPassUniform {
	scale := ndcPerEm(params.OutputSize[0], params.OutputSize[1], params.PxPerEm)
	var out [SampleCount]gpu.FirstPassUniform
	for i, s := range samples {
		out[i] = gpu.FirstPassUniform{
			Components: s.Components,
			Scale:      scale,
			Translation: [2]float32{
				params.Translation[0] + s.Offset[0]/params.PxPerEm,
				params.Translation[1] + s.Offset[1]/params.PxPerEm,
			},
		}
	}
	return out
}

func outputUniform(params *DrawParams) gpu.OutputPassUniform {
	u := gpu.OutputPassUniform{SampleCount: SampleCount, Gamma: params.Gamma}
	if params.SubpixelAA {
		u.SubpixelAA = 1
	}
	return u
}
