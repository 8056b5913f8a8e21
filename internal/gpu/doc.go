//go:build !nogpu

// Package gpu holds the GPU side of the teqxt glyph renderer.
//
// It is an internal package used by the teqxt root package. Everything here
// talks to the gogpu/wgpu HAL directly, so it runs on Vulkan, Metal, DX12,
// GLES or the noop test device without CGO.
//
// # Architecture Overview
//
// A frame is rendered in two passes:
//
//	CurveInstance buffer -> coverage pass (6 samples x {triangle, curve}) -> RGBA16Float
//	RGBA16Float -> resolve pass (gamma, subpixel weighting) -> target format
//
// Key components:
//
//   - Gfx: device, queue, target format, limits and the 1x1 dummy texture
//   - Struct, CurveInstance, FirstPassUniform, OutputPassUniform: records
//     with a fixed GPU size and stride
//   - CachedBuffer: grow-only buffer of records, rewritten every frame
//   - TargetCache: first-pass and output textures keyed by extent
//   - Pipelines: the triangle, curve and output render pipelines
//   - FrameTracker: keeps per-frame resources alive until the GPU is done
//
// # Coverage pass
//
// Each curve instance is drawn twice per sample. The triangle pipeline
// rasterizes the fan triangle from the glyph origin to the curve end points
// with a winding-dependent sign, giving the polygon fill. The curve pipeline
// rasterizes start, control and end and keeps only the pixels between the
// chord and the curve, adding the signed correction. Colors add up; alpha is
// overwritten with 1 to flag touched pixels.
//
// # Resolve pass
//
// A full-screen triangle strip reads the accumulated counts, turns them into
// per-channel coverage, applies 1/gamma and either averages the channels or
// keeps them apart for subpixel output.
//
// # Build Tags
//
// Build with -tags nogpu to exclude this package.
package gpu
