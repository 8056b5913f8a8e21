// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package teqxt renders glyph outlines on the GPU.
//
// # Overview
//
// teqxt takes glyphs described as quadratic Bézier curves in em units and
// draws them into a texture with a two-pass multisample coverage technique.
// The first pass accumulates six jittered coverage samples per pixel, two per
// color channel, into a float texture. The second pass resolves them with
// gamma correction and, optionally, subpixel-aware weighting.
//
// Everything runs through the gogpu/wgpu HAL, so the renderer works on any
// backend gogpu supports and on the noop device in tests.
//
// # Quick Start
//
//	r, err := teqxt.NewRenderer(device, queue)
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	frame, err := r.Draw(teqxt.DrawParams{
//	    OutputSize: [2]uint32{800, 600},
//	    PxPerEm:    48,
//	    Glyphs:     glyphs,
//	    Gamma:      2.2,
//	})
//
// frame.View can be sampled or presented until the next Draw. Call
// frame.Retain to keep it longer.
//
// # Glyph outlines
//
// teqxt does no shaping, hinting or layout. The outline sub-package turns
// sfnt glyphs into Glyph values; positioning them is up to the caller.
//
// # Logging
//
// teqxt is silent by default. See [SetLogger].
//
// # Thread Safety
//
// A Renderer is not safe for concurrent use. Serialize calls to Draw.
package teqxt
