// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package teqxt

import (
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/teqxt/internal/gpu"
)

// Option configures a Renderer during creation.
//
// Example:
//
//	r, err := teqxt.NewRenderer(device, queue,
//	    teqxt.WithTargetFormat(gputypes.TextureFormatRGBA8Unorm),
//	    teqxt.WithSPIRV(),
//	)
type Option func(*options)

type options struct {
	targetFormat    gputypes.TextureFormat
	targetFormatSet bool
	limits          gputypes.Limits
	label           string
	shaderFormat    gpu.ShaderFormat
	waitTimeout     time.Duration
}

// DefaultWaitTimeout bounds the blocking waits in Close and ReadPixels.
const DefaultWaitTimeout = 5 * time.Second

func defaultOptions() options {
	return options{
		targetFormat: gputypes.TextureFormatBGRA8Unorm,
		limits:       gputypes.DefaultLimits(),
		label:        "teqxt",
		shaderFormat: gpu.ShaderFormatWGSL,
		waitTimeout:  DefaultWaitTimeout,
	}
}

// WithTargetFormat sets the format of the output texture.
// The default is BGRA8Unorm, or the surface format when the renderer is
// created from a device provider.
func WithTargetFormat(format gputypes.TextureFormat) Option {
	return func(o *options) {
		o.targetFormat = format
		o.targetFormatSet = true
	}
}

// WithLimits passes the limits the device was opened with. The renderer
// reads MinUniformBufferOffsetAlignment from them to lay out per-sample
// uniform blocks. The default is gputypes.DefaultLimits().
func WithLimits(limits gputypes.Limits) Option {
	return func(o *options) {
		o.limits = limits
	}
}

// WithLabel sets the prefix of every GPU debug label. The default is "teqxt".
func WithLabel(label string) Option {
	return func(o *options) {
		o.label = label
	}
}

// WithSPIRV compiles the shaders to SPIR-V with naga before handing them to
// the backend, instead of passing WGSL text.
func WithSPIRV() Option {
	return func(o *options) {
		o.shaderFormat = gpu.ShaderFormatSPIRV
	}
}

// WithWaitTimeout bounds how long Close and ReadPixels wait for the GPU.
// Non-positive values are ignored.
func WithWaitTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.waitTimeout = d
		}
	}
}
