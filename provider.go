// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package teqxt

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// halProvider is implemented by device providers that expose their HAL
// objects, such as the gogpu application context.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// NewRendererFromProvider creates a renderer that shares the device of a
// gpucontext.DeviceProvider. The provider must also expose HalDevice and
// HalQueue. Unless WithTargetFormat is given, the output format follows the
// provider's surface format.
func NewRendererFromProvider(provider gpucontext.DeviceProvider, opts ...Option) (*Renderer, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHALAccess
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, ErrNoHALAccess
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, ErrNoHALAccess
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if !o.targetFormatSet {
		if f := provider.SurfaceFormat(); f != gputypes.TextureFormatUndefined {
			o.targetFormat = f
		}
	}
	return newRenderer(device, queue, o)
}
