// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package teqxt

import "errors"

var (
	// ErrNilDevice is returned when a renderer is created without a device.
	ErrNilDevice = errors.New("teqxt: nil device")

	// ErrNilQueue is returned when a renderer is created without a queue.
	ErrNilQueue = errors.New("teqxt: nil queue")

	// ErrNilProvider is returned by NewRendererFromProvider for a nil provider.
	ErrNilProvider = errors.New("teqxt: nil device provider")

	// ErrNoHALAccess is returned when a provider does not expose HAL objects.
	ErrNoHALAccess = errors.New("teqxt: provider does not expose HAL device and queue")

	// ErrRendererClosed is returned when using a closed renderer.
	ErrRendererClosed = errors.New("teqxt: renderer is closed")

	// ErrInvalidScale is returned when PxPerEm is not a positive finite number.
	ErrInvalidScale = errors.New("teqxt: pixels per em must be positive and finite")

	// ErrInvalidGamma is returned when Gamma is not a positive finite number.
	ErrInvalidGamma = errors.New("teqxt: gamma must be positive and finite")

	// ErrEmptyFrame is returned when reading back a frame that drew nothing.
	ErrEmptyFrame = errors.New("teqxt: frame has no output texture")

	// ErrFrameReleased is returned when reading back a frame whose output
	// texture was freed after a resize. Retain the frame to read it later.
	ErrFrameReleased = errors.New("teqxt: frame texture has been released")
)
