//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ErrUnsupportedReadback is returned for targets that are not 8-bit RGBA or BGRA.
var ErrUnsupportedReadback = errors.New("gpu: readback supports only RGBA8Unorm and BGRA8Unorm targets")

// copyPitchAlignment is the required BytesPerRow alignment of texture copies.
const copyPitchAlignment = 256

// ReadTarget copies t into host memory. It submits a copy after all work
// already queued, then blocks until the GPU finishes or timeout expires.
func ReadTarget(g *Gfx, frames *FrameTracker, t Target, timeout time.Duration) (*image.RGBA, error) {
	swizzle := false
	switch t.Format {
	case gputypes.TextureFormatRGBA8Unorm:
	case gputypes.TextureFormatBGRA8Unorm:
		swizzle = true
	default:
		return nil, ErrUnsupportedReadback
	}

	w, h := t.Width, t.Height
	bytesPerRow := w * 4
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(h)

	staging, err := g.Device.CreateBuffer(&hal.BufferDescriptor{
		Label: g.label("readback_staging"),
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer g.Device.DestroyBuffer(staging)

	encoder, err := g.Device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: g.label("readback")})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(g.label("readback")); err != nil {
		encoder.DiscardEncoding()
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.Texture,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(t.Texture, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: t.Texture, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.Texture,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		encoder.DiscardEncoding()
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	if err := frames.Submit(frames.Begin(), cmdBuf); err != nil {
		return nil, err
	}
	if err := frames.WaitIdle(timeout); err != nil {
		return nil, err
	}

	data := make([]byte, stagingSize)
	if err := g.Queue.ReadBuffer(staging, 0, data); err != nil {
		return nil, fmt.Errorf("readback: %w", err)
	}

	return unpackRows(data, int(w), int(h), int(alignedBytesPerRow), swizzle), nil
}

// unpackRows strips the row padding of a texture copy and, for BGRA data,
// swaps red and blue.
func unpackRows(data []byte, w, h, pitch int, swizzle bool) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for row := 0; row < h; row++ {
		src := data[row*pitch : row*pitch+w*4]
		dst := img.Pix[row*img.Stride : row*img.Stride+w*4]
		copy(dst, src)
		if swizzle {
			for i := 0; i < len(dst); i += 4 {
				dst[i], dst[i+2] = dst[i+2], dst[i]
			}
		}
	}
	return img
}
