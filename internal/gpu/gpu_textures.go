//go:build !nogpu

package gpu

import (
	"log/slog"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/teqxt/internal/cache"
)

// Extent is the pixel size of a render target. It keys the texture caches.
type Extent struct {
	Width  uint32
	Height uint32
}

// TargetCache is a render target that is recreated whenever the requested
// extent changes.
type TargetCache = cache.Cached[Extent, Target]

// NewFirstPassTargets returns the cache for the coverage accumulation
// texture: SampleTextureFormat, rendered to by the coverage pass and read by
// the resolve pass.
func NewFirstPassTargets(g *Gfx) *TargetCache {
	return newTargetCache(g, "first_pass_texture", SampleTextureFormat,
		gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageTextureBinding)
}

// NewOutputTargets returns the cache for the resolved output texture in the
// Gfx target format. It can be sampled by the caller and copied for readback.
func NewOutputTargets(g *Gfx) *TargetCache {
	return newTargetCache(g, "output_texture", g.TargetFormat,
		gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageTextureBinding|gputypes.TextureUsageCopySrc)
}

func newTargetCache(g *Gfx, name string, format gputypes.TextureFormat, usage gputypes.TextureUsage) *TargetCache {
	create := func(e Extent) (Target, error) {
		slogger().Debug("create render target",
			slog.String("name", name),
			slog.Uint64("width", uint64(e.Width)),
			slog.Uint64("height", uint64(e.Height)),
		)
		return g.CreateTarget(name, e.Width, e.Height, format, usage)
	}
	destroy := func(t Target) { t.Destroy(g.Device) }
	return cache.NewCached(create, destroy)
}
