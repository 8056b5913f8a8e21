// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package outline converts sfnt (TrueType and OpenType) glyph outlines into
// the quadratic curves drawn by teqxt.
//
// Coordinates are in ems with the y axis pointing up, relative to the glyph
// origin on the baseline. Straight segments become degenerate quadratic
// curves. Fonts with cubic outlines (CFF) are rejected per glyph with
// ErrCubicSegment.
package outline

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/chewxy/math32"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/teqxt"
	"github.com/gogpu/teqxt/internal/cache"
)

// DefaultCacheSize is the number of glyphs a Font memoizes.
const DefaultCacheSize = 512

var (
	// ErrCubicSegment is returned for glyphs containing cubic segments.
	ErrCubicSegment = errors.New("outline: cubic segments are not supported")

	// ErrMissingGlyph is returned when the font has no glyph for a rune.
	ErrMissingGlyph = errors.New("outline: missing glyph")
)

// Outline is a converted glyph.
type Outline struct {
	Curves []teqxt.Curve
	// Advance is the horizontal advance in ems.
	Advance float32
	// Bounds is the curve bounding box in ems: min x, min y, max x, max y.
	// It is all zero for empty glyphs.
	Bounds [4]float32
}

// Font is a parsed font with a glyph cache. It is safe for concurrent use.
type Font struct {
	sfnt *sfnt.Font
	ppem fixed.Int26_6
	upem float32

	mu  sync.Mutex
	buf sfnt.Buffer

	glyphs *cache.LRU[sfnt.GlyphIndex, *Outline]
}

// Parse parses TrueType or OpenType font data.
func Parse(data []byte) (*Font, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("outline: parse font: %w", err)
	}
	return newFont(f), nil
}

// GoRegular returns the Go Regular font.
func GoRegular() (*Font, error) {
	return Parse(goregular.TTF)
}

func newFont(f *sfnt.Font) *Font {
	upem := f.UnitsPerEm()
	return &Font{
		sfnt: f,
		// Loading at ppem == units per em yields font units in 26.6.
		ppem:   fixed.I(int(upem)),
		upem:   float32(upem),
		glyphs: cache.NewLRU[sfnt.GlyphIndex, *Outline](DefaultCacheSize),
	}
}

// Glyph returns the outline of r positioned at the origin and its advance
// in ems.
func (f *Font) Glyph(r rune) (teqxt.Glyph, float32, error) {
	o, err := f.Outline(r)
	if err != nil {
		return teqxt.Glyph{}, 0, err
	}
	return teqxt.Glyph{Curves: o.Curves}, o.Advance, nil
}

// Outline returns the converted outline of r. The result is shared and must
// not be modified.
func (f *Font) Outline(r rune) (*Outline, error) {
	f.mu.Lock()
	gid, err := f.sfnt.GlyphIndex(&f.buf, r)
	f.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("outline: glyph index for %q: %w", r, err)
	}
	if gid == 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingGlyph, r)
	}
	return f.glyphs.GetOrCreate(gid, func() (*Outline, error) {
		return f.load(gid)
	})
}

// CacheStats reports the glyph cache statistics.
func (f *Font) CacheStats() cache.Stats { return f.glyphs.Stats() }

func (f *Font) load(gid sfnt.GlyphIndex) (*Outline, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	segments, err := f.sfnt.LoadGlyph(&f.buf, gid, f.ppem, nil)
	if err != nil {
		return nil, fmt.Errorf("outline: load glyph %d: %w", gid, err)
	}
	advance, err := f.sfnt.GlyphAdvance(&f.buf, gid, f.ppem, font.HintingNone)
	if err != nil {
		return nil, fmt.Errorf("outline: advance of glyph %d: %w", gid, err)
	}

	curves, err := f.convert(segments)
	if err != nil {
		return nil, fmt.Errorf("outline: glyph %d: %w", gid, err)
	}
	o := &Outline{
		Curves:  curves,
		Advance: float32(advance) / 64 / f.upem,
		Bounds:  bounds(curves),
	}
	teqxt.Logger().Debug("outline: glyph loaded",
		slog.Int("gid", int(gid)),
		slog.Int("curves", len(curves)),
	)
	return o, nil
}

// convert turns sfnt segments into closed quadratic contours.
func (f *Font) convert(segments sfnt.Segments) ([]teqxt.Curve, error) {
	curves := make([]teqxt.Curve, 0, len(segments))
	var start, pen teqxt.Vec2
	open := false

	closeContour := func() {
		if open && pen != start {
			curves = append(curves, teqxt.Line(pen, start))
		}
		open = false
	}

	for _, seg := range segments {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			closeContour()
			start = f.point(seg.Args[0])
			pen = start
			open = true
		case sfnt.SegmentOpLineTo:
			p := f.point(seg.Args[0])
			curves = append(curves, teqxt.Line(pen, p))
			pen = p
		case sfnt.SegmentOpQuadTo:
			p := f.point(seg.Args[1])
			curves = append(curves, teqxt.Curve{pen, f.point(seg.Args[0]), p})
			pen = p
		case sfnt.SegmentOpCubeTo:
			return nil, ErrCubicSegment
		}
	}
	closeContour()
	return curves, nil
}

// point converts a 26.6 font unit point to ems, flipping y to point up.
func (f *Font) point(p fixed.Point26_6) teqxt.Vec2 {
	return teqxt.Vec2{
		float32(p.X) / 64 / f.upem,
		-float32(p.Y) / 64 / f.upem,
	}
}

func bounds(curves []teqxt.Curve) [4]float32 {
	if len(curves) == 0 {
		return [4]float32{}
	}
	b := [4]float32{math32.Inf(1), math32.Inf(1), math32.Inf(-1), math32.Inf(-1)}
	for _, c := range curves {
		for _, p := range c {
			b[0] = math32.Min(b[0], p[0])
			b[1] = math32.Min(b[1], p[1])
			b[2] = math32.Max(b[2], p[0])
			b[3] = math32.Max(b[3], p[1])
		}
	}
	return b
}

// Layout places the glyphs of text on one line starting at origin, advancing
// the pen by each glyph's advance. It does no shaping or kerning. Runes
// without a glyph are skipped. The returned width is in ems.
func (f *Font) Layout(text string, origin teqxt.Vec2) ([]teqxt.Glyph, float32, error) {
	glyphs := make([]teqxt.Glyph, 0, len(text))
	pen := origin
	for _, r := range text {
		o, err := f.Outline(r)
		if errors.Is(err, ErrMissingGlyph) {
			continue
		}
		if err != nil {
			return nil, 0, err
		}
		if len(o.Curves) > 0 {
			glyphs = append(glyphs, teqxt.Glyph{Offset: pen, Curves: o.Curves})
		}
		pen[0] += o.Advance
	}
	return glyphs, pen[0] - origin[0], nil
}
