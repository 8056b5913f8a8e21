package teqxt

import (
	"errors"
	"testing"

	"github.com/chewxy/math32"
)

func TestLine(t *testing.T) {
	c := Line(Vec2{0, 0}, Vec2{2, 4})
	if c[1] != (Vec2{1, 2}) {
		t.Errorf("control point = %v, want midpoint", c[1])
	}
	if c[0] != (Vec2{0, 0}) || c[2] != (Vec2{2, 4}) {
		t.Errorf("end points = %v, %v", c[0], c[2])
	}
}

func TestSamplePattern(t *testing.T) {
	s := Samples()
	if len(s) != SampleCount || SampleCount != 6 {
		t.Fatalf("got %d samples", len(s))
	}

	perChannel := [3]int{}
	xs := map[float32]bool{}
	ys := map[float32]bool{}
	for i, sample := range s {
		if sample.Components[3] != 1 {
			t.Errorf("sample %d alpha = %v, want 1", i, sample.Components[3])
		}
		sum := float32(0)
		for c := range 3 {
			sum += sample.Components[c]
			if sample.Components[c] == 1 {
				perChannel[c]++
			}
		}
		if sum != 1 {
			t.Errorf("sample %d tags %v channels", i, sum)
		}
		x, y := sample.Offset[0], sample.Offset[1]
		if x < 0 || x >= 1 || y < 0 || y >= 1 {
			t.Errorf("sample %d offset %v outside the pixel", i, sample.Offset)
		}
		xs[x], ys[y] = true, true
	}
	if perChannel != [3]int{2, 2, 2} {
		t.Errorf("samples per channel = %v, want 2 each", perChannel)
	}
	if len(xs) != SampleCount || len(ys) != SampleCount {
		t.Errorf("samples share rows or columns: %d columns, %d rows", len(xs), len(ys))
	}
}

func TestFlatten(t *testing.T) {
	glyphs := []Glyph{
		{Offset: Vec2{1, 0}, Curves: []Curve{
			{{0, 0}, {0.5, 1}, {1, 0}},
			Line(Vec2{1, 0}, Vec2{0, 0}),
		}},
		{Offset: Vec2{2, 0}},
		{Offset: Vec2{3, 1}, Curves: []Curve{{{0, 0}, {0, 1}, {1, 1}}}},
	}
	p := DrawParams{Glyphs: glyphs}
	if n := p.InstanceCount(); n != 3 {
		t.Fatalf("InstanceCount = %d, want 3", n)
	}

	got := flatten(nil, glyphs)
	if len(got) != 3 {
		t.Fatalf("flatten produced %d instances", len(got))
	}
	if got[0].Offset != [2]float32{1, 0} || got[0].P1 != [2]float32{0.5, 1} {
		t.Errorf("instance 0 = %+v", got[0])
	}
	if got[2].Offset != [2]float32{3, 1} || got[2].P2 != [2]float32{1, 1} {
		t.Errorf("instance 2 = %+v", got[2])
	}

	// Reuses the destination slice.
	again := flatten(got[:0], glyphs[:1])
	if len(again) != 2 || &again[0] != &got[0] {
		t.Error("flatten did not append into dst")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		px      float32
		gamma   float32
		wantErr error
	}{
		{"ok", 16, 2.2, nil},
		{"zero scale", 0, 2.2, ErrInvalidScale},
		{"negative scale", -1, 2.2, ErrInvalidScale},
		{"inf scale", math32.Inf(1), 2.2, ErrInvalidScale},
		{"nan scale", math32.NaN(), 2.2, ErrInvalidScale},
		{"zero gamma", 16, 0, ErrInvalidGamma},
		{"nan gamma", 16, math32.NaN(), ErrInvalidGamma},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DrawParams{PxPerEm: tt.px, Gamma: tt.gamma}
			if err := p.validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSampleUniforms(t *testing.T) {
	p := DrawParams{
		OutputSize:  [2]uint32{200, 100},
		PxPerEm:     50,
		Translation: Vec2{0.25, -0.5},
	}
	u := sampleUniforms(&p)

	for i, s := range Samples() {
		if u[i].Scale != [2]float32{0.5, 1} {
			t.Errorf("sample %d scale = %v, want [0.5 1]", i, u[i].Scale)
		}
		want := [2]float32{0.25 + s.Offset[0]/50, -0.5 + s.Offset[1]/50}
		if math32.Abs(u[i].Translation[0]-want[0]) > 1e-6 || math32.Abs(u[i].Translation[1]-want[1]) > 1e-6 {
			t.Errorf("sample %d translation = %v, want %v", i, u[i].Translation, want)
		}
		if u[i].Components != s.Components {
			t.Errorf("sample %d components = %v", i, u[i].Components)
		}
	}
}

func TestOutputUniform(t *testing.T) {
	u := outputUniform(&DrawParams{Gamma: 1.8, SubpixelAA: true})
	if u.SampleCount != SampleCount || u.Gamma != 1.8 || u.SubpixelAA != 1 {
		t.Errorf("outputUniform = %+v", u)
	}
	u = outputUniform(&DrawParams{Gamma: 2.2})
	if u.SubpixelAA != 0 {
		t.Errorf("SubpixelAA = %d, want 0", u.SubpixelAA)
	}
}
