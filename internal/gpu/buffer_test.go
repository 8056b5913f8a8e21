//go:build !nogpu

package gpu

import (
	"bytes"
	"testing"

	"github.com/gogpu/gputypes"
	"honnef.co/go/safeish"
)

func TestCachedBufferGrowsOnly(t *testing.T) {
	g, rec := newTestGfx(t)
	b := NewCachedBuffer[CurveInstance](g, "curves", gputypes.BufferUsageVertex)
	defer b.Close()

	for _, n := range []int{12, 12, 5, 40} {
		buf, err := b.Get(n)
		if err != nil {
			t.Fatalf("Get(%d): %v", n, err)
		}
		buf.Release()
	}
	if b.Creates() != 2 {
		t.Errorf("Creates = %d, want 2", b.Creates())
	}
	if b.Capacity() != 40 {
		t.Errorf("Capacity = %d, want 40", b.Capacity())
	}

	sizes := make([]uint64, 0, len(rec.Buffers))
	for _, d := range rec.Buffers {
		sizes = append(sizes, d.Size)
		if d.Usage&gputypes.BufferUsageCopyDst == 0 || d.Usage&gputypes.BufferUsageVertex == 0 {
			t.Errorf("usage = %v, want vertex|copy dst", d.Usage)
		}
	}
	if len(sizes) != 2 || sizes[0] != 12*32 || sizes[1] != 40*32 {
		t.Errorf("buffer sizes = %v, want [384 1280]", sizes)
	}
	if rec.DestroyedBuffers != 1 {
		t.Errorf("destroyed buffers = %d, want 1", rec.DestroyedBuffers)
	}
}

func TestCachedBufferEmptyGetsOneRecord(t *testing.T) {
	g, rec := newTestGfx(t)
	b := NewCachedBuffer[OutputPassUniform](g, "output", gputypes.BufferUsageUniform)
	defer b.Close()

	buf, err := b.Get(0)
	if err != nil {
		t.Fatal(err)
	}
	defer buf.Release()
	if got := rec.Buffers[0].Size; got != 16 {
		t.Errorf("size = %d, want 16", got)
	}
}

func TestCachedBufferUploadsPacked(t *testing.T) {
	g, _ := newTestGfx(t)
	b := NewCachedBuffer[CurveInstance](g, "curves", gputypes.BufferUsageVertex)
	defer b.Close()

	records := []CurveInstance{
		{Offset: [2]float32{1, 2}, P0: [2]float32{3, 4}},
		{P2: [2]float32{5, 6}},
	}
	ups := b.uploads(records)
	if len(ups) != 1 {
		t.Fatalf("got %d uploads, want 1", len(ups))
	}
	if ups[0].offset != 0 || len(ups[0].data) != 64 {
		t.Errorf("upload = offset %d, %d bytes; want 0, 64", ups[0].offset, len(ups[0].data))
	}
	if !bytes.Equal(ups[0].data[32:], safeish.AsBytes(&records[1])) {
		t.Error("second record not at byte 32")
	}
}

func TestCachedBufferUploadsStrided(t *testing.T) {
	g, _ := newTestGfx(t)
	b := NewCachedBuffer[FirstPassUniform](g, "samples", gputypes.BufferUsageUniform)
	defer b.Close()

	records := make([]FirstPassUniform, 6)
	for i := range records {
		records[i].Components = [4]float32{float32(i), 0, 0, 1}
	}
	ups := b.uploads(records)
	if len(ups) != 6 {
		t.Fatalf("got %d uploads, want 6", len(ups))
	}
	for i, u := range ups {
		if u.offset != uint64(i)*256 {
			t.Errorf("upload %d at %d, want %d", i, u.offset, i*256)
		}
		if len(u.data) != 32 {
			t.Errorf("upload %d is %d bytes, want 32", i, len(u.data))
		}
	}

	buf, err := b.WithData(records)
	if err != nil {
		t.Fatal(err)
	}
	defer buf.Release()
	if b.Capacity() != 6 {
		t.Errorf("Capacity = %d, want 6", b.Capacity())
	}
}

func TestCachedBufferNoUploadsForNoRecords(t *testing.T) {
	g, _ := newTestGfx(t)
	b := NewCachedBuffer[CurveInstance](g, "curves", gputypes.BufferUsageVertex)
	defer b.Close()

	if ups := b.uploads(nil); len(ups) != 0 {
		t.Errorf("uploads(nil) = %v", ups)
	}
}

// tooSmall claims a stride below its size.
type tooSmall struct{ _ [4]float32 }

func (tooSmall) GPUSize() uint64                  { return 16 }
func (tooSmall) GPUStride(*gputypes.Limits) uint64 { return 8 }

func TestNewCachedBufferPanicsOnBadStride(t *testing.T) {
	g, _ := newTestGfx(t)
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	NewCachedBuffer[tooSmall](g, "bad", gputypes.BufferUsageUniform)
}
