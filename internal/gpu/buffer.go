//go:build !nogpu

package gpu

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"honnef.co/go/safeish"

	"github.com/gogpu/teqxt/internal/cache"
)

// CachedBuffer is a GPU buffer holding an array of T records at
// T's GPU stride. The buffer only grows; its contents are rewritten in
// full by every WithData call.
type CachedBuffer[T Struct] struct {
	gfx    *Gfx
	name   string
	usage  gputypes.BufferUsage
	stride uint64
	cached *cache.Cached[uint64, hal.Buffer]
}

// NewCachedBuffer returns an empty buffer cache. CopyDst is added to usage.
//
// It panics if T reports a stride smaller than its size: such a type can
// never be laid out correctly.
func NewCachedBuffer[T Struct](g *Gfx, name string, usage gputypes.BufferUsage) *CachedBuffer[T] {
	var zero T
	size, stride := zero.GPUSize(), zero.GPUStride(&g.Limits)
	if stride < size || size < sizeOf[T]() {
		panic(fmt.Sprintf("gpu: %T has GPU size %d and stride %d for a %d byte value", zero, size, stride, sizeOf[T]()))
	}

	b := &CachedBuffer[T]{
		gfx:    g,
		name:   name,
		usage:  usage | gputypes.BufferUsageCopyDst,
		stride: stride,
	}
	b.cached = cache.NewCached(b.create, func(buf hal.Buffer) { g.Device.DestroyBuffer(buf) })
	return b
}

func (b *CachedBuffer[T]) create(n uint64) (hal.Buffer, error) {
	size := b.stride * max(n, 1)
	slogger().Debug("create buffer",
		slog.String("name", b.name),
		slog.Uint64("records", n),
		slog.Uint64("bytes", size),
	)
	buf, err := b.gfx.Device.CreateBuffer(&hal.BufferDescriptor{
		Label: b.gfx.label(b.name),
		Size:  size,
		Usage: b.usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", b.name, err)
	}
	return buf, nil
}

// Stride returns the byte distance between records.
func (b *CachedBuffer[T]) Stride() uint64 { return b.stride }

// Get returns a buffer with room for at least n records. The caller owns
// one reference to the result.
func (b *CachedBuffer[T]) Get(n int) (*cache.Shared[hal.Buffer], error) {
	return cache.GetAtLeast(b.cached, uint64(n))
}

// Capacity returns how many records the current buffer can hold.
func (b *CachedBuffer[T]) Capacity() int {
	n, _ := b.cached.Key()
	return int(n)
}

// Creates returns how many buffers have been allocated so far.
func (b *CachedBuffer[T]) Creates() int { return b.cached.Creates() }

// WithData makes room for records and uploads all of them.
func (b *CachedBuffer[T]) WithData(records []T) (*cache.Shared[hal.Buffer], error) {
	buf, err := b.Get(len(records))
	if err != nil {
		return nil, err
	}
	b.write(buf.Value(), records)
	return buf, nil
}

// upload is one contiguous write into the buffer.
type upload struct {
	offset uint64
	data   []byte
}

// uploads splits records into writes at stride boundaries. Tightly packed
// records are written in one piece.
func (b *CachedBuffer[T]) uploads(records []T) []upload {
	if len(records) == 0 {
		return nil
	}
	if b.stride == sizeOf[T]() {
		return []upload{{data: safeish.SliceCast[[]byte](records)}}
	}
	out := make([]upload, len(records))
	for i := range records {
		out[i] = upload{offset: uint64(i) * b.stride, data: safeish.AsBytes(&records[i])}
	}
	return out
}

func (b *CachedBuffer[T]) write(buf hal.Buffer, records []T) {
	for _, u := range b.uploads(records) {
		b.gfx.Queue.WriteBuffer(buf, u.offset, u.data)
	}
}

// Close drops the cache's reference to the buffer.
func (b *CachedBuffer[T]) Close() { b.cached.Close() }
