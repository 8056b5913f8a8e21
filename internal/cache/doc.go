// Package cache provides the small caching primitives used by the renderer.
//
// # Cached[K, V]
//
// A single-slot cache for GPU resources sized by a key, such as a texture
// keyed by its extent or a buffer keyed by its element count. A request with
// a different key replaces the slot. GetAtLeast lets grow-only resources
// reuse a larger allocation.
//
//	textures := cache.NewCached(createTexture, destroyTexture)
//	tex, err := textures.Get(extent)
//	defer tex.Release()
//
// # Shared[V]
//
// The reference-counted handle returned by Cached. A value replaced in the
// cache stays alive until every frame still using it has released it.
//
// # LRU[K, V]
//
// A bounded least-recently-used map, used to memoize glyph outlines.
//
// # Thread Safety
//
// All types are safe for concurrent use and must not be copied.
package cache
