// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package teqxt

import (
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/teqxt/internal/gpu"
)

var logger atomic.Pointer[slog.Logger]

func init() {
	logger.Store(slog.New(slog.DiscardHandler))
}

// SetLogger routes renderer diagnostics to l, including those of the
// internal GPU layer. A nil logger silences them again, which is also the
// state before the first call. SetLogger may be called at any time from any
// goroutine.
//
// Draw logs per-frame statistics and texture or buffer reallocations at
// [slog.LevelDebug]. Pipeline construction is logged at [slog.LevelInfo].
// Fence waits that time out are logged at [slog.LevelWarn].
//
//	teqxt.SetLogger(slog.New(slog.NewTextHandler(os.Stderr,
//		&slog.HandlerOptions{Level: slog.LevelDebug})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	logger.Store(l)
	gpu.SetLogger(l)
}

// Logger returns the logger installed by SetLogger. The outline package
// logs through it.
func Logger() *slog.Logger { return logger.Load() }

func slogger() *slog.Logger { return logger.Load() }
