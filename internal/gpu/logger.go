//go:build !nogpu

package gpu

import (
	"log/slog"
	"sync/atomic"
)

var logger atomic.Pointer[slog.Logger]

func init() {
	logger.Store(slog.New(slog.DiscardHandler))
}

func slogger() *slog.Logger { return logger.Load() }

// SetLogger installs l for this package, tagging every record with
// component=teqxt/gpu. A nil logger discards output.
func SetLogger(l *slog.Logger) {
	if l == nil {
		logger.Store(slog.New(slog.DiscardHandler))
		return
	}
	logger.Store(l.With(slog.String("component", "teqxt/gpu")))
}
