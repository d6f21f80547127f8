package api

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var currentLogger atomic.Pointer[zap.Logger]

// Logger returns the logger used for operational events such as per-call
// timing. Diagnostics about the program itself are returned in the
// transform result instead. It uses a no-op logger by default.
func Logger() *zap.Logger {
	if l := currentLogger.Load(); l != nil {
		return l
	}
	return zap.NewNop()
}

// SetLogger replaces the logger returned by "Logger". Passing nil restores
// the no-op logger. Transforms that are already running may still log to the
// previous logger, so call this before starting any transforms to capture
// all of their events.
func SetLogger(l *zap.Logger) {
	currentLogger.Store(l)
}
