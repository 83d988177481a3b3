package otel

import (
	"os"
	"sync/atomic"
)

// traceEnabled is set once at package init from LESSONVAULT_TRACE.
var traceEnabled atomic.Bool

func init() {
	traceEnabled.Store(os.Getenv("LESSONVAULT_TRACE") != "")
}

// TraceEnabled reports whether LESSONVAULT_TRACE is set. When true, the
// coordinator emits per-category events in addition to per-fetch ones.
func TraceEnabled() bool {
	return traceEnabled.Load()
}

// setTraceEnabled overrides the flag for tests.
func setTraceEnabled(v bool) {
	traceEnabled.Store(v)
}
