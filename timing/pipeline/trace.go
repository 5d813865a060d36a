package pipeline

import (
	"fmt"
	"io"
)

// TraceLogger emits one line per log call, prefixed with the cycle number
// and the stage tag, to a sink injected by the harness. A nil logger or nil
// writer discards everything; callers never own the sink's lifecycle.
type TraceLogger struct {
	w io.Writer
}

// NewTraceLogger creates a trace logger writing to w.
func NewTraceLogger(w io.Writer) *TraceLogger {
	return &TraceLogger{w: w}
}

// Enabled reports whether trace lines are being emitted.
func (t *TraceLogger) Enabled() bool {
	return t != nil && t.w != nil
}

// Logf writes one trace line for the given cycle and stage.
func (t *TraceLogger) Logf(cycle uint64, stage, format string, args ...any) {
	if !t.Enabled() {
		return
	}
	fmt.Fprintf(t.w, "Cycle %d [%s] %s\n", cycle, stage, fmt.Sprintf(format, args...))
}
