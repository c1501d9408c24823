package telemetry

import (
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SpanHandle is an open span handed to the caller by TaskStarted or
// CrewExecutionStarted. The caller passes it back to the matching *Ended
// call, which closes it. The underlying span is ended at most once; a nil
// handle is accepted everywhere and ignored.
type SpanHandle struct {
	span  trace.Span
	once  sync.Once
	ended atomic.Bool
}

func newSpanHandle(span trace.Span) *SpanHandle {
	return &SpanHandle{span: span}
}

// SpanContext exposes the trace and span IDs for log correlation.
func (h *SpanHandle) SpanContext() trace.SpanContext {
	if h == nil {
		return trace.SpanContext{}
	}
	return h.span.SpanContext()
}

// Ended reports whether the handle has been closed.
func (h *SpanHandle) Ended() bool {
	return h != nil && h.ended.Load()
}

// end sets the status and ends the span unless that already happened.
// It reports whether this call did the ending.
func (h *SpanHandle) end(code codes.Code, description string) bool {
	if h == nil {
		return false
	}
	closed := false
	h.once.Do(func() {
		h.ended.Store(true)
		h.span.SetStatus(code, description)
		h.span.End()
		closed = true
	})
	return closed
}
