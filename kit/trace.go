package kit

import "context"

type contextKey string

// TraceIDKey is the context key under which the per-request trace ID lives.
const TraceIDKey contextKey = "kit_trace_id"

// WithTraceID returns a context carrying the trace ID.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// TraceID retrieves the trace ID from the context, or "" if unset.
func TraceID(ctx context.Context) string {
	v, _ := ctx.Value(TraceIDKey).(string)
	return v
}
