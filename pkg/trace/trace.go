package trace

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey struct{}

// HeaderName is the trace header echoed on every response.
const HeaderName = "X-Trace-ID"

// RequestIDHeader is accepted as a fallback when clients send no X-Trace-ID.
const RequestIDHeader = "X-Request-ID"

// GenerateTraceID 生成一个新的 trace ID
func GenerateTraceID() string {
	return uuid.NewString()
}

// FromContext 从 context 中获取 trace_id
func FromContext(ctx context.Context) string {
	if traceID, ok := ctx.Value(ctxKey{}).(string); ok {
		return traceID
	}
	return ""
}

// WithContext 将 trace_id 添加到 context 中
func WithContext(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, traceID)
}

// FromHeaders picks the first non-empty header value, or generates a new id.
func FromHeaders(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return GenerateTraceID()
}
