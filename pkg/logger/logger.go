package logger

import (
	"context"

	"go.uber.org/zap"

	"bizkit/pkg/trace"
)

var Log *zap.Logger

// NewLogger builds the production logger. dev switches to the console encoder
// with debug level, used when NODE_ENV/APP_ENV is "development".
func NewLogger(dev ...bool) *zap.Logger {
	build := zap.NewProduction
	if len(dev) > 0 && dev[0] {
		build = zap.NewDevelopment
	}
	l, err := build()
	if err != nil {
		panic(err)
	}
	Log = l
	return l
}

// WithTrace 从 context 中提取 trace_id 并添加到 logger
func WithTrace(ctx context.Context, logger *zap.Logger) *zap.Logger {
	traceID := trace.FromContext(ctx)
	if traceID != "" {
		return logger.With(zap.String("trace_id", traceID))
	}
	return logger
}
