package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"bizkit/pkg/trace"
)

func TestWithTrace_AddsTraceID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ctx := trace.WithContext(context.Background(), "abc123")
	WithTrace(ctx, base).Info("hello")
	WithTrace(context.Background(), base).Info("plain")

	entries := logs.All()
	assert.Len(t, entries, 2)
	assert.Equal(t, "abc123", entries[0].ContextMap()["trace_id"])
	_, ok := entries[1].ContextMap()["trace_id"]
	assert.False(t, ok)
}

func TestNewLogger_SetsGlobal(t *testing.T) {
	l := NewLogger(true)
	assert.Same(t, l, Log)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
}
