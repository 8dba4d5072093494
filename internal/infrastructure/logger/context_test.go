package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithContext(t *testing.T) {
	l := zap.NewExample()
	ctx := WithContext(context.Background(), l)

	assert.Same(t, l, FromContext(ctx))
}

func TestFromContext_Fallbacks(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
	}{
		{"missing", context.Background()},
		{"wrong type", context.WithValue(context.Background(), LoggerKey, "not a logger")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := FromContext(tt.ctx)
			require.NotNil(t, l)
			assert.NotPanics(t, func() { l.Info("dropped") })
		})
	}
}

func TestWithRunID(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)

	ctx, enriched := WithRunID(context.Background(), zap.New(core), "run-1")
	enriched.Info("hello")
	FromContext(ctx).Info("again")

	assert.Equal(t, "run-1", GetRunID(ctx))
	logs := recorded.All()
	require.Len(t, logs, 2)
	for _, entry := range logs {
		assert.Equal(t, "run-1", entry.ContextMap()["run_id"])
	}
}

func TestGetRunID_NotFound(t *testing.T) {
	assert.Empty(t, GetRunID(context.Background()))
}

func TestWithTraceContext(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	WithTraceContext(context.Background(), base).Info("no span")

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()
	WithTraceContext(ctx, base).Info("with span")

	logs := recorded.All()
	require.Len(t, logs, 2)
	assert.NotContains(t, logs[0].ContextMap(), "trace_id")
	assert.Equal(t, span.SpanContext().TraceID().String(), logs[1].ContextMap()["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), logs[1].ContextMap()["span_id"])
}
