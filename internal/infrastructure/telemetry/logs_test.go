package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerProvider_Disabled(t *testing.T) {
	lp, err := NewLoggerProvider(t.Context(), LogsConfig{Enabled: false}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, lp.IsEnabled())
	assert.NoError(t, lp.ForceFlush(t.Context()))
	assert.NoError(t, lp.Shutdown(t.Context()))

	base := zap.NewNop()
	assert.Same(t, base, lp.Bridge(base))
}

func TestLoggerProvider_BridgeTeesToBase(t *testing.T) {
	lp := &LoggerProvider{
		provider: sdklog.NewLoggerProvider(),
		logger:   zap.NewNop(),
		config:   LogsConfig{ServiceName: "price-setter", Level: zapcore.WarnLevel},
	}
	t.Cleanup(func() { _ = lp.Shutdown(t.Context()) })

	core, logs := observer.New(zapcore.DebugLevel)
	bridged := lp.Bridge(zap.New(core))
	bridged.Info("price applied", zap.String("product_id", "p1"))

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "price applied", logs.All()[0].Message)
}

func TestLevelFilterCore(t *testing.T) {
	inner, _ := observer.New(zapcore.DebugLevel)
	c := &levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel}

	assert.False(t, c.Enabled(zapcore.InfoLevel))
	assert.True(t, c.Enabled(zapcore.WarnLevel))
	assert.True(t, c.Enabled(zapcore.ErrorLevel))

	withField := c.With([]zapcore.Field{zap.String("k", "v")})
	assert.False(t, withField.Enabled(zapcore.DebugLevel))
}
