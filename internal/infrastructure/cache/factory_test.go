package cache

import (
	"testing"
	"time"

	"github.com/pricesetter/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// unreachableRedis points at a port nothing listens on
var unreachableRedis = config.RedisConfig{Host: "127.0.0.1", Port: 1}

func TestSettingsCacheFactory_WithoutRedis(t *testing.T) {
	f := NewSettingsCacheFactory(config.RedisConfig{}, time.Minute)

	c, closeFn, err := f.CreateCache()
	require.NoError(t, err)
	require.NotNil(t, closeFn)
	assert.IsType(t, &InMemorySettingsCache{}, c)
	assert.NoError(t, closeFn())
}

func TestSettingsCacheFactory_FallsBackWhenRedisIsDown(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	f := NewSettingsCacheFactory(unreachableRedis, time.Minute, WithLogger(zap.New(core)))

	c, closeFn, err := f.CreateCache()
	require.NoError(t, err)
	assert.IsType(t, &InMemorySettingsCache{}, c)
	assert.NoError(t, closeFn())
	assert.Equal(t, 1, logs.FilterMessageSnippet("falling back").Len())
}

func TestSettingsCacheFactory_FallbackDisabled(t *testing.T) {
	f := NewSettingsCacheFactory(unreachableRedis, time.Minute, WithInMemoryFallback(false))

	c, closeFn, err := f.CreateCache()
	require.Error(t, err)
	assert.Nil(t, c)
	assert.NotNil(t, closeFn)
	assert.Contains(t, err.Error(), "redis required")
}
