package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/pricesetter/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// SettingsCache is the contract shared by the in-memory and Redis caches
type SettingsCache interface {
	Get(ctx context.Context) (map[string]string, bool, error)
	Set(ctx context.Context, values map[string]string) error
	Invalidate(ctx context.Context) error
}

// SettingsCacheFactory creates settings caches based on configuration
type SettingsCacheFactory struct {
	redisConfig           config.RedisConfig
	ttl                   time.Duration
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// SettingsCacheFactoryOption is a functional option for configuring the factory
type SettingsCacheFactoryOption func(*SettingsCacheFactory)

// WithLogger sets the logger for the factory and the caches it builds
func WithLogger(logger *zap.Logger) SettingsCacheFactoryOption {
	return func(f *SettingsCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory cache
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) SettingsCacheFactoryOption {
	return func(f *SettingsCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewSettingsCacheFactory creates a new factory
func NewSettingsCacheFactory(cfg config.RedisConfig, ttl time.Duration, opts ...SettingsCacheFactoryOption) *SettingsCacheFactory {
	f := &SettingsCacheFactory{
		redisConfig:           cfg,
		ttl:                   ttl,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateRedisCache creates a Redis-backed settings cache
func (f *SettingsCacheFactory) CreateRedisCache() (*RedisSettingsCache, error) {
	c, err := NewRedisSettingsCache(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}, WithSettingsTTL(f.ttl), WithCacheLogger(f.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis settings cache: %w", err)
	}
	return c, nil
}

// CreateInMemoryCache creates a process-local settings cache
func (f *SettingsCacheFactory) CreateInMemoryCache() *InMemorySettingsCache {
	return NewInMemorySettingsCache(f.ttl)
}

// CreateCache returns a Redis cache when Redis is configured and reachable.
// Otherwise it falls back to the in-memory cache unless fallback is disabled.
// The returned close function releases the Redis client and is never nil.
func (f *SettingsCacheFactory) CreateCache() (SettingsCache, func() error, error) {
	noop := func() error { return nil }
	if !f.redisConfig.Enabled() {
		f.logger.Debug("redis not configured, using in-memory settings cache")
		return f.CreateInMemoryCache(), noop, nil
	}

	c, err := f.CreateRedisCache()
	if err == nil {
		f.logger.Info("using Redis settings cache", zap.String("addr", f.redisConfig.Addr()))
		return c, c.Close, nil
	}

	if !f.allowInMemoryFallback {
		return nil, noop, fmt.Errorf("redis required for settings cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory settings cache", zap.Error(err))
	return f.CreateInMemoryCache(), noop, nil
}
