package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultSettingsKey is the Redis key holding the merged flat settings
const DefaultSettingsKey = "price_setter:settings"

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisSettingsCache shares the merged flat settings across processes
type RedisSettingsCache struct {
	client     *redis.Client
	ownsClient bool // true if we created the client and should close it
	key        string
	ttl        time.Duration
	logger     *zap.Logger
}

// RedisSettingsCacheOption is a functional option for configuring the cache
type RedisSettingsCacheOption func(*RedisSettingsCache)

// WithSettingsKey overrides the Redis key
func WithSettingsKey(key string) RedisSettingsCacheOption {
	return func(c *RedisSettingsCache) {
		if key != "" {
			c.key = key
		}
	}
}

// WithSettingsTTL sets the expiry of the cached entry
func WithSettingsTTL(ttl time.Duration) RedisSettingsCacheOption {
	return func(c *RedisSettingsCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCacheLogger sets the logger for the cache
func WithCacheLogger(logger *zap.Logger) RedisSettingsCacheOption {
	return func(c *RedisSettingsCache) {
		c.logger = logger
	}
}

// NewRedisSettingsCache connects to Redis and creates a settings cache
func NewRedisSettingsCache(cfg RedisConfig, opts ...RedisSettingsCacheOption) (*RedisSettingsCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	c := NewRedisSettingsCacheWithClient(client, opts...)
	c.ownsClient = true
	return c, nil
}

// NewRedisSettingsCacheWithClient creates a cache with an existing Redis client.
// The caller retains ownership of the client.
func NewRedisSettingsCacheWithClient(client *redis.Client, opts ...RedisSettingsCacheOption) *RedisSettingsCache {
	c := &RedisSettingsCache{
		client: client,
		key:    DefaultSettingsKey,
		ttl:    DefaultSettingsTTL,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached settings; ok is false on a miss
func (c *RedisSettingsCache) Get(ctx context.Context) (map[string]string, bool, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.logger.Debug("settings cache miss", zap.String("key", c.key))
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get settings from cache: %w", err)
	}

	var values map[string]string
	if err := json.Unmarshal(data, &values); err != nil {
		c.logger.Warn("dropping corrupted settings cache entry", zap.String("key", c.key), zap.Error(err))
		_ = c.client.Del(ctx, c.key)
		return nil, false, nil
	}
	return values, true, nil
}

// Set stores the settings with the configured TTL
func (c *RedisSettingsCache) Set(ctx context.Context, values map[string]string) error {
	if values == nil {
		values = map[string]string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := c.client.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set settings in cache: %w", err)
	}
	c.logger.Debug("cached pricing settings", zap.String("key", c.key), zap.Duration("ttl", c.ttl))
	return nil
}

// Invalidate removes the cached settings
func (c *RedisSettingsCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("failed to invalidate settings cache: %w", err)
	}
	return nil
}

// Close closes the client when the cache created it
func (c *RedisSettingsCache) Close() error {
	if c.ownsClient {
		return c.client.Close()
	}
	return nil
}
