package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemorySettingsCache_GetSet(t *testing.T) {
	c := NewInMemorySettingsCache(time.Minute)
	ctx := context.Background()

	values, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, values)

	require.NoError(t, c.Set(ctx, map[string]string{"dollar_rate": "41.5"}))

	values, ok, err = c.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, map[string]string{"dollar_rate": "41.5"}, values)

	assert.Equal(t, CacheStats{Hits: 1, Misses: 1}, c.Stats())
}

func TestInMemorySettingsCache_ReturnsCopies(t *testing.T) {
	c := NewInMemorySettingsCache(time.Minute)
	ctx := context.Background()

	source := map[string]string{"shipping_cost": "70"}
	require.NoError(t, c.Set(ctx, source))
	source["shipping_cost"] = "0"

	values, _, err := c.Get(ctx)
	require.NoError(t, err)
	values["shipping_cost"] = "1"

	again, _, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "70", again["shipping_cost"])
}

func TestInMemorySettingsCache_EmptyMapIsAHit(t *testing.T) {
	c := NewInMemorySettingsCache(time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, nil))

	values, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, values)
}

func TestInMemorySettingsCache_Expiry(t *testing.T) {
	c := NewInMemorySettingsCache(time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, map[string]string{"num_of_dec": "2"}))

	now = now.Add(59 * time.Second)
	_, ok, _ := c.Get(ctx)
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok, _ = c.Get(ctx)
	assert.False(t, ok)
}

func TestInMemorySettingsCache_Invalidate(t *testing.T) {
	c := NewInMemorySettingsCache(0)
	ctx := context.Background()

	assert.Equal(t, DefaultSettingsTTL, c.ttl)

	require.NoError(t, c.Set(ctx, map[string]string{"dollar_rate": "40"}))
	require.NoError(t, c.Invalidate(ctx))

	_, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
