//go:build integration

package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/pricesetter/backend/internal/domain/pricing"
	"github.com/pricesetter/backend/internal/domain/shared"
	"github.com/pricesetter/backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgres_PriceRecordRepository(t *testing.T) {
	db := testutil.NewPostgres(t)
	repo := NewGormPriceRecordRepository(db)
	ctx := context.Background()

	rec := newTestRecord(testProductID, "12.5", baseTime)
	rec.ParentID = &testParentID
	rec.RetailMin = decimal.NewNullDecimal(decimal.RequireFromString("47.25"))
	rec.RetailMax = decimal.NewNullDecimal(decimal.RequireFromString("52.5"))
	require.NoError(t, repo.Save(ctx, rec))
	require.NoError(t, repo.Save(ctx, newTestRecord(testProductID, "13", baseTime.Add(time.Hour))))
	require.NoError(t, repo.Save(ctx, newTestRecord(otherProduct, "40", baseTime)))

	got, err := repo.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, got.BasePrice.Equal(decimal.RequireFromString("12.5")))
	require.NotNil(t, got.Retail())
	assert.True(t, got.Retail().Min.Equal(decimal.RequireFromString("47.25")))
	assert.Equal(t, pricing.StageCurrencyConversion, got.Log[0].Stage)

	latest, err := repo.FindLatestPerProduct(ctx, shared.Filter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.True(t, latest[0].BasePrice.Equal(decimal.NewFromInt(13)))

	count, err := repo.CountProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestPostgres_RetailRangeConstraint(t *testing.T) {
	db := testutil.NewPostgres(t)
	repo := NewGormPriceRecordRepository(db)

	rec := newTestRecord(testProductID, "10", baseTime)
	rec.RetailMin = decimal.NewNullDecimal(decimal.NewFromInt(60))
	rec.RetailMax = decimal.NewNullDecimal(decimal.NewFromInt(50))

	assert.Error(t, repo.Save(context.Background(), rec))
}

func TestPostgres_PricingOptionRepository(t *testing.T) {
	db := testutil.NewPostgres(t)
	repo := NewGormPricingOptionRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.SaveAll(ctx, map[string]string{pricing.OptionDollarRate: "41"}))
	require.NoError(t, repo.SaveAll(ctx, map[string]string{pricing.OptionDollarRate: "42"}))

	values, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{pricing.OptionDollarRate: "42"}, values)
}
