package pricing

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/pricesetter/backend/internal/domain/pricing"
	"github.com/pricesetter/backend/internal/domain/shared"
	"github.com/pricesetter/backend/internal/domain/shared/valueobject"
	"github.com/pricesetter/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func testSettings() pricing.Settings {
	s := pricing.DefaultSettings()
	s.DollarRate = decimal.NewFromInt(10)
	s.CustomsDuties = decimal.RequireFromString("1.1")
	s.RetailPriceAttribute = "pa_retail"
	return s
}

func ptr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

type pricingFixture struct {
	svc       *PricingService
	repo      *MockPriceRecordRepository
	catalog   *MockProductCatalog
	writer    *recordingWriter
	publisher *capturingPublisher
}

func newPricingFixture() *pricingFixture {
	f := &pricingFixture{
		repo:      new(MockPriceRecordRepository),
		catalog:   new(MockProductCatalog),
		writer:    &recordingWriter{},
		publisher: &capturingPublisher{},
	}
	f.svc = NewPricingService(staticSettings{settings: testSettings()}, f.repo, f.catalog, f.writer, f.publisher, zap.NewNop())
	return f
}

func TestPricingService_DryRun(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the full log and writes nothing", func(t *testing.T) {
		f := newPricingFixture()
		resp, err := f.svc.DryRun(ctx, CalculateRequest{
			BasePrice: "100",
			Product:   &ProductInput{Weight: ptr("2"), WeightUnit: "kg"},
		})
		require.NoError(t, err)

		assert.True(t, resp.DryRun)
		assert.Equal(t, "1488", resp.WholesalePrice.String())
		assert.Nil(t, resp.SalePrice)
		assert.Equal(t, "2827.2", resp.RetailPrice)
		assert.Len(t, resp.Stages, len(pricing.Stages()))
		assert.Contains(t, resp.Log, "shipping: 1100 -> 1240")
		assert.Nil(t, resp.RecordID)

		assert.Empty(t, f.writer.updates)
		f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("accepts a decimal comma", func(t *testing.T) {
		f := newPricingFixture()
		resp, err := f.svc.DryRun(ctx, CalculateRequest{BasePrice: "12,5"})
		require.NoError(t, err)
		assert.Equal(t, "12.5", resp.BasePrice.String())
	})

	t.Run("loads the product from the catalog", func(t *testing.T) {
		f := newPricingFixture()
		productID := uuid.New()
		f.catalog.On("FindProduct", mock.Anything, productID).Return(pricing.Snapshot{
			ProductWeight: valueobject.MustNewWeight(decimal.NewFromInt(2000), valueobject.WeightUnitG),
		}, nil)

		resp, err := f.svc.DryRun(ctx, CalculateRequest{ProductID: productID, BasePrice: "100"})
		require.NoError(t, err)
		assert.Equal(t, "1488", resp.WholesalePrice.String())
		f.catalog.AssertExpectations(t)
	})

	invalid := []struct {
		name      string
		basePrice string
	}{
		{name: "zero", basePrice: "0"},
		{name: "negative", basePrice: "-3"},
		{name: "not a number", basePrice: "abc"},
		{name: "missing", basePrice: ""},
		{name: "blank", basePrice: "   "},
	}
	for _, tt := range invalid {
		t.Run("invalid base price "+tt.name, func(t *testing.T) {
			f := newPricingFixture()
			_, err := f.svc.DryRun(ctx, CalculateRequest{BasePrice: tt.basePrice})
			assert.ErrorIs(t, err, pricing.ErrInvalidInputPrice)
		})
	}

	t.Run("missing base price is an invalid input price", func(t *testing.T) {
		f := newPricingFixture()
		_, err := f.svc.DryRun(ctx, CalculateRequest{})
		require.Error(t, err)
		assert.ErrorIs(t, err, pricing.ErrInvalidInputPrice)
		assert.NotErrorIs(t, err, shared.ErrInvalidInput)
		f.catalog.AssertNotCalled(t, "FindProduct", mock.Anything, mock.Anything)
	})

	t.Run("missing base price counts as invalid input", func(t *testing.T) {
		f := newPricingFixture()
		reader := sdkmetric.NewManualReader()
		meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")
		metrics, err := telemetry.NewPricingMetrics(meter, zap.NewNop())
		require.NoError(t, err)
		f.svc.SetPricingMetrics(metrics)

		_, err = f.svc.DryRun(ctx, CalculateRequest{BasePrice: ""})
		require.ErrorIs(t, err, pricing.ErrInvalidInputPrice)

		var rm metricdata.ResourceMetrics
		require.NoError(t, reader.Collect(ctx, &rm))
		want := attribute.NewSet(
			telemetry.AttrMode.String(telemetry.ModeDryRun),
			telemetry.AttrOutcome.String(telemetry.OutcomeInvalidInput),
		)
		var found bool
		for _, sm := range rm.ScopeMetrics {
			for _, m := range sm.Metrics {
				sum, ok := m.Data.(metricdata.Sum[int64])
				if m.Name != "waps_price_calculations_total" || !ok {
					continue
				}
				for _, dp := range sum.DataPoints {
					if dp.Attributes.Equivalent() == want.Equivalent() {
						found = true
						assert.Equal(t, int64(1), dp.Value)
					}
				}
			}
		}
		assert.True(t, found, "invalid_input outcome not recorded")
	})

	t.Run("unknown weight unit fails validation", func(t *testing.T) {
		f := newPricingFixture()
		_, err := f.svc.DryRun(ctx, CalculateRequest{BasePrice: "1", Product: &ProductInput{Weight: ptr("1"), WeightUnit: "stone"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "weight_unit")
	})

	t.Run("settings failure is returned", func(t *testing.T) {
		f := newPricingFixture()
		f.svc.settings = staticSettings{err: errors.New("no settings")}
		_, err := f.svc.DryRun(ctx, CalculateRequest{BasePrice: "1"})
		assert.EqualError(t, err, "no settings")
	})
}

func TestPricingService_Apply(t *testing.T) {
	ctx := context.Background()

	t.Run("writes prices and saves a record", func(t *testing.T) {
		f := newPricingFixture()
		productID := uuid.New()
		f.repo.On("Save", mock.Anything, mock.AnythingOfType("*pricing.PriceRecord")).Return(nil)

		resp, err := f.svc.Apply(ctx, CalculateRequest{
			ProductID: productID,
			BasePrice: "100",
			Product: &ProductInput{
				Weight:       ptr("2"),
				RegularPrice: ptr("100"),
				SalePrice:    ptr("80"),
			},
		})
		require.NoError(t, err)
		assert.False(t, resp.DryRun)
		require.NotNil(t, resp.RecordID)
		assert.Equal(t, "1190.4", resp.SalePrice.String())
		assert.Equal(t, "1190.4", resp.ActivePrice.String())

		require.Len(t, f.writer.updates, 1)
		update := f.writer.updates[0]
		assert.Equal(t, productID, update.ProductID)
		assert.Equal(t, "1488", update.RegularPrice.String())
		assert.Equal(t, "1190.4", update.ActivePrice.String())
		assert.Equal(t, productID, update.RetailTarget)
		assert.Equal(t, "pa_retail", update.RetailAttribute)

		saved := f.repo.Calls[0].Arguments.Get(1).(*pricing.PriceRecord)
		assert.Equal(t, productID, saved.ProductID)
		assert.Equal(t, "100", saved.BasePrice.String())
		assert.Empty(t, saved.GetDomainEvents(), "events are cleared after publishing")

		require.Equal(t, 1, f.publisher.count())
		assert.Equal(t, pricing.EventTypePriceApplied, f.publisher.events[0].EventType())
	})

	t.Run("variant retail goes to the parent", func(t *testing.T) {
		f := newPricingFixture()
		productID, parentID := uuid.New(), uuid.New()
		f.repo.On("Save", mock.Anything, mock.Anything).Return(nil)

		_, err := f.svc.Apply(ctx, CalculateRequest{
			ProductID: productID,
			BasePrice: "15",
			Product: &ProductInput{
				ParentID:      &parentID,
				VariantPrices: []decimal.Decimal{decimal.NewFromInt(90), decimal.NewFromInt(400)},
			},
		})
		require.NoError(t, err)
		require.Len(t, f.writer.updates, 1)
		assert.Equal(t, parentID, f.writer.updates[0].RetailTarget)
	})

	t.Run("requires a product id", func(t *testing.T) {
		f := newPricingFixture()
		_, err := f.svc.Apply(ctx, CalculateRequest{BasePrice: "100"})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("invalid base price writes nothing", func(t *testing.T) {
		f := newPricingFixture()
		_, err := f.svc.Apply(ctx, CalculateRequest{ProductID: uuid.New(), BasePrice: "0"})
		assert.ErrorIs(t, err, pricing.ErrInvalidInputPrice)
		assert.Empty(t, f.writer.updates)
		f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("writer failure skips the record", func(t *testing.T) {
		f := newPricingFixture()
		productID := uuid.New()
		f.writer.failFor = map[uuid.UUID]error{productID: errors.New("shop offline")}
		f.catalog.On("FindProduct", mock.Anything, productID).Return(pricing.Snapshot{}, nil)

		_, err := f.svc.Apply(ctx, CalculateRequest{ProductID: productID, BasePrice: "100"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "shop offline")
		f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("record failure is returned", func(t *testing.T) {
		f := newPricingFixture()
		f.repo.On("Save", mock.Anything, mock.Anything).Return(errors.New("db down"))
		f.catalog.On("FindProduct", mock.Anything, mock.Anything).Return(pricing.Snapshot{}, nil)

		_, err := f.svc.Apply(ctx, CalculateRequest{ProductID: uuid.New(), BasePrice: "100"})
		require.Error(t, err)
		assert.Equal(t, 0, f.publisher.count())
	})

	t.Run("unknown catalog product is priced without product data", func(t *testing.T) {
		f := newPricingFixture()
		productID := uuid.New()
		f.catalog.On("FindProduct", mock.Anything, productID).Return(nil, shared.ErrNotFound)
		f.repo.On("Save", mock.Anything, mock.Anything).Return(nil)

		resp, err := f.svc.Apply(ctx, CalculateRequest{ProductID: productID, BasePrice: "100"})
		require.NoError(t, err)
		assert.Equal(t, "1375", resp.WholesalePrice.String())
		assert.Nil(t, resp.SalePrice)
		for _, st := range resp.Stages {
			switch st.Stage {
			case pricing.StageShipping:
				assert.Equal(t, pricing.SkipNoWeight, st.Reason)
			case pricing.StageSalePrice:
				assert.Equal(t, pricing.SkipNoSale, st.Reason)
			}
		}
		require.Len(t, f.writer.updates, 1)
		f.catalog.AssertExpectations(t)
	})

	t.Run("catalog failure is returned", func(t *testing.T) {
		f := newPricingFixture()
		productID := uuid.New()
		f.catalog.On("FindProduct", mock.Anything, productID).Return(nil, errors.New("catalog down"))

		_, err := f.svc.Apply(ctx, CalculateRequest{ProductID: productID, BasePrice: "100"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "catalog down")
		assert.Empty(t, f.writer.updates)
	})

	t.Run("records metrics", func(t *testing.T) {
		f := newPricingFixture()
		metrics, err := telemetry.NewPricingMetrics(noop.NewMeterProvider().Meter("test"), zap.NewNop())
		require.NoError(t, err)
		f.svc.SetPricingMetrics(metrics)
		f.repo.On("Save", mock.Anything, mock.Anything).Return(nil)
		f.catalog.On("FindProduct", mock.Anything, mock.Anything).Return(pricing.Snapshot{}, nil)

		_, err = f.svc.Apply(ctx, CalculateRequest{ProductID: uuid.New(), BasePrice: "100"})
		require.NoError(t, err)
	})
}

func TestPricingService_RecalculateAll(t *testing.T) {
	ctx := context.Background()

	newRecord := func(productID uuid.UUID, base string) pricing.PriceRecord {
		settings := testSettings()
		result, err := pricing.NewPipeline(settings).Run(decimal.RequireFromString(base), nil)
		require.NoError(t, err)
		record, err := pricing.NewPriceRecord(productID, decimal.RequireFromString(base), nil, settings, result)
		require.NoError(t, err)
		return *record
	}

	t.Run("re-applies every stored base price", func(t *testing.T) {
		f := newPricingFixture()
		f.svc.SetBatchConcurrency(2)
		ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
		records := make([]pricing.PriceRecord, 0, len(ids))
		for _, id := range ids {
			records = append(records, newRecord(id, "100"))
			f.catalog.On("FindProduct", mock.Anything, id).Return(pricing.Snapshot{}, nil)
		}
		f.repo.On("FindLatestPerProduct", mock.Anything, mock.Anything).Return(records, nil)
		f.repo.On("Save", mock.Anything, mock.Anything).Return(nil)

		resp, err := f.svc.RecalculateAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, resp.Total)
		assert.Equal(t, 3, resp.Succeeded)
		assert.Equal(t, 0, resp.Failed)
		assert.Len(t, f.writer.updates, 3)
		for _, u := range f.writer.updates {
			assert.Equal(t, "100", u.BasePrice.String())
		}
	})

	t.Run("collects failures without stopping", func(t *testing.T) {
		f := newPricingFixture()
		good, missing, broken := uuid.New(), uuid.New(), uuid.New()
		f.repo.On("FindLatestPerProduct", mock.Anything, mock.Anything).Return([]pricing.PriceRecord{
			newRecord(good, "50"), newRecord(missing, "60"), newRecord(broken, "70"),
		}, nil)
		f.repo.On("Save", mock.Anything, mock.Anything).Return(nil)
		f.catalog.On("FindProduct", mock.Anything, good).Return(pricing.Snapshot{}, nil)
		f.catalog.On("FindProduct", mock.Anything, missing).Return(nil, shared.ErrNotFound)
		f.catalog.On("FindProduct", mock.Anything, broken).Return(pricing.Snapshot{}, nil)
		f.writer.failFor = map[uuid.UUID]error{broken: fmt.Errorf("locked")}

		resp, err := f.svc.RecalculateAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, resp.Succeeded)
		assert.Equal(t, 2, resp.Failed)
		failed := map[uuid.UUID]bool{}
		for _, fail := range resp.Failures {
			failed[fail.ProductID] = true
		}
		assert.True(t, failed[missing])
		assert.True(t, failed[broken])
	})

	t.Run("pages through the records", func(t *testing.T) {
		f := newPricingFixture()
		first := make([]pricing.PriceRecord, recalculatePageSize)
		for i := range first {
			first[i] = newRecord(uuid.New(), "10")
		}
		f.repo.On("FindLatestPerProduct", mock.Anything, mock.MatchedBy(func(fl shared.Filter) bool { return fl.Page == 1 })).Return(first, nil)
		f.repo.On("FindLatestPerProduct", mock.Anything, mock.MatchedBy(func(fl shared.Filter) bool { return fl.Page == 2 })).Return([]pricing.PriceRecord{}, nil)
		f.repo.On("Save", mock.Anything, mock.Anything).Return(nil)
		f.catalog.On("FindProduct", mock.Anything, mock.Anything).Return(pricing.Snapshot{}, nil)

		resp, err := f.svc.RecalculateAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, recalculatePageSize, resp.Total)
		assert.Equal(t, recalculatePageSize, resp.Succeeded)
	})

	t.Run("needs a catalog", func(t *testing.T) {
		f := newPricingFixture()
		f.svc.catalog = nil
		_, err := f.svc.RecalculateAll(ctx)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("listing failure is returned", func(t *testing.T) {
		f := newPricingFixture()
		f.repo.On("FindLatestPerProduct", mock.Anything, mock.Anything).Return([]pricing.PriceRecord(nil), errors.New("db down"))
		_, err := f.svc.RecalculateAll(ctx)
		require.Error(t, err)
	})
}

func TestPricingService_Queries(t *testing.T) {
	ctx := context.Background()
	productID := uuid.New()
	settings := testSettings()
	result, err := pricing.NewPipeline(settings).Run(decimal.NewFromInt(100), nil)
	require.NoError(t, err)
	record, err := pricing.NewPriceRecord(productID, decimal.NewFromInt(100), nil, settings, result)
	require.NoError(t, err)

	t.Run("ListPricedProducts", func(t *testing.T) {
		f := newPricingFixture()
		filter := shared.Filter{Page: 1, PageSize: 10}
		f.repo.On("FindLatestPerProduct", ctx, filter).Return([]pricing.PriceRecord{*record}, nil)
		f.repo.On("CountProducts", ctx).Return(int64(1), nil)

		page, err := f.svc.ListPricedProducts(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Total)
		assert.Equal(t, 1, page.TotalPages)
		require.Len(t, page.Items, 1)
		assert.Equal(t, productID, page.Items[0].ProductID)
		assert.Equal(t, record.RetailText, page.Items[0].RetailPrice)
	})

	t.Run("History", func(t *testing.T) {
		f := newPricingFixture()
		filter := shared.DefaultFilter()
		f.repo.On("FindByProduct", ctx, productID, filter).Return([]pricing.PriceRecord{*record, *record}, nil)
		f.repo.On("CountByProduct", ctx, productID).Return(int64(2), nil)

		page, err := f.svc.History(ctx, productID, filter)
		require.NoError(t, err)
		assert.Len(t, page.Items, 2)
		assert.Equal(t, int64(2), page.Total)
	})

	t.Run("ClearBasePrice", func(t *testing.T) {
		f := newPricingFixture()
		f.repo.On("DeleteByProduct", ctx, productID).Return(int64(3), nil)
		assert.NoError(t, f.svc.ClearBasePrice(ctx, productID))
	})

	t.Run("ClearBasePrice on unpriced product", func(t *testing.T) {
		f := newPricingFixture()
		other := uuid.New()
		f.repo.On("DeleteByProduct", ctx, other).Return(int64(0), nil)
		assert.ErrorIs(t, f.svc.ClearBasePrice(ctx, other), shared.ErrNotFound)
	})
}
