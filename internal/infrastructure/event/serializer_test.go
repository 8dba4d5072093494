package event

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pricesetter/backend/internal/domain/pricing"
	"github.com/pricesetter/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func priceApplied() *pricing.PriceAppliedEvent {
	parent := uuid.New()
	record := &pricing.PriceRecord{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         uuid.New(),
		ParentID:          &parent,
		BasePrice:         decimal.RequireFromString("12.5"),
		WholesalePrice:    decimal.RequireFromString("1290.63"),
		SalePrice:         decimal.NewNullDecimal(decimal.RequireFromString("1161.57")),
		RetailText:        "2451.20",
	}
	return pricing.NewPriceAppliedEvent(record)
}

func TestEventSerializer_RoundTripsPricingEvents(t *testing.T) {
	s := NewPricingEventSerializer()
	assert.Equal(t, []string{pricing.EventTypePriceApplied, pricing.EventTypePricingSettingsChanged}, s.RegisteredTypes())

	original := priceApplied()
	data, err := s.Serialize(original)
	require.NoError(t, err)

	decoded, err := s.Deserialize(pricing.EventTypePriceApplied, data)
	require.NoError(t, err)

	got, ok := decoded.(*pricing.PriceAppliedEvent)
	require.True(t, ok)
	assert.Equal(t, original.EventID(), got.EventID())
	assert.Equal(t, original.ProductID, got.ProductID)
	assert.Equal(t, *original.ParentID, *got.ParentID)
	assert.True(t, original.WholesalePrice.Equal(got.WholesalePrice))
	assert.True(t, got.SalePrice.Valid)
	assert.Equal(t, "2451.20", got.RetailText)
}

func TestEventSerializer_Errors(t *testing.T) {
	s := NewPricingEventSerializer()

	_, err := s.Deserialize("Unknown", []byte(`{}`))
	assert.ErrorContains(t, err, "unknown event type")

	_, err = s.Deserialize(pricing.EventTypePriceApplied, []byte(`{not json`))
	assert.ErrorContains(t, err, "failed to unmarshal event")
}

func TestJournalHandler_WritesReadableLines(t *testing.T) {
	var buf bytes.Buffer
	s := NewPricingEventSerializer()
	bus := NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(NewJournalHandler(&buf, s))

	applied := priceApplied()
	changed := pricing.NewPricingSettingsChangedEvent(nil, true)
	require.NoError(t, bus.Publish(context.Background(), applied, changed))

	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("\n")))

	events, err := ReadJournal(&buf, s)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, applied.EventID(), events[0].EventID())
	reset, ok := events[1].(*pricing.PricingSettingsChangedEvent)
	require.True(t, ok)
	assert.True(t, reset.Reset)
}
