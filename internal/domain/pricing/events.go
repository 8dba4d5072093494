package pricing

import (
	"github.com/google/uuid"
	"github.com/pricesetter/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypePriceRecord = "PriceRecord"
	AggregateTypeSettings    = "PricingSettings"
)

// Event type constants
const (
	EventTypePriceApplied           = "PriceApplied"
	EventTypePricingSettingsChanged = "PricingSettingsChanged"
)

// SettingsAggregateID identifies the single settings aggregate in events
var SettingsAggregateID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("pricing-settings"))

// PriceAppliedEvent is published when new prices were written to a product
type PriceAppliedEvent struct {
	shared.BaseDomainEvent
	ProductID      uuid.UUID           `json:"product_id"`
	ParentID       *uuid.UUID          `json:"parent_id,omitempty"`
	BasePrice      decimal.Decimal     `json:"base_price"`
	WholesalePrice decimal.Decimal     `json:"wholesale_price"`
	SalePrice      decimal.NullDecimal `json:"sale_price"`
	RetailText     string              `json:"retail_text,omitempty"`
}

// NewPriceAppliedEvent creates a new PriceAppliedEvent
func NewPriceAppliedEvent(record *PriceRecord) *PriceAppliedEvent {
	return &PriceAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePriceApplied, AggregateTypePriceRecord, record.ID),
		ProductID:       record.ProductID,
		ParentID:        record.ParentID,
		BasePrice:       record.BasePrice,
		WholesalePrice:  record.WholesalePrice,
		SalePrice:       record.SalePrice,
		RetailText:      record.RetailText,
	}
}

// PricingSettingsChangedEvent is published after settings were stored or reset
type PricingSettingsChangedEvent struct {
	shared.BaseDomainEvent
	ChangedKeys []string `json:"changed_keys,omitempty"`
	Reset       bool     `json:"reset"`
}

// NewPricingSettingsChangedEvent creates a new PricingSettingsChangedEvent
func NewPricingSettingsChangedEvent(changedKeys []string, reset bool) *PricingSettingsChangedEvent {
	return &PricingSettingsChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePricingSettingsChanged, AggregateTypeSettings, SettingsAggregateID),
		ChangedKeys:     changedKeys,
		Reset:           reset,
	}
}
