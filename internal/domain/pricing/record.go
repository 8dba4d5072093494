package pricing

import (
	"github.com/google/uuid"
	"github.com/pricesetter/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PriceRecord is the audit entry of one applied calculation.
// The latest record of a product holds its current base price.
type PriceRecord struct {
	shared.BaseAggregateRoot
	ProductID       uuid.UUID
	ParentID        *uuid.UUID
	BasePrice       decimal.Decimal
	WholesalePrice  decimal.Decimal
	RawPrice        decimal.Decimal
	SalePrice       decimal.NullDecimal
	RetailMin       decimal.NullDecimal
	RetailMax       decimal.NullDecimal
	RetailText      string
	RetailAttribute string
	Precision       int32
	Input           Snapshot
	Log             []StageRecord
}

// NewPriceRecord records the outcome of a run for a product
func NewPriceRecord(productID uuid.UUID, basePrice decimal.Decimal, product Product, settings Settings, result *Result) (*PriceRecord, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if !basePrice.IsPositive() {
		return nil, ErrInvalidInputPrice
	}
	if result == nil {
		return nil, shared.NewDomainError("INVALID_RESULT", "Calculation result cannot be nil")
	}

	input := SnapshotOf(product)
	record := &PriceRecord{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		BasePrice:         basePrice,
		WholesalePrice:    result.WholesalePrice,
		RawPrice:          result.RawPrice,
		SalePrice:         result.SalePrice,
		RetailText:        result.RetailText(),
		RetailAttribute:   settings.RetailPriceAttribute,
		Precision:         settings.Precision,
		Input:             input,
		Log:               append([]StageRecord(nil), result.Log...),
	}
	if input.Variant != nil {
		parent := input.Variant.Parent
		record.ParentID = &parent
	}
	if result.Retail != nil {
		record.RetailMin = decimal.NewNullDecimal(result.Retail.Min)
		record.RetailMax = decimal.NewNullDecimal(result.Retail.Max)
	}

	record.AddDomainEvent(NewPriceAppliedEvent(record))

	return record, nil
}

// IsVariant returns true if the record belongs to a variant product
func (r *PriceRecord) IsVariant() bool {
	return r.ParentID != nil
}

// Retail returns the retail price of the record, nil when none was computed
func (r *PriceRecord) Retail() *RetailPrice {
	if !r.RetailMin.Valid || !r.RetailMax.Valid {
		return nil
	}
	return &RetailPrice{Min: r.RetailMin.Decimal, Max: r.RetailMax.Decimal}
}

// ActivePrice is the sale price when present, the wholesale price otherwise
func (r *PriceRecord) ActivePrice() decimal.Decimal {
	if r.SalePrice.Valid {
		return r.SalePrice.Decimal
	}
	return r.WholesalePrice
}

// AppliedSnapshot returns the product as it looks after this record was
// written: the wholesale price became the regular price and the new sale
// price replaced the old one.
func (r *PriceRecord) AppliedSnapshot() Snapshot {
	snap := r.Input.clone()
	snap.Regular = r.WholesalePrice
	snap.Sale = r.SalePrice
	return snap
}
