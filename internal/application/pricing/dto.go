package pricing

import (
	"time"

	"github.com/google/uuid"
	"github.com/pricesetter/backend/internal/domain/pricing"
	"github.com/pricesetter/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// CalculateRequest represents a request to price one product
type CalculateRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	// BasePrice is the cost in the reference currency; a decimal comma is accepted
	BasePrice string `json:"base_price" validate:"max=32"`
	// Product overrides the catalog lookup when set
	Product *ProductInput `json:"product" validate:"omitempty"`
}

// ProductInput describes a product inline, for callers that hold its data
type ProductInput struct {
	Weight        *decimal.Decimal  `json:"weight"`
	WeightUnit    string            `json:"weight_unit" validate:"omitempty,oneof=kg g lbs lb oz KG G LBS LB OZ"`
	RegularPrice  *decimal.Decimal  `json:"regular_price"`
	SalePrice     *decimal.Decimal  `json:"sale_price"`
	ParentID      *uuid.UUID        `json:"parent_id"`
	// VariantPrices are the prices of the other variants of ParentID
	VariantPrices []decimal.Decimal `json:"variant_prices" validate:"omitempty,max=1000"`
}

// Snapshot converts the input to a pricing.Snapshot.
// The weight unit defaults to kilograms.
func (p ProductInput) Snapshot() (pricing.Snapshot, error) {
	var snap pricing.Snapshot

	if p.Weight != nil {
		unit := valueobject.WeightUnitKG
		if p.WeightUnit != "" {
			parsed, err := valueobject.ParseWeightUnit(p.WeightUnit)
			if err != nil {
				return pricing.Snapshot{}, err
			}
			unit = parsed
		}
		w, err := valueobject.NewWeight(*p.Weight, unit)
		if err != nil {
			return pricing.Snapshot{}, err
		}
		snap.ProductWeight = w
	}
	if p.RegularPrice != nil {
		snap.Regular = *p.RegularPrice
	}
	if p.SalePrice != nil {
		snap.Sale = decimal.NewNullDecimal(*p.SalePrice)
	}
	if p.ParentID != nil {
		snap.Variant = &pricing.ParentFamily{
			Parent: *p.ParentID,
			Prices: append([]decimal.Decimal(nil), p.VariantPrices...),
		}
	}
	return snap, nil
}

// UpdateSettingsRequest carries settings in their flat key form.
// Only the given keys change.
type UpdateSettingsRequest struct {
	Values map[string]string `json:"values" validate:"required,min=1,dive,keys,required,max=64,endkeys,max=255"`
}

// SettingsResponse represents the effective settings
type SettingsResponse struct {
	Values map[string]string `json:"values"`
}

// CalculationResponse represents the outcome of a calculation
type CalculationResponse struct {
	ProductID      uuid.UUID             `json:"product_id"`
	RecordID       *uuid.UUID            `json:"record_id,omitempty"`
	DryRun         bool                  `json:"dry_run"`
	BasePrice      decimal.Decimal       `json:"base_price"`
	WholesalePrice decimal.Decimal       `json:"wholesale_price"`
	RawPrice       decimal.Decimal       `json:"raw_price"`
	SalePrice      *decimal.Decimal      `json:"sale_price,omitempty"`
	ActivePrice    decimal.Decimal       `json:"active_price"`
	RetailPrice    string                `json:"retail_price,omitempty"`
	RetailMin      *decimal.Decimal      `json:"retail_min,omitempty"`
	RetailMax      *decimal.Decimal      `json:"retail_max,omitempty"`
	WholesaleMark  *decimal.Decimal      `json:"wholesale_mark,omitempty"`
	RetailMark     *decimal.Decimal      `json:"retail_mark,omitempty"`
	Stages         []pricing.StageRecord `json:"stages,omitempty"`
	Log            string                `json:"log,omitempty"`
}

// PriceRecordResponse represents a stored calculation
type PriceRecordResponse struct {
	ID              uuid.UUID             `json:"id"`
	ProductID       uuid.UUID             `json:"product_id"`
	ParentID        *uuid.UUID            `json:"parent_id,omitempty"`
	BasePrice       decimal.Decimal       `json:"base_price"`
	WholesalePrice  decimal.Decimal       `json:"wholesale_price"`
	RawPrice        decimal.Decimal       `json:"raw_price"`
	SalePrice       *decimal.Decimal      `json:"sale_price,omitempty"`
	ActivePrice     decimal.Decimal       `json:"active_price"`
	RetailPrice     string                `json:"retail_price,omitempty"`
	RetailAttribute string                `json:"retail_attribute,omitempty"`
	Precision       int32                 `json:"precision"`
	Stages          []pricing.StageRecord `json:"stages,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
}

// BatchFailure describes one product a batch could not price
type BatchFailure struct {
	ProductID uuid.UUID `json:"product_id"`
	Error     string    `json:"error"`
}

// BatchResponse summarises a bulk recalculation
type BatchResponse struct {
	Total     int            `json:"total"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Failures  []BatchFailure `json:"failures,omitempty"`
}

// ToCalculationResponse converts a pipeline result to a response
func ToCalculationResponse(productID uuid.UUID, basePrice decimal.Decimal, result *pricing.Result, dryRun bool) CalculationResponse {
	resp := CalculationResponse{
		ProductID:      productID,
		DryRun:         dryRun,
		BasePrice:      basePrice,
		WholesalePrice: result.WholesalePrice,
		RawPrice:       result.RawPrice,
		SalePrice:      nullToPtr(result.SalePrice),
		ActivePrice:    result.ActivePrice(),
		RetailPrice:    result.RetailText(),
		WholesaleMark:  nullToPtr(result.WholesaleMark),
		RetailMark:     nullToPtr(result.RetailMark),
		Stages:         result.Log,
		Log:            result.FormattedLog(),
	}
	if result.Retail != nil {
		lo, hi := result.Retail.Min, result.Retail.Max
		resp.RetailMin = &lo
		resp.RetailMax = &hi
	}
	return resp
}

// ToPriceRecordResponse converts a record to a response
func ToPriceRecordResponse(r *pricing.PriceRecord) PriceRecordResponse {
	return PriceRecordResponse{
		ID:              r.ID,
		ProductID:       r.ProductID,
		ParentID:        r.ParentID,
		BasePrice:       r.BasePrice,
		WholesalePrice:  r.WholesalePrice,
		RawPrice:        r.RawPrice,
		SalePrice:       nullToPtr(r.SalePrice),
		ActivePrice:     r.ActivePrice(),
		RetailPrice:     r.RetailText,
		RetailAttribute: r.RetailAttribute,
		Precision:       r.Precision,
		Stages:          r.Log,
		CreatedAt:       r.CreatedAt,
	}
}

// ToPriceRecordResponses converts a slice of records
func ToPriceRecordResponses(records []pricing.PriceRecord) []PriceRecordResponse {
	out := make([]PriceRecordResponse, len(records))
	for i := range records {
		out[i] = ToPriceRecordResponse(&records[i])
	}
	return out
}

func nullToPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}
