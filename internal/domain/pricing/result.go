package pricing

import (
	"github.com/shopspring/decimal"
)

// RetailRangeSeparator joins the bounds of a retail price range
const RetailRangeSeparator = " – "

// RetailPrice is a suggested public price, a single value or a range
// across the variants of a parent product
type RetailPrice struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// IsRange returns true if Min and Max differ
func (r RetailPrice) IsRange() bool {
	return !r.Min.Equal(r.Max)
}

// String renders "min – max", or a single value when the bounds are equal
func (r RetailPrice) String() string {
	if !r.IsRange() {
		return r.Min.String()
	}
	return r.Min.String() + RetailRangeSeparator + r.Max.String()
}

// Result holds the outputs of one pipeline run
type Result struct {
	// WholesalePrice is the rounded final price
	WholesalePrice decimal.Decimal
	// RawPrice is the price right after the wholesale mark, before rounding
	RawPrice decimal.Decimal
	// SalePrice is set only when the product has an active sale
	SalePrice decimal.NullDecimal
	// Retail is nil when no retail segment matched
	Retail *RetailPrice

	WholesaleMark decimal.NullDecimal
	RetailMark    decimal.NullDecimal

	// Log is only filled in verbose mode
	Log []StageRecord
}

// HasSale returns true if a new sale price was computed
func (r *Result) HasSale() bool {
	return r.SalePrice.Valid
}

// ActivePrice is the price a shop shows: the sale price when present,
// the wholesale price otherwise
func (r *Result) ActivePrice() decimal.Decimal {
	if r.SalePrice.Valid {
		return r.SalePrice.Decimal
	}
	return r.WholesalePrice
}

// RetailText returns the formatted retail price, empty when absent
func (r *Result) RetailText() string {
	if r.Retail == nil {
		return ""
	}
	return r.Retail.String()
}

// FormattedLog renders the stage log
func (r *Result) FormattedLog() string {
	return FormatLog(r.Log)
}
