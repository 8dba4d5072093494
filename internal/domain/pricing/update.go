package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceUpdate is the set of product fields a calculation writes.
// The host catalog persists it.
type PriceUpdate struct {
	ProductID    uuid.UUID
	BasePrice    decimal.Decimal
	RegularPrice decimal.Decimal
	// SalePrice is left untouched on the product when not valid
	SalePrice   decimal.NullDecimal
	ActivePrice decimal.Decimal

	// RetailTarget is the product carrying the retail attribute: the
	// parent for variants, the product itself otherwise
	RetailTarget    uuid.UUID
	RetailAttribute string
	RetailText      string
}

// NewPriceUpdate derives the product writes for a run
func NewPriceUpdate(productID uuid.UUID, basePrice decimal.Decimal, product Product, settings Settings, result *Result) PriceUpdate {
	u := PriceUpdate{
		ProductID:       productID,
		BasePrice:       basePrice,
		RegularPrice:    result.WholesalePrice,
		SalePrice:       result.SalePrice,
		ActivePrice:     result.ActivePrice(),
		RetailTarget:    productID,
		RetailAttribute: settings.RetailPriceAttribute,
		RetailText:      result.RetailText(),
	}
	if product != nil {
		if fam, ok := product.Family(); ok && fam != nil {
			u.RetailTarget = fam.ParentID()
		}
	}
	return u
}

// WritesRetail returns true if there is a retail price and a slot to put it in
func (u PriceUpdate) WritesRetail() bool {
	return u.RetailText != "" && u.RetailAttribute != ""
}
