package pricing

import (
	"github.com/google/uuid"
	"github.com/pricesetter/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Product is the read-only view of a catalog product the pipeline needs.
// Storage of the product itself lives outside this module.
type Product interface {
	// Weight returns the shipping weight; the zero Weight means unknown
	Weight() valueobject.Weight
	// RegularPrice returns the current regular price, zero when unknown
	RegularPrice() decimal.Decimal
	// SalePrice returns the current sale price when a sale is active
	SalePrice() (decimal.Decimal, bool)
	// Family is present for variants only
	Family() (VariantFamily, bool)
}

// VariantFamily links a variant to its parent product
type VariantFamily interface {
	ParentID() uuid.UUID
	// VariantPrices returns the known pre-rounding prices of the parent's
	// other variants. The running product's own price is not part of it:
	// the pipeline adds its fresh raw price itself.
	VariantPrices() []decimal.Decimal
}

// Snapshot is a plain Product for callers that already hold the data
type Snapshot struct {
	ProductWeight valueobject.Weight  `json:"weight"`
	Regular       decimal.Decimal     `json:"regular_price"`
	Sale          decimal.NullDecimal `json:"sale_price"`
	Variant       *ParentFamily       `json:"variant,omitempty"`
}

// ParentFamily is a plain VariantFamily
type ParentFamily struct {
	Parent uuid.UUID         `json:"parent_id"`
	Prices []decimal.Decimal `json:"prices"`
}

// ParentID returns the parent product ID
func (f ParentFamily) ParentID() uuid.UUID {
	return f.Parent
}

// VariantPrices returns the prices of the other variants
func (f ParentFamily) VariantPrices() []decimal.Decimal {
	return f.Prices
}

// Weight implements Product
func (s Snapshot) Weight() valueobject.Weight {
	return s.ProductWeight
}

// RegularPrice implements Product
func (s Snapshot) RegularPrice() decimal.Decimal {
	return s.Regular
}

// SalePrice implements Product.
// A sale is active only when its price is positive.
func (s Snapshot) SalePrice() (decimal.Decimal, bool) {
	if !s.Sale.Valid || !s.Sale.Decimal.IsPositive() {
		return decimal.Zero, false
	}
	return s.Sale.Decimal, true
}

// Family implements Product
func (s Snapshot) Family() (VariantFamily, bool) {
	if s.Variant == nil {
		return nil, false
	}
	return *s.Variant, true
}

// SnapshotOf copies any Product into a Snapshot
func SnapshotOf(p Product) Snapshot {
	if p == nil {
		return Snapshot{}
	}
	if s, ok := p.(Snapshot); ok {
		return s.clone()
	}
	snap := Snapshot{
		ProductWeight: p.Weight(),
		Regular:       p.RegularPrice(),
	}
	if sale, ok := p.SalePrice(); ok {
		snap.Sale = decimal.NewNullDecimal(sale)
	}
	if fam, ok := p.Family(); ok && fam != nil {
		snap.Variant = &ParentFamily{
			Parent: fam.ParentID(),
			Prices: append([]decimal.Decimal(nil), fam.VariantPrices()...),
		}
	}
	return snap
}

func (s Snapshot) clone() Snapshot {
	if s.Variant != nil {
		fam := *s.Variant
		fam.Prices = append([]decimal.Decimal(nil), s.Variant.Prices...)
		s.Variant = &fam
	}
	return s
}
