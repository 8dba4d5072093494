package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultPrecision is the number of decimal places used when none is configured
const DefaultPrecision int32 = 2

// MaxPrecision bounds the configurable number of decimal places
const MaxPrecision int32 = 8

// Settings is the configuration of a pricing pipeline.
// A non-positive DollarRate, CustomsDuties or ShippingCost disables its stage.
type Settings struct {
	DollarRate    decimal.Decimal
	CustomsDuties decimal.Decimal
	ShippingCost  decimal.Decimal // per kilogram
	Wholesale     SegmentTable
	Retail        SegmentTable

	// RetailPriceAttribute names the product attribute that receives the
	// formatted retail price. Not used by the arithmetic.
	RetailPriceAttribute string

	Precision int32
}

// DefaultSettings returns the settings a fresh installation starts with
func DefaultSettings() Settings {
	return Settings{
		DollarRate:    decimal.NewFromInt(1),
		CustomsDuties: decimal.NewFromInt(1),
		ShippingCost:  decimal.NewFromInt(70),
		Wholesale: SegmentTable{
			MustSegment("0", "1200", "1.25"),
			MustSegment("1200", "2000", "1.2"),
			MustSegment("2000", "", "1.18"),
		},
		Retail: SegmentTable{
			MustSegment("0", "300", "2.1"),
			MustSegment("300", "1000", "2"),
			MustSegment("1000", "", "1.9"),
		},
		Precision: DefaultPrecision,
	}
}

// Table returns the segment table for a tier
func (s Settings) Table(tier TierName) (SegmentTable, bool) {
	switch tier {
	case TierWholesale:
		return s.Wholesale, true
	case TierRetail:
		return s.Retail, true
	default:
		return nil, false
	}
}

// Resolve finds the segment of the named tier containing price.
// Unknown tier names never match.
func (s Settings) Resolve(tier TierName, price decimal.Decimal) (Segment, bool) {
	table, ok := s.Table(tier)
	if !ok {
		return Segment{}, false
	}
	return table.Resolve(price)
}

// Round rounds a value to the configured precision, half away from zero
func (s Settings) Round(value decimal.Decimal) decimal.Decimal {
	return value.Round(s.Precision)
}

// Validate checks that the settings can be stored
func (s Settings) Validate() error {
	factors := []struct {
		key   string
		value decimal.Decimal
	}{
		{OptionDollarRate, s.DollarRate},
		{OptionCustomsDuties, s.CustomsDuties},
		{OptionShippingCost, s.ShippingCost},
	}
	for _, f := range factors {
		if f.value.IsNegative() {
			return fmt.Errorf("%w: %s cannot be negative", ErrInvalidSettings, f.key)
		}
	}
	if s.Precision < 0 || s.Precision > MaxPrecision {
		return fmt.Errorf("%w: precision must be between 0 and %d", ErrInvalidSettings, MaxPrecision)
	}
	if err := s.Wholesale.Validate(); err != nil {
		return fmt.Errorf("wholesale: %w", err)
	}
	if err := s.Retail.Validate(); err != nil {
		return fmt.Errorf("retail: %w", err)
	}
	return nil
}

// Clone returns a deep copy of the settings
func (s Settings) Clone() Settings {
	out := s
	out.Wholesale = s.Wholesale.Clone()
	out.Retail = s.Retail.Clone()
	return out
}
