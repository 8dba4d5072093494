package pricing

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Option keys of the flat settings form
const (
	OptionDollarRate           = "dollar_rate"
	OptionCustomsDuties        = "customs_duties"
	OptionShippingCost         = "shipping_cost"
	OptionRetailPriceAttribute = "retail_price_attribute"
	OptionPrecision            = "num_of_dec"
)

// legacyUnboundedLimit is the sentinel older installations stored as the
// upper bound of the last bracket
var legacyUnboundedLimit = decimal.RequireFromString("99999999999999")

var tierPrefixes = map[TierName]string{
	TierWholesale: "whole_mark",
	TierRetail:    "retail_mark",
}

// SegmentOptionKey returns the flat key of a segment field, e.g. whole_mark_2_to.
// n is 1-based.
func SegmentOptionKey(tier TierName, n int, field string) string {
	return fmt.Sprintf("%s_%d_%s", tierPrefixes[tier], n, field)
}

// OptionKeys returns every key understood by SettingsFromMap
func OptionKeys() []string {
	keys := []string{
		OptionDollarRate,
		OptionCustomsDuties,
		OptionShippingCost,
	}
	for _, tier := range []TierName{TierWholesale, TierRetail} {
		for n := 1; n <= SegmentsPerTier; n++ {
			for _, field := range []string{"from", "to", "mark"} {
				keys = append(keys, SegmentOptionKey(tier, n, field))
			}
		}
	}
	return append(keys, OptionRetailPriceAttribute, OptionPrecision)
}

// IsOptionKey reports whether key belongs to the flat settings form
func IsOptionKey(key string) bool {
	for _, k := range OptionKeys() {
		if k == key {
			return true
		}
	}
	return false
}

// MergeOptions overlays stored values on defaults key by key.
// Unknown keys in stored are dropped.
func MergeOptions(defaults, stored map[string]string) map[string]string {
	out := make(map[string]string, len(defaults))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range stored {
		if IsOptionKey(k) {
			out[k] = v
		}
	}
	return out
}

// SettingsFromMap parses the flat settings form.
// Missing numeric keys leave their stage disabled, a tier whose three
// keys are all blank is left out of the table, and a missing precision
// falls back to DefaultPrecision.
func SettingsFromMap(values map[string]string) (Settings, error) {
	var s Settings
	var err error

	if s.DollarRate, _, err = parseOptionDecimal(values, OptionDollarRate); err != nil {
		return Settings{}, err
	}
	if s.CustomsDuties, _, err = parseOptionDecimal(values, OptionCustomsDuties); err != nil {
		return Settings{}, err
	}
	if s.ShippingCost, _, err = parseOptionDecimal(values, OptionShippingCost); err != nil {
		return Settings{}, err
	}
	if s.Wholesale, err = parseSegmentTable(values, TierWholesale); err != nil {
		return Settings{}, err
	}
	if s.Retail, err = parseSegmentTable(values, TierRetail); err != nil {
		return Settings{}, err
	}

	s.RetailPriceAttribute = strings.TrimSpace(values[OptionRetailPriceAttribute])

	s.Precision = DefaultPrecision
	if raw := strings.TrimSpace(values[OptionPrecision]); raw != "" {
		p, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return Settings{}, fmt.Errorf("%w: %s must be a whole number", ErrInvalidSettings, OptionPrecision)
		}
		s.Precision = int32(p)
	}

	return s, nil
}

// ToMap renders the settings in the flat form read by SettingsFromMap.
// Unbounded upper bounds are written as an empty string.
func (s Settings) ToMap() map[string]string {
	out := map[string]string{
		OptionDollarRate:           s.DollarRate.String(),
		OptionCustomsDuties:        s.CustomsDuties.String(),
		OptionShippingCost:         s.ShippingCost.String(),
		OptionRetailPriceAttribute: s.RetailPriceAttribute,
		OptionPrecision:            strconv.FormatInt(int64(s.Precision), 10),
	}
	for tier, table := range map[TierName]SegmentTable{TierWholesale: s.Wholesale, TierRetail: s.Retail} {
		for n := 1; n <= SegmentsPerTier; n++ {
			from, to, mark := "", "", ""
			if n <= len(table) {
				seg := table[n-1]
				from, mark = seg.From.String(), seg.Mark.String()
				if seg.To.Valid {
					to = seg.To.Decimal.String()
				}
			}
			out[SegmentOptionKey(tier, n, "from")] = from
			out[SegmentOptionKey(tier, n, "to")] = to
			out[SegmentOptionKey(tier, n, "mark")] = mark
		}
	}
	return out
}

func parseSegmentTable(values map[string]string, tier TierName) (SegmentTable, error) {
	var table SegmentTable
	for n := 1; n <= SegmentsPerTier; n++ {
		fromKey := SegmentOptionKey(tier, n, "from")
		toKey := SegmentOptionKey(tier, n, "to")
		markKey := SegmentOptionKey(tier, n, "mark")

		from, hasFrom, err := parseOptionDecimal(values, fromKey)
		if err != nil {
			return nil, err
		}
		to, err := parseUpperBound(values, toKey)
		if err != nil {
			return nil, err
		}
		mark, hasMark, err := parseOptionDecimal(values, markKey)
		if err != nil {
			return nil, err
		}

		if !hasFrom && !to.Valid && !hasMark {
			continue
		}
		if !hasMark {
			return nil, fmt.Errorf("%w: %s is required", ErrInvalidSettings, markKey)
		}
		table = append(table, Segment{From: from, To: to, Mark: mark})
	}
	return table, nil
}

func parseUpperBound(values map[string]string, key string) (decimal.NullDecimal, error) {
	raw := normalizeDecimal(values[key])
	switch strings.ToLower(raw) {
	case "", "inf", "∞":
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("%w: %s is not a number", ErrInvalidSettings, key)
	}
	if d.GreaterThanOrEqual(legacyUnboundedLimit) {
		return decimal.NullDecimal{}, nil
	}
	return decimal.NewNullDecimal(d), nil
}

// parseOptionDecimal returns the value of key and whether it was set
func parseOptionDecimal(values map[string]string, key string) (decimal.Decimal, bool, error) {
	raw := normalizeDecimal(values[key])
	if raw == "" {
		return decimal.Zero, false, nil
	}
	d, err := ParseDecimal(raw)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("%w: %s is not a number", ErrInvalidSettings, key)
	}
	return d, true, nil
}

// ParseDecimal parses a user supplied number, accepting a decimal comma
func ParseDecimal(raw string) (decimal.Decimal, error) {
	return decimal.NewFromString(normalizeDecimal(raw))
}

func normalizeDecimal(raw string) string {
	return strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
}
