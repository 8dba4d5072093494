package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// StageName identifies a pipeline stage
type StageName string

// Pipeline stages in execution order
const (
	StageCurrencyConversion StageName = "currency_conversion"
	StageCustomsDuties      StageName = "customs_duties"
	StageShipping           StageName = "shipping"
	StageWholesaleMark      StageName = "wholesale_mark"
	StageRounding           StageName = "rounding"
	StageSalePrice          StageName = "sale_price"
	StageRetailPrice        StageName = "retail_price"
)

// Stages returns every stage in the order the pipeline runs them
func Stages() []StageName {
	return []StageName{
		StageCurrencyConversion,
		StageCustomsDuties,
		StageShipping,
		StageWholesaleMark,
		StageRounding,
		StageSalePrice,
		StageRetailPrice,
	}
}

// Outcome tells whether a stage changed anything
type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeSkipped Outcome = "skipped"
)

// SkipReason explains why a stage was skipped
type SkipReason string

const (
	SkipNoDollarRate    SkipReason = "no_dollar_rate"
	SkipNoCustomsDuties SkipReason = "no_customs_duties"
	SkipNoShippingCost  SkipReason = "no_shipping_cost"
	SkipNoWeight        SkipReason = "no_weight"
	SkipNoSegment       SkipReason = "no_segment"
	SkipNoSale          SkipReason = "no_sale"
	SkipNoRegularPrice  SkipReason = "no_regular_price"
)

var skipDescriptions = map[SkipReason]string{
	SkipNoDollarRate:    "missing dollar rate",
	SkipNoCustomsDuties: "missing customs duties",
	SkipNoShippingCost:  "missing shipping cost",
	SkipNoWeight:        "missing product weight",
	SkipNoSegment:       "no matching segment",
	SkipNoSale:          "no current sale on product",
	SkipNoRegularPrice:  "product has no regular price",
}

// Description returns a human readable form of the reason
func (r SkipReason) Description() string {
	if d, ok := skipDescriptions[r]; ok {
		return d
	}
	return string(r)
}

// StageRecord is one entry of the audit trail of a pipeline run
type StageRecord struct {
	Stage   StageName       `json:"stage"`
	Outcome Outcome         `json:"outcome"`
	Reason  SkipReason      `json:"reason,omitempty"`
	Detail  string          `json:"detail,omitempty"`
	Before  decimal.Decimal `json:"before"`
	After   decimal.Decimal `json:"after"`
}

// Skipped returns true if the stage did not run
func (r StageRecord) Skipped() bool {
	return r.Outcome == OutcomeSkipped
}

// String renders the record as a single line
func (r StageRecord) String() string {
	if r.Skipped() {
		return fmt.Sprintf("%s: skipped, %s", r.Stage, r.Reason.Description())
	}
	line := fmt.Sprintf("%s: %s -> %s", r.Stage, r.Before, r.After)
	if r.Detail != "" {
		line += " (" + r.Detail + ")"
	}
	return line
}

// FormatLog renders records one per line
func FormatLog(records []StageRecord) string {
	lines := make([]string, 0, len(records))
	for _, r := range records {
		lines = append(lines, r.String())
	}
	return strings.Join(lines, "\n")
}
