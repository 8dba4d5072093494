package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Pipeline derives wholesale, sale and retail prices from a base price.
// A Pipeline holds only its configuration and is safe for concurrent use;
// every Run works on its own state.
type Pipeline struct {
	settings Settings
	verbose  bool
}

// PipelineOption configures a Pipeline
type PipelineOption func(*Pipeline)

// WithVerbose makes Run record every stage in Result.Log
func WithVerbose() PipelineOption {
	return func(p *Pipeline) {
		p.verbose = true
	}
}

// NewPipeline creates a pipeline over a private copy of settings
func NewPipeline(settings Settings, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{settings: settings.Clone()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Settings returns a copy of the pipeline configuration
func (p *Pipeline) Settings() Settings {
	return p.settings.Clone()
}

// Verbose returns true if stage logging is enabled
func (p *Pipeline) Verbose() bool {
	return p.verbose
}

// Run executes all stages in order for one product.
// The only error is ErrInvalidInputPrice for a non-positive base price;
// every other missing input skips its stage.
func (p *Pipeline) Run(basePrice decimal.Decimal, product Product) (*Result, error) {
	if !basePrice.IsPositive() {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidInputPrice, basePrice)
	}
	if product == nil {
		product = Snapshot{}
	}

	r := &run{
		settings: &p.settings,
		verbose:  p.verbose,
		product:  product,
		price:    basePrice,
		result:   &Result{},
	}
	r.convertCurrency()
	r.addCustomsDuties()
	r.addShipping()
	r.applyWholesaleMark()
	r.round()
	r.recomputeSale()
	r.computeRetail()

	return r.result, nil
}

// run is the state of a single pipeline invocation
type run struct {
	settings *Settings
	verbose  bool
	product  Product
	price    decimal.Decimal
	result   *Result
}

func (r *run) applied(stage StageName, before, after decimal.Decimal, detail string) {
	if !r.verbose {
		return
	}
	r.result.Log = append(r.result.Log, StageRecord{
		Stage:   stage,
		Outcome: OutcomeApplied,
		Detail:  detail,
		Before:  before,
		After:   after,
	})
}

func (r *run) skipped(stage StageName, reason SkipReason) {
	if !r.verbose {
		return
	}
	r.result.Log = append(r.result.Log, StageRecord{
		Stage:   stage,
		Outcome: OutcomeSkipped,
		Reason:  reason,
		Before:  r.price,
		After:   r.price,
	})
}

func (r *run) convertCurrency() {
	rate := r.settings.DollarRate
	if !rate.IsPositive() {
		r.skipped(StageCurrencyConversion, SkipNoDollarRate)
		return
	}
	before := r.price
	r.price = r.price.Mul(rate)
	r.applied(StageCurrencyConversion, before, r.price, "dollar rate "+rate.String())
}

func (r *run) addCustomsDuties() {
	duties := r.settings.CustomsDuties
	if !duties.IsPositive() {
		r.skipped(StageCustomsDuties, SkipNoCustomsDuties)
		return
	}
	before := r.price
	r.price = r.price.Mul(duties)
	r.applied(StageCustomsDuties, before, r.price, "customs duties "+duties.String())
}

func (r *run) addShipping() {
	cost := r.settings.ShippingCost
	if !cost.IsPositive() {
		r.skipped(StageShipping, SkipNoShippingCost)
		return
	}
	kg := r.product.Weight().InKilograms()
	if !kg.IsPositive() {
		r.skipped(StageShipping, SkipNoWeight)
		return
	}
	before := r.price
	r.price = r.price.Add(cost.Mul(kg))
	r.applied(StageShipping, before, r.price, fmt.Sprintf("%s per kg, weight %s kg", cost, kg))
}

func (r *run) applyWholesaleMark() {
	defer func() { r.result.RawPrice = r.price }()

	seg, ok := r.settings.Wholesale.Resolve(r.price)
	if !ok {
		r.skipped(StageWholesaleMark, SkipNoSegment)
		return
	}
	before := r.price
	r.price = seg.Apply(r.price)
	r.result.WholesaleMark = decimal.NewNullDecimal(seg.Mark)
	r.applied(StageWholesaleMark, before, r.price, "segment "+seg.String())
}

func (r *run) round() {
	before := r.price
	r.price = r.settings.Round(r.price)
	r.result.WholesalePrice = r.price
	r.applied(StageRounding, before, r.price, fmt.Sprintf("%d decimals", r.settings.Precision))
}

func (r *run) recomputeSale() {
	sale, onSale := r.product.SalePrice()
	if !onSale || !sale.IsPositive() {
		r.skipped(StageSalePrice, SkipNoSale)
		return
	}
	regular := r.product.RegularPrice()
	if !regular.IsPositive() {
		r.skipped(StageSalePrice, SkipNoRegularPrice)
		return
	}

	ratio := sale.Div(regular)
	newSale := r.settings.Round(r.result.RawPrice.Mul(ratio))
	r.result.SalePrice = decimal.NewNullDecimal(newSale)
	r.applied(StageSalePrice, r.result.RawPrice, newSale, fmt.Sprintf("sale is %s of %s", sale, regular))
}

func (r *run) computeRetail() {
	prices := []decimal.Decimal{r.result.RawPrice}
	if fam, ok := r.product.Family(); ok && fam != nil {
		prices = append(prices, fam.VariantPrices()...)
	}

	var (
		retail  *RetailPrice
		minMark decimal.Decimal
	)
	for _, price := range prices {
		seg, ok := r.settings.Retail.Resolve(price)
		if !ok {
			continue
		}
		value := r.settings.Round(seg.Apply(price))
		if retail == nil {
			retail = &RetailPrice{Min: value, Max: value}
			minMark = seg.Mark
			continue
		}
		if value.LessThan(retail.Min) {
			retail.Min = value
			minMark = seg.Mark
		}
		if value.GreaterThan(retail.Max) {
			retail.Max = value
		}
	}

	if retail == nil {
		r.skipped(StageRetailPrice, SkipNoSegment)
		return
	}
	r.result.Retail = retail
	r.result.RetailMark = decimal.NewNullDecimal(minMark)
	r.applied(StageRetailPrice, r.result.RawPrice, retail.Max, "retail "+retail.String()+", mark "+minMark.String())
}
