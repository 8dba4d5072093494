package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pricingapp "github.com/pricesetter/backend/internal/application/pricing"
	"github.com/pricesetter/backend/internal/domain/pricing"
	"github.com/pricesetter/backend/internal/domain/shared"
)

// command is one pricer subcommand
type command struct {
	run func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"dry-run":        {run: runDryRun},
	"apply":          {run: runApply},
	"recalculate":    {run: runRecalculate},
	"list":           {run: runList},
	"history":        {run: runHistory},
	"clear":          {run: runClear},
	"settings":       {run: runSettings},
	"settings-set":   {run: runSettingsSet},
	"settings-reset": {run: runSettingsReset},
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

// parseFlags maps flag errors to errUsage. The flag set has already
// printed the problem and its defaults.
func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return errUsage
	}
	return nil
}

// calculateFlags collects a CalculateRequest from the command line
type calculateFlags struct {
	product       string
	price         string
	weight        string
	weightUnit    string
	regular       string
	sale          string
	variantOf     string
	variantPrices string
}

func (f *calculateFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.product, "product", "", "Product ID")
	fs.StringVar(&f.price, "price", "", "Base price in the reference currency (required)")
	fs.StringVar(&f.weight, "weight", "", "Product weight")
	fs.StringVar(&f.weightUnit, "weight-unit", "", "Weight unit: kg, g, lbs, oz (default kg)")
	fs.StringVar(&f.regular, "regular", "", "Current regular price")
	fs.StringVar(&f.sale, "sale", "", "Current sale price")
	fs.StringVar(&f.variantOf, "variant-of", "", "Parent product ID when the product is a variation")
	fs.StringVar(&f.variantPrices, "variant-prices", "", "Prices of the other variations of the parent, comma or semicolon separated (not this one)")
}

// request builds the CalculateRequest. Inline product data is only sent
// when at least one product flag is set; otherwise the catalog is used.
func (f *calculateFlags) request() (pricingapp.CalculateRequest, error) {
	var req pricingapp.CalculateRequest
	if f.price == "" {
		return req, fmt.Errorf("%w: -price is required", errUsage)
	}
	req.BasePrice = f.price

	if f.product != "" {
		id, err := uuid.Parse(f.product)
		if err != nil {
			return req, fmt.Errorf("invalid -product: %w", err)
		}
		req.ProductID = id
	}

	if f.weight == "" && f.regular == "" && f.sale == "" && f.variantOf == "" {
		return req, nil
	}

	input := &pricingapp.ProductInput{WeightUnit: f.weightUnit}
	var err error
	if input.Weight, err = optionalDecimal("weight", f.weight); err != nil {
		return req, err
	}
	if input.RegularPrice, err = optionalDecimal("regular", f.regular); err != nil {
		return req, err
	}
	if input.SalePrice, err = optionalDecimal("sale", f.sale); err != nil {
		return req, err
	}
	if f.variantOf != "" {
		parent, err := uuid.Parse(f.variantOf)
		if err != nil {
			return req, fmt.Errorf("invalid -variant-of: %w", err)
		}
		input.ParentID = &parent
		if input.VariantPrices, err = decimalList(f.variantPrices); err != nil {
			return req, err
		}
	}
	req.Product = input
	return req, nil
}

func optionalDecimal(name, raw string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := pricing.ParseDecimal(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid -%s %q", name, raw)
	}
	return &d, nil
}

// decimalList parses "10.5;12" or "10.5,12". A decimal comma is only
// accepted with the semicolon separator.
func decimalList(raw string) ([]decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	sep := ","
	if strings.Contains(raw, ";") {
		sep = ";"
	}
	var out []decimal.Decimal
	for _, part := range strings.Split(raw, sep) {
		if strings.TrimSpace(part) == "" {
			continue
		}
		d, err := pricing.ParseDecimal(part)
		if err != nil {
			return nil, fmt.Errorf("invalid -variant-prices entry %q", part)
		}
		out = append(out, d)
	}
	return out, nil
}

func runDryRun(ctx context.Context, a *app, args []string) error {
	return runCalculate(ctx, a, "dry-run", args, a.pricing.DryRun)
}

func runApply(ctx context.Context, a *app, args []string) error {
	return runCalculate(ctx, a, "apply", args, a.pricing.Apply)
}

func runCalculate(
	ctx context.Context,
	a *app,
	name string,
	args []string,
	calc func(context.Context, pricingapp.CalculateRequest) (*pricingapp.CalculationResponse, error),
) error {
	fs := newFlagSet(name, a.errOut)
	var f calculateFlags
	f.register(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	req, err := f.request()
	if err != nil {
		return err
	}
	resp, err := calc(ctx, req)
	if err != nil {
		return err
	}
	return a.print(resp, func(w io.Writer) error { return writeCalculation(w, resp) })
}

func runRecalculate(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("recalculate", a.errOut)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	resp, err := a.pricing.RecalculateAll(ctx)
	if err != nil {
		return err
	}
	if err := a.print(resp, func(w io.Writer) error { return writeBatch(w, resp) }); err != nil {
		return err
	}
	if resp.Failed > 0 {
		return fmt.Errorf("%d of %d products failed", resp.Failed, resp.Total)
	}
	return nil
}

// listFlags are the paging flags shared by list and history
type listFlags struct {
	page     int
	pageSize int
	orderBy  string
	orderDir string
}

func (f *listFlags) register(fs *flag.FlagSet) {
	def := shared.DefaultFilter()
	fs.IntVar(&f.page, "page", def.Page, "Page number")
	fs.IntVar(&f.pageSize, "page-size", def.PageSize, "Records per page")
	fs.StringVar(&f.orderBy, "order-by", "", "Sort field: created_at, product_id, base_price, wholesale_price, raw_price")
	fs.StringVar(&f.orderDir, "order-dir", "", "Sort direction: asc, desc")
}

func (f *listFlags) filter() shared.Filter {
	return shared.Filter{
		Page:     f.page,
		PageSize: f.pageSize,
		OrderBy:  f.orderBy,
		OrderDir: f.orderDir,
	}
}

func runList(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("list", a.errOut)
	var f listFlags
	f.register(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	page, err := a.pricing.ListPricedProducts(ctx, f.filter())
	if err != nil {
		return err
	}
	return a.print(page, func(w io.Writer) error { return writeRecords(w, page) })
}

func runHistory(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("history", a.errOut)
	var f listFlags
	f.register(fs)
	product := fs.String("product", "", "Product ID (required)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	id, err := requireProduct(*product)
	if err != nil {
		return err
	}
	page, err := a.pricing.History(ctx, id, f.filter())
	if err != nil {
		return err
	}
	return a.print(page, func(w io.Writer) error { return writeRecords(w, page) })
}

func runClear(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("clear", a.errOut)
	product := fs.String("product", "", "Product ID (required)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	id, err := requireProduct(*product)
	if err != nil {
		return err
	}
	if err := a.pricing.ClearBasePrice(ctx, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("product %s has no base price: %w", id, err)
		}
		return err
	}
	result := map[string]string{"product_id": id.String(), "status": "cleared"}
	return a.print(result, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "base price of %s cleared\n", id)
		return err
	})
}

func requireProduct(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%w: -product is required", errUsage)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid -product: %w", err)
	}
	return id, nil
}

func runSettings(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("settings", a.errOut)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	resp, err := a.settings.GetResponse(ctx)
	if err != nil {
		return err
	}
	return a.print(resp, func(w io.Writer) error { return writeSettings(w, resp.Values) })
}

func runSettingsSet(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("settings-set", a.errOut)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("%w: expected key=value arguments", errUsage)
	}
	values := make(map[string]string, fs.NArg())
	for _, arg := range fs.Args() {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return fmt.Errorf("%w: %q is not key=value", errUsage, arg)
		}
		values[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if _, err := a.settings.Update(ctx, pricingapp.UpdateSettingsRequest{Values: values}); err != nil {
		return err
	}
	return runSettings(ctx, a, nil)
}

func runSettingsReset(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("settings-reset", a.errOut)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if _, err := a.settings.Reset(ctx); err != nil {
		return err
	}
	return runSettings(ctx, a, nil)
}
