package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	pricingapp "github.com/pricesetter/backend/internal/application/pricing"
	"github.com/pricesetter/backend/internal/domain/shared"
)

// print writes v as indented JSON in -json mode and through text otherwise
func (a *app) print(v any, text func(io.Writer) error) error {
	if a.jsonOut {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return text(a.out)
}

func writeCalculation(w io.Writer, resp *pricingapp.CalculationResponse) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	mode := "applied"
	if resp.DryRun {
		mode = "dry run"
	}
	fmt.Fprintf(tw, "Mode:\t%s\n", mode)
	fmt.Fprintf(tw, "Product:\t%s\n", resp.ProductID)
	if resp.RecordID != nil {
		fmt.Fprintf(tw, "Record:\t%s\n", resp.RecordID)
	}
	fmt.Fprintf(tw, "Base price:\t%s\n", resp.BasePrice)
	fmt.Fprintf(tw, "Wholesale price:\t%s\n", resp.WholesalePrice)
	fmt.Fprintf(tw, "Raw price:\t%s\n", resp.RawPrice)
	fmt.Fprintf(tw, "Sale price:\t%s\n", optional(resp.SalePrice))
	fmt.Fprintf(tw, "Active price:\t%s\n", resp.ActivePrice)
	if resp.RetailPrice != "" {
		fmt.Fprintf(tw, "Retail price:\t%s\n", resp.RetailPrice)
	}
	fmt.Fprintf(tw, "Wholesale mark:\t%s\n", optional(resp.WholesaleMark))
	fmt.Fprintf(tw, "Retail mark:\t%s\n", optional(resp.RetailMark))
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(resp.Stages) > 0 {
		fmt.Fprintln(w)
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "STAGE\tOUTCOME\tBEFORE\tAFTER\tNOTE")
		for _, st := range resp.Stages {
			note := st.Detail
			if st.Skipped() {
				note = string(st.Reason)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", st.Stage, st.Outcome, st.Before, st.After, note)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	if resp.Log != "" {
		fmt.Fprintf(w, "\n%s\n", resp.Log)
	}
	return nil
}

func writeBatch(w io.Writer, resp *pricingapp.BatchResponse) error {
	fmt.Fprintf(w, "recalculated %d products: %d succeeded, %d failed\n", resp.Total, resp.Succeeded, resp.Failed)
	if len(resp.Failures) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT\tERROR")
	for _, f := range resp.Failures {
		fmt.Fprintf(tw, "%s\t%s\n", f.ProductID, f.Error)
	}
	return tw.Flush()
}

func writeRecords(w io.Writer, page *shared.Paginated[pricingapp.PriceRecordResponse]) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT\tBASE\tWHOLESALE\tRAW\tSALE\tRETAIL\tPRICED AT")
	for _, r := range page.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ProductID, r.BasePrice, r.WholesalePrice, r.RawPrice,
			optional(r.SalePrice), dash(r.RetailPrice), r.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "page %d of %d, %d total\n", page.Page, page.TotalPages, page.Total)
	return err
}

func writeSettings(w io.Writer, values map[string]string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, key := range slices.Sorted(maps.Keys(values)) {
		fmt.Fprintf(tw, "%s\t%s\n", key, dash(values[key]))
	}
	return tw.Flush()
}

func optional(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return d.String()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
