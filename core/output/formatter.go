// Package output renders billing, payout and tax-info results for people
// (cli) and for machines (json).
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"

	"reviewpay/core/billing"
	"reviewpay/core/taxinfo"
	"reviewpay/internal/errors"
)

// Format represents output format type
type Format string

const (
	// FormatCLI is a human-readable table
	FormatCLI Format = "cli"

	// FormatJSON is machine-readable JSON
	FormatJSON Format = "json"
)

// Formatter produces output in a specific format
type Formatter interface {
	// Format returns the format type
	Format() Format

	// Render writes result to w. Supported results are billing.CampaignResult,
	// billing.Comparison, billing.PlatformBreakdown, billing.PayoutResult and
	// taxinfo.Result (pointers included).
	Render(w io.Writer, result interface{}) error
}

// Registry manages formatter registration
type Registry struct {
	mu         sync.RWMutex
	formatters map[Format]Formatter
}

// NewRegistry returns a registry holding the cli and json formatters.
func NewRegistry() *Registry {
	r := &Registry{formatters: make(map[Format]Formatter)}
	r.Register(CLIFormatter{})
	r.Register(JSONFormatter{Indent: "  "})
	return r
}

// Register adds a formatter to the registry
func (r *Registry) Register(f Formatter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.formatters[f.Format()]; exists {
		return errors.Validationf("formatter already registered: %s", f.Format())
	}
	r.formatters[f.Format()] = f
	return nil
}

// Get returns the formatter for a format, or a validation error naming the
// known formats.
func (r *Registry) Get(format Format) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.formatters[Format(strings.ToLower(string(format)))]
	if !ok {
		return nil, errors.Validationf("unknown output format %q (known: %s)", format, strings.Join(r.names(), ", "))
	}
	return f, nil
}

// Formats returns the registered format names, sorted.
func (r *Registry) Formats() []Format {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Format, 0, len(r.formatters))
	for _, name := range r.names() {
		out = append(out, Format(name))
	}
	return out
}

func (r *Registry) names() []string {
	names := make([]string, 0, len(r.formatters))
	for f := range r.formatters {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}

// JSONFormatter renders results as JSON
type JSONFormatter struct {
	Indent string
}

// Format implements Formatter
func (JSONFormatter) Format() Format { return FormatJSON }

// Render implements Formatter
func (f JSONFormatter) Render(w io.Writer, result interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", f.Indent)
	if err := enc.Encode(result); err != nil {
		return errors.Internal("failed to encode result", err)
	}
	return nil
}

// CLIFormatter renders results as aligned label/value tables with won amounts
// grouped, e.g. 363,000원.
type CLIFormatter struct{}

// Format implements Formatter
func (CLIFormatter) Format() Format { return FormatCLI }

// Render implements Formatter
func (f CLIFormatter) Render(w io.Writer, result interface{}) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	switch v := result.(type) {
	case billing.CampaignResult:
		writeCampaign(tw, "CAMPAIGN BILL", v)
	case *billing.CampaignResult:
		writeCampaign(tw, "CAMPAIGN BILL", *v)
	case billing.Comparison:
		writeComparison(tw, v)
	case *billing.Comparison:
		writeComparison(tw, *v)
	case billing.PlatformBreakdown:
		writePlatforms(tw, v)
	case *billing.PlatformBreakdown:
		writePlatforms(tw, *v)
	case billing.PayoutResult:
		writePayout(tw, v)
	case *billing.PayoutResult:
		writePayout(tw, *v)
	case taxinfo.Result:
		writeTaxInfo(tw, v)
	case *taxinfo.Result:
		writeTaxInfo(tw, *v)
	default:
		return errors.Validationf("cannot render %T as %s", result, FormatCLI)
	}
	if err := tw.Flush(); err != nil {
		return errors.Internal("failed to write output", err)
	}
	return nil
}

func heading(w io.Writer, title string) {
	fmt.Fprintf(w, "%s\n%s\n", title, strings.Repeat("─", len(title)))
}

func row(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %s\t%s\n", label, value)
}

func writeCampaign(w io.Writer, title string, r billing.CampaignResult) {
	heading(w, title)
	row(w, "Payment method", string(r.PaymentMethod))
	row(w, "Recruits", billing.FormatNumber(r.RecruitCount))
	row(w, "Reward points", billing.FormatKRW(r.RewardPointTotal))
	row(w, "Agency fee", billing.FormatKRW(r.AgencyFeeTotal))
	row(w, "Base amount", billing.FormatKRW(r.BaseAmount))
	if r.PaymentMethod == billing.CreditCard {
		row(w, "Card surcharge ("+billing.FormatPercent(r.SurchargeRate.Shift(2), 1)+")", billing.FormatKRW(r.SurchargeAmount))
	}
	row(w, "Supply price", billing.FormatKRW(r.SupplyPrice))
	row(w, "VAT", billing.FormatKRW(r.VATAmount))
	row(w, "Total", billing.FormatKRW(r.TotalAmount))
	if r.DiscountFromCard != nil {
		row(w, "Saved vs card", billing.FormatKRW(*r.DiscountFromCard))
	}
}

func writeComparison(w io.Writer, c billing.Comparison) {
	heading(w, "PAYMENT METHOD COMPARISON")
	row(w, "Bank transfer", billing.FormatKRW(c.BankTransfer.TotalAmount))
	row(w, "Credit card", billing.FormatKRW(c.CreditCard.TotalAmount))
	row(w, "Savings", billing.FormatKRW(c.Savings)+" ("+billing.FormatPercent(c.SavingsPercent, 2)+")")
	fmt.Fprintf(w, "\n  %s\n", c.Message)
}

func writePlatforms(w io.Writer, b billing.PlatformBreakdown) {
	heading(w, "PLATFORM BREAKDOWN")
	fmt.Fprintln(w, "  Platform\tRecruits\tBase\tVAT\tTotal")
	for _, p := range b.Platforms {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n",
			p.Platform,
			billing.FormatNumber(p.Billing.RecruitCount),
			billing.FormatKRW(p.Billing.BaseAmount),
			billing.FormatKRW(p.Billing.VATAmount),
			billing.FormatKRW(p.Billing.TotalAmount),
		)
	}
	fmt.Fprintln(w)
	writeCampaign(w, "AGGREGATE", b.Aggregate)
}

func writePayout(w io.Writer, p billing.PayoutResult) {
	heading(w, "PAYOUT")
	row(w, "Gross amount", billing.FormatKRW(p.GrossAmount))
	row(w, "Withholding tax", billing.FormatKRW(p.WithholdingTax))
	row(w, "Actual payout", billing.FormatKRW(p.ActualPayout))
}

func writeTaxInfo(w io.Writer, r taxinfo.Result) {
	heading(w, "TAX INFORMATION")
	row(w, "Legal name", r.LegalName)
	row(w, "RRN", r.MaskedRRN)
	if id, err := taxinfo.KeyID(r.EncryptedRRN); err == nil {
		row(w, "Key", id)
	}
}
