package invoices

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Rate is an exact fraction such as 11/12 or 12/100.
type Rate struct {
	Numerator   int64 `json:"numerator"`
	Denominator int64 `json:"denominator"`
}

// Default rates.
var (
	DefaultDPPRate = Rate{Numerator: 11, Denominator: 12}
	DefaultTaxRate = Rate{Numerator: 12, Denominator: 100}
)

// Valid reports a usable fraction.
func (r Rate) Valid() bool {
	return r.Denominator > 0 && r.Numerator >= 0
}

// Of multiplies amount by the rate and rounds half-up to whole Rupiah.
func (r Rate) Of(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(r.Numerator)).
		Div(decimal.NewFromInt(r.Denominator)).
		Round(0)
}

func (r Rate) String() string {
	return fmt.Sprintf("%d/%d", r.Numerator, r.Denominator)
}

// Percent renders the rate as a percentage, e.g. "12%".
func (r Rate) Percent() string {
	if !r.Valid() {
		return ""
	}
	return decimal.NewFromInt(r.Numerator*100).Div(decimal.NewFromInt(r.Denominator)).Round(2).String() + "%"
}

// Totals are the derived monetary amounts of an invoice.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	DPP      decimal.Decimal `json:"dpp"`
	PPN      decimal.Decimal `json:"ppn"`
	Total    decimal.Decimal `json:"total"`
}

// ComputeTotals sums line amounts exactly, then derives dpp and ppn with
// rounding applied at those two steps only.
func ComputeTotals(lines []Line, dppRate, taxRate Rate) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Amount())
	}
	dpp := dppRate.Of(subtotal)
	ppn := taxRate.Of(dpp)
	return Totals{
		Subtotal: subtotal,
		DPP:      dpp,
		PPN:      ppn,
		Total:    subtotal.Add(ppn),
	}
}
