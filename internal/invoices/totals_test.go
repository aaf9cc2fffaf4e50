package invoices

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(itemID, qty int64, price string) Line {
	return Line{ItemID: itemID, Quantity: qty, Price: decimal.RequireFromString(price)}
}

func TestComputeTotalsDefaultRates(t *testing.T) {
	got := ComputeTotals([]Line{line(1, 10, "1000")}, DefaultDPPRate, DefaultTaxRate)

	assert.Equal(t, "10000", got.Subtotal.String())
	assert.Equal(t, "9167", got.DPP.String())
	assert.Equal(t, "1100", got.PPN.String())
	assert.Equal(t, "11100", got.Total.String())
}

func TestComputeTotalsRoundsHalfUp(t *testing.T) {
	// 6 * 11/12 = 5.5, 6 * 12% = 0.72
	got := ComputeTotals([]Line{line(1, 1, "6")}, DefaultDPPRate, DefaultTaxRate)
	assert.Equal(t, "6", got.DPP.String())
	assert.Equal(t, "1", got.PPN.String())
	assert.Equal(t, "7", got.Total.String())
}

func TestComputeTotalsKeepsSubtotalExact(t *testing.T) {
	got := ComputeTotals([]Line{line(1, 3, "333.33"), line(2, 1, "0.01")}, DefaultDPPRate, DefaultTaxRate)
	assert.Equal(t, "1000", got.Subtotal.String())
}

func TestComputeTotalsEmpty(t *testing.T) {
	got := ComputeTotals(nil, DefaultDPPRate, DefaultTaxRate)
	assert.True(t, got.Total.IsZero())
}

func TestComputeTotalsIgnoresLineOrder(t *testing.T) {
	a := []Line{line(1, 2, "1500"), line(2, 7, "250"), line(3, 1, "99999")}
	b := []Line{a[2], a[0], a[1]}
	assert.Equal(t, ComputeTotals(a, DefaultDPPRate, DefaultTaxRate), ComputeTotals(b, DefaultDPPRate, DefaultTaxRate))
}

func TestComputeTotalsCustomRates(t *testing.T) {
	got := ComputeTotals([]Line{line(1, 1, "1000")}, Rate{Numerator: 1, Denominator: 1}, Rate{Numerator: 11, Denominator: 100})
	assert.Equal(t, "1000", got.DPP.String())
	assert.Equal(t, "110", got.PPN.String())
	assert.Equal(t, "1110", got.Total.String())
}

func TestRatePercentAndValidity(t *testing.T) {
	assert.Equal(t, "12%", DefaultTaxRate.Percent())
	assert.Equal(t, "91.67%", DefaultDPPRate.Percent())
	assert.Equal(t, "11/12", DefaultDPPRate.String())
	assert.False(t, Rate{Numerator: 1}.Valid())
	assert.False(t, Rate{Numerator: -1, Denominator: 2}.Valid())
}

func TestComputeTotalsProperties(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	rates := []Rate{DefaultDPPRate, DefaultTaxRate, {Numerator: 1, Denominator: 1}, {Numerator: 11, Denominator: 100}}

	for i := 0; i < 300; i++ {
		lines := make([]Line, r.Intn(6))
		for j := range lines {
			cents := r.Intn(10_000_000)
			lines[j] = line(int64(j+1), int64(r.Intn(50)+1), fmt.Sprintf("%d.%02d", cents/100, cents%100))
		}
		dppRate := rates[r.Intn(len(rates))]
		taxRate := rates[r.Intn(len(rates))]
		base := ComputeTotals(lines, dppRate, taxRate)

		again := ComputeTotals(lines, dppRate, taxRate)
		require.True(t, base.Subtotal.Equal(again.Subtotal))
		require.True(t, base.DPP.Equal(again.DPP))
		require.True(t, base.PPN.Equal(again.PPN))
		require.True(t, base.Total.Equal(again.Total))

		k := int64(r.Intn(9) + 2)
		scaled := make([]Line, len(lines))
		for j, l := range lines {
			l.Quantity *= k
			scaled[j] = l
		}
		got := ComputeTotals(scaled, dppRate, taxRate).Subtotal
		want := base.Subtotal.Mul(decimal.NewFromInt(k))
		require.True(t, want.Equal(got), "k=%d: want %s, got %s", k, want, got)
	}
}
