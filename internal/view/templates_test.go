package view

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine()
	assert.NoError(t, err, "Templates should parse without error")
	assert.NotNil(t, engine)
}

func TestRenderUnknownTemplate(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)
	_, err = engine.Render("missing.html", nil)
	assert.Error(t, err)

	var nilEngine *Engine
	_, err = nilEngine.Render("invoice.html", nil)
	assert.Error(t, err)
}

func TestFormatRupiah(t *testing.T) {
	assert.Equal(t, "Rp 1.000,00", FormatRupiah(decimal.NewFromInt(1000)))
	assert.Equal(t, "Rp 11.100,00", FormatRupiah(decimal.NewFromInt(11100)))
	assert.Equal(t, "Rp 1.234.567,50", FormatRupiah(decimal.RequireFromString("1234567.5")))
	assert.Equal(t, "Rp 0,00", FormatRupiah(decimal.Zero))
}

func TestLongDate(t *testing.T) {
	assert.Equal(t, "05 Desember 2023", LongDate(time.Date(2023, time.December, 5, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "", LongDate(time.Time{}))
}

func TestTerbilang(t *testing.T) {
	cases := map[int64]string{
		0:             "nol rupiah",
		1:             "satu rupiah",
		11:            "sebelas rupiah",
		12:            "dua belas rupiah",
		20:            "dua puluh rupiah",
		100:           "seratus rupiah",
		115:           "seratus lima belas rupiah",
		1000:          "seribu rupiah",
		1500:          "seribu lima ratus rupiah",
		11100:         "sebelas ribu seratus rupiah",
		250000:        "dua ratus lima puluh ribu rupiah",
		1000000:       "satu juta rupiah",
		2500000000:    "dua milyar lima ratus juta rupiah",
		1000000000000: "satu trilyun rupiah",
	}
	for n, want := range cases {
		assert.Equal(t, want, Terbilang(n), n)
	}
}

func TestTerbilangExtremes(t *testing.T) {
	assert.Equal(t, "minus seribu lima ratus rupiah", Terbilang(-1500))
	assert.Equal(t,
		"minus sembilan juta dua ratus dua puluh tiga ribu tiga ratus tujuh puluh dua trilyun "+
			"tiga puluh enam milyar delapan ratus lima puluh empat juta tujuh ratus tujuh puluh lima ribu "+
			"delapan ratus delapan rupiah",
		Terbilang(math.MinInt64))
	assert.True(t, strings.HasSuffix(Terbilang(math.MaxInt64), "delapan ratus tujuh rupiah"))
}
