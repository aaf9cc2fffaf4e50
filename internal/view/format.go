package view

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.Indonesian)

var monthNames = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// FormatRupiah renders an amount the way Indonesian invoices print it,
// e.g. "Rp 1.000,00".
func FormatRupiah(amount decimal.Decimal) string {
	f, _ := amount.Round(2).Float64()
	return "Rp " + printer.Sprint(number.Decimal(f, number.Scale(2)))
}

// LongDate renders t as "05 Desember 2023".
func LongDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02") + " " + monthNames[t.Month()-1] + " " + t.Format("2006")
}

var smallNumbers = [...]string{
	"", "satu", "dua", "tiga", "empat", "lima", "enam",
	"tujuh", "delapan", "sembilan", "sepuluh", "sebelas",
}

// Terbilang spells out a whole Rupiah amount in Indonesian words.
func Terbilang(n int64) string {
	switch {
	case n == 0:
		return "nol rupiah"
	case n < 0:
		// -(n+1) cannot overflow, math.MinInt64 included.
		return "minus " + words(uint64(-(n+1))+1) + " rupiah"
	}
	return words(uint64(n)) + " rupiah"
}

func words(x uint64) string {
	var out string
	switch {
	case x < 12:
		out = smallNumbers[x]
	case x < 20:
		out = words(x-10) + " belas"
	case x < 100:
		out = words(x/10) + " puluh " + words(x%10)
	case x < 200:
		out = "seratus " + words(x-100)
	case x < 1000:
		out = words(x/100) + " ratus " + words(x%100)
	case x < 2000:
		out = "seribu " + words(x-1000)
	case x < 1_000_000:
		out = words(x/1000) + " ribu " + words(x%1000)
	case x < 1_000_000_000:
		out = words(x/1_000_000) + " juta " + words(x%1_000_000)
	case x < 1_000_000_000_000:
		out = words(x/1_000_000_000) + " milyar " + words(x%1_000_000_000)
	default:
		out = words(x/1_000_000_000_000) + " trilyun " + words(x%1_000_000_000_000)
	}
	return strings.Join(strings.Fields(out), " ")
}
