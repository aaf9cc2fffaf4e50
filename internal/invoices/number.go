package invoices

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var numberPattern = regexp.MustCompile(`^\d{3}/(I|II|III|IV|V|VI|VII|VIII|IX|X|XI|XII)/\d{4}$`)

var romanMonths = [...]string{"I", "II", "III", "IV", "V", "VI", "VII", "VIII", "IX", "X", "XI", "XII"}

const maxSequence = 999

// ValidNumber reports whether s has the NNN/ROMAN/YYYY shape, e.g. 031/XII/2023.
func ValidNumber(s string) bool {
	return numberPattern.MatchString(s)
}

// RomanMonth returns the roman numeral for m.
func RomanMonth(m time.Month) string {
	return romanMonths[m-1]
}

// FormatNumber builds an invoice number for a sequence within date's month.
func FormatNumber(seq int, date time.Time) string {
	return fmt.Sprintf("%03d/%s/%d", seq, RomanMonth(date.Month()), date.Year())
}

// Sequence extracts the leading sequence of an invoice number.
func Sequence(number string) (int, bool) {
	head, _, _ := strings.Cut(number, "/")
	seq, err := strconv.Atoi(head)
	if err != nil {
		return 0, false
	}
	return seq, true
}

// NextNumber returns the number following the highest sequence among the
// numbers already issued in date's month.
func NextNumber(date time.Time, issued []string) (string, error) {
	highest := 0
	for _, n := range issued {
		if seq, ok := Sequence(n); ok && seq > highest {
			highest = seq
		}
	}
	if highest >= maxSequence {
		return "", ErrSequenceExhausted
	}
	return FormatNumber(highest+1, date), nil
}

// MonthBounds returns [first day of month, first day of next month).
func MonthBounds(date time.Time) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
