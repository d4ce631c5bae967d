// Package core holds the ledger domain: the record contract, the strict
// entry-time parsers and their lenient read-side variants, and the
// grouping/aggregation helpers shared by every page.
//
// Entry-time validation enforces the canonical formats (dd/mm/yyyy dates,
// "9999,99" amounts). Read-side parsing is deliberately permissive because
// historical and foreign rows are not guaranteed to follow them.
package core

import (
	"regexp"
	"strings"
	"time"

	godate "github.com/joyt/godate"
	"github.com/shopspring/decimal"
)

// DateLayout is the canonical dd/mm/yyyy layout used across the ledger.
const DateLayout = "02/01/2006"

type (
	// Date keeps the stored text next to its parsed value. Valid=false marks
	// rows excluded from date-ordered and date-grouped output.
	Date struct {
		Raw   string
		Time  time.Time
		Valid bool
	}

	// Amount keeps the stored text next to its parsed decimal value.
	// Valid=false rows are excluded from sums and counts, never treated as
	// zero.
	Amount struct {
		Raw   string
		Value decimal.Decimal
		Valid bool
	}
)

// ParseDate parses a canonical dd/mm/yyyy date. Anything else, including
// out-of-range day or month, fails.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if !datePattern.MatchString(s) {
		return Date{Raw: s}, &ValidationError{Kind: InvalidDate, Field: ColIssueDate}
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{Raw: s}, &ValidationError{Kind: InvalidDate, Field: ColIssueDate}
	}
	return Date{Raw: s, Time: t, Valid: true}, nil
}

// LenientDate parses a date the defensive way: canonical layout first, then
// the same layout with dashes swapped for slashes, then a free-form parse as
// a last resort. Failure yields Valid=false rather than an error; callers
// exclude the row instead of aborting.
func LenientDate(s string) Date {
	trimmed := strings.TrimSpace(s)
	if d, err := ParseDate(trimmed); err == nil {
		return d
	}
	if d, err := ParseDate(strings.ReplaceAll(trimmed, "-", "/")); err == nil {
		d.Raw = trimmed
		return d
	}
	if t, err := godate.Parse(trimmed); err == nil && !t.IsZero() {
		return Date{Raw: trimmed, Time: t, Valid: true}
	}
	return Date{Raw: trimmed}
}

// String returns the canonical dd/mm/yyyy text for valid dates and the stored
// text otherwise.
func (d Date) String() string {
	if d.Valid {
		return d.Time.Format(DateLayout)
	}
	return d.Raw
}

// ParseAmount parses a canonical "<digits>,<2 digits>" amount.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if !amountPattern.MatchString(s) {
		return Amount{Raw: s}, &ValidationError{Kind: InvalidAmount, Field: ColAmount}
	}
	v, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return Amount{Raw: s}, &ValidationError{Kind: InvalidAmount, Field: ColAmount}
	}
	return Amount{Raw: s, Value: v, Valid: true}, nil
}

var amountJunk = regexp.MustCompile(`[^0-9,.\-]`)

// LenientAmount parses possibly foreign-formatted numeric text. Everything
// except digits, comma, period and minus is stripped; when both separators
// occur the period is the thousands separator, a single comma alone is the
// decimal separator, and repeated periods collapse as thousands separators.
// Failure yields Valid=false.
func LenientAmount(s string) Amount {
	raw := strings.TrimSpace(s)
	cleaned := amountJunk.ReplaceAllString(raw, "")
	if cleaned == "" {
		return Amount{Raw: raw}
	}
	commas := strings.Count(cleaned, ",")
	periods := strings.Count(cleaned, ".")
	switch {
	case commas > 0 && periods > 0:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	case commas == 1 && periods == 0:
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	case periods > 1:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
	}
	v, err := decimal.NewFromString(cleaned)
	if err != nil {
		return Amount{Raw: raw}
	}
	return Amount{Raw: raw, Value: v, Valid: true}
}

// FormatAmount renders a decimal in the canonical comma-separated entry
// format with two fractional digits.
func FormatAmount(v decimal.Decimal) string {
	return strings.ReplaceAll(v.StringFixed(2), ".", ",")
}

// String returns the canonical text for valid amounts and the stored text
// otherwise.
func (a Amount) String() string {
	if a.Valid {
		return FormatAmount(a.Value)
	}
	return a.Raw
}
