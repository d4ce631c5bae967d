// Package sheets defines the ledger backend ports and the column resolver
// that maps arbitrarily named spreadsheet headers onto the canonical schema.
package sheets

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Mapping holds the resolved header names and their zero-based positions.
// Supplier is optional; SupplierIdx is -1 when no supplier column exists.
type Mapping struct {
	Date     string
	Amount   string
	Supplier string

	DateIdx     int
	AmountIdx   int
	SupplierIdx int
}

// UnresolvedSchemaError means no date or no amount column could be found.
// Callers must refuse aggregation and reporting for the dataset rather than
// guess a mapping.
type UnresolvedSchemaError struct {
	Columns []string
}

func (e *UnresolvedSchemaError) Error() string {
	return fmt.Sprintf("could not resolve date/amount columns, found: %v", e.Columns)
}

var (
	stripMarks   = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	nonAlnumRuns = regexp.MustCompile(`[^a-z0-9]+`)

	dateTokens     = []string{"data", "date"}
	issuanceTokens = []string{"emiss", "emet", "emit"}
	amountTokens   = []string{"valor", "reais", "value", "amount"}
	supplierTokens = []string{"fornec", "supplier"}
)

// Normalize lower-cases a header name, strips accents and collapses
// non-alphanumeric runs to single underscores.
func Normalize(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	if stripped, _, err := transform.String(stripMarks, s); err == nil {
		s = stripped
	}
	s = nonAlnumRuns.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

func containsAny(s string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}

// Resolve maps the given header names onto the canonical date, amount and
// supplier columns. The first pass requires a date-domain token combined
// with an issuance-domain token for the date column; if that finds nothing,
// a fallback pass accepts any column with a date-domain token alone. Amount
// and supplier have a single-token pass only.
func Resolve(columns []string) (Mapping, error) {
	m := Mapping{DateIdx: -1, AmountIdx: -1, SupplierIdx: -1}
	normalized := make([]string, len(columns))
	for i, c := range columns {
		normalized[i] = Normalize(c)
	}

	for i, n := range normalized {
		if m.DateIdx == -1 && containsAny(n, dateTokens) && containsAny(n, issuanceTokens) {
			m.Date, m.DateIdx = columns[i], i
		}
		if m.AmountIdx == -1 && containsAny(n, amountTokens) {
			m.Amount, m.AmountIdx = columns[i], i
		}
		if m.SupplierIdx == -1 && containsAny(n, supplierTokens) {
			m.Supplier, m.SupplierIdx = columns[i], i
		}
	}
	if m.DateIdx == -1 {
		for i, n := range normalized {
			if containsAny(n, dateTokens) {
				m.Date, m.DateIdx = columns[i], i
				break
			}
		}
	}

	if m.DateIdx == -1 || m.AmountIdx == -1 {
		return Mapping{}, &UnresolvedSchemaError{Columns: columns}
	}
	return m, nil
}

// IndexOf locates a column whose normalized name equals the normalized
// target, or -1. Used for the remaining canonical columns (id, description,
// account) where fuzzy matching is not wanted.
func IndexOf(columns []string, name string) int {
	want := Normalize(name)
	for i, c := range columns {
		if Normalize(c) == want {
			return i
		}
	}
	return -1
}
