package http

import (
	"strings"

	"github.com/shopspring/decimal"

	"lancamentos/internal/core"
)

// recordView is a record flattened to display strings; templates never see
// raw ledger text or decimals.
type recordView struct {
	ID          int64
	IssueDate   string
	Amount      string
	Supplier    string
	Description string
	Account     string
}

func makeViews(records []core.Record) []recordView {
	views := make([]recordView, 0, len(records))
	for _, r := range records {
		views = append(views, recordView{
			ID:          r.ID,
			IssueDate:   r.IssueDate.String(),
			Amount:      r.Amount.String(),
			Supplier:    r.Supplier,
			Description: r.Description,
			Account:     r.Account,
		})
	}
	return views
}

// sanitizeInput removes control characters (except tab, newline, carriage
// return) and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// formatBRL renders a decimal as currency for display only: period as
// thousands separator, comma as decimal separator. Stored and aggregated
// values stay plain decimals.
func formatBRL(v decimal.Decimal) string {
	s := v.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	parts := strings.SplitN(s, ".", 2)
	intPart, frac := parts[0], parts[1]

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	out := "R$ " + b.String() + "," + frac
	if neg {
		return "-" + out
	}
	return out
}

// barWidth converts a bucket total into a rounded percent of the largest
// bucket, clamped so tiny values stay visible.
func barWidth(total, max decimal.Decimal) int {
	if max.IsZero() || !total.IsPositive() {
		return 0
	}
	width := int(total.Mul(decimal.NewFromInt(100)).Div(max).Round(0).IntPart())
	if width > 0 && width < 2 {
		width = 2
	}
	if width > 100 {
		width = 100
	}
	return width
}
