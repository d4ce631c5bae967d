package core

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Canonical ledger columns, in file order.
const (
	ColID          = "id_venda"
	ColIssueDate   = "data_emissao"
	ColAmount      = "valor"
	ColSupplier    = "fornecedor"
	ColDescription = "descricao"
	ColAccount     = "conta"
)

// Header returns the canonical header row written on every save.
func Header() []string {
	return []string{ColID, ColIssueDate, ColAmount, ColSupplier, ColDescription, ColAccount}
}

var (
	datePattern   = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
	amountPattern = regexp.MustCompile(`^\d{1,20},\d{2}$`)
)

type ValidationKind string

const (
	InvalidDate   ValidationKind = "invalid_date"
	InvalidAmount ValidationKind = "invalid_amount"
	MissingField  ValidationKind = "missing_field"
)

// ValidationError reports the first rule a candidate violated.
type ValidationError struct {
	Kind  ValidationKind
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s (%s)", e.Kind, e.Field)
}

type (
	// Candidate holds the raw text fields of a submission, before any
	// normalization or id assignment.
	Candidate struct {
		IssueDate   string
		Amount      string
		Supplier    string
		Description string
		Account     string
	}

	// Record is one persisted ledger entry. IssueDate and Amount carry both
	// the stored text and the parsed value; rows loaded from legacy or
	// foreign files may be Valid=false and are excluded from date-keyed and
	// summed output, never dropped from the ledger itself.
	Record struct {
		ID          int64
		IssueDate   Date
		Amount      Amount
		Supplier    string
		Description string
		Account     string
	}

	// Ledger is the ordered collection of all persisted records.
	Ledger struct {
		Records []Record
	}
)

// Validate checks the entry contract in order, short-circuiting on the first
// failure: date format, then amount format, then required fields.
func (c Candidate) Validate() error {
	if !datePattern.MatchString(strings.TrimSpace(c.IssueDate)) {
		return &ValidationError{Kind: InvalidDate, Field: ColIssueDate}
	}
	if !amountPattern.MatchString(strings.TrimSpace(c.Amount)) {
		return &ValidationError{Kind: InvalidAmount, Field: ColAmount}
	}
	for _, f := range []struct{ name, value string }{
		{ColSupplier, c.Supplier},
		{ColDescription, c.Description},
		{ColAccount, c.Account},
	} {
		if strings.TrimSpace(f.value) == "" {
			return &ValidationError{Kind: MissingField, Field: f.name}
		}
	}
	return nil
}

// NewRecord builds a typed record from a validated candidate. The candidate
// passed Validate, so the strict parsers cannot fail here; both keep the
// canonical text as Raw.
func NewRecord(id int64, c Candidate) Record {
	d, _ := ParseDate(c.IssueDate)
	a, _ := ParseAmount(c.Amount)
	return Record{
		ID:          id,
		IssueDate:   d,
		Amount:      a,
		Supplier:    strings.TrimSpace(c.Supplier),
		Description: strings.TrimSpace(c.Description),
		Account:     strings.TrimSpace(c.Account),
	}
}

// NextID returns max(existing ids)+1, or 1 for an empty ledger. Ids are never
// reused even when the sequence has gaps.
func (l *Ledger) NextID() int64 {
	var max int64
	for _, r := range l.Records {
		if r.ID > max {
			max = r.ID
		}
	}
	return max + 1
}

// Dates returns the distinct canonical issue dates in chronological order.
// Records whose date never parsed are left out.
func (l *Ledger) Dates() []string {
	seen := map[string]Date{}
	for _, r := range l.Records {
		if !r.IssueDate.Valid {
			continue
		}
		key := r.IssueDate.String()
		if _, ok := seen[key]; !ok {
			seen[key] = r.IssueDate
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		return seen[out[i]].Time.Before(seen[out[j]].Time)
	})
	return out
}

// FilterByDate returns the records whose canonical date equals the given
// dd/mm/yyyy string, preserving ledger order.
func (l *Ledger) FilterByDate(date string) []Record {
	var out []Record
	for _, r := range l.Records {
		if r.IssueDate.Valid && r.IssueDate.String() == date {
			out = append(out, r)
		}
	}
	return out
}
