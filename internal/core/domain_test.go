package core

import (
	"errors"
	"testing"
)

func validCandidate() Candidate {
	return Candidate{
		IssueDate:   "01/02/2024",
		Amount:      "1234,56",
		Supplier:    "Fornecedor A",
		Description: "Compra de material",
		Account:     "Caixa",
	}
}

func TestCandidateValidate(t *testing.T) {
	if err := validCandidate().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Candidate)
		kind   ValidationKind
	}{
		{"empty date", func(c *Candidate) { c.IssueDate = "" }, InvalidDate},
		{"iso date", func(c *Candidate) { c.IssueDate = "2024-02-01" }, InvalidDate},
		{"short day", func(c *Candidate) { c.IssueDate = "1/02/2024" }, InvalidDate},
		{"dot amount", func(c *Candidate) { c.Amount = "1234.56" }, InvalidAmount},
		{"one decimal", func(c *Candidate) { c.Amount = "1234,5" }, InvalidAmount},
		{"no decimals", func(c *Candidate) { c.Amount = "1234" }, InvalidAmount},
		{"empty supplier", func(c *Candidate) { c.Supplier = "  " }, MissingField},
		{"empty description", func(c *Candidate) { c.Description = "" }, MissingField},
		{"empty account", func(c *Candidate) { c.Account = "" }, MissingField},
	}
	for _, tc := range cases {
		c := validCandidate()
		tc.mutate(&c)
		err := c.Validate()
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%s: expected ValidationError, got %T", tc.name, err)
		}
		if verr.Kind != tc.kind {
			t.Fatalf("%s: expected kind %s, got %s", tc.name, tc.kind, verr.Kind)
		}
	}
}

func TestValidateOrderShortCircuits(t *testing.T) {
	// Both date and amount are wrong; date must win.
	c := Candidate{IssueDate: "bad", Amount: "bad"}
	var verr *ValidationError
	if err := c.Validate(); !errors.As(err, &verr) || verr.Kind != InvalidDate {
		t.Fatalf("expected InvalidDate first, got %v", err)
	}
	// Amount wrong plus missing fields; amount must win.
	c = Candidate{IssueDate: "01/01/2024", Amount: "bad"}
	if err := c.Validate(); !errors.As(err, &verr) || verr.Kind != InvalidAmount {
		t.Fatalf("expected InvalidAmount before MissingField, got %v", err)
	}
}

func TestNextID(t *testing.T) {
	empty := &Ledger{}
	if got := empty.NextID(); got != 1 {
		t.Fatalf("empty ledger: expected 1, got %d", got)
	}
	l := &Ledger{Records: []Record{{ID: 1}, {ID: 3}, {ID: 5}}}
	if got := l.NextID(); got != 6 {
		t.Fatalf("ids {1,3,5}: expected 6, got %d", got)
	}
}

func TestDatesAndFilterByDate(t *testing.T) {
	l := &Ledger{Records: []Record{
		NewRecord(1, Candidate{IssueDate: "02/01/2024", Amount: "10,00", Supplier: "A", Description: "d", Account: "c"}),
		NewRecord(2, Candidate{IssueDate: "01/01/2024", Amount: "20,00", Supplier: "B", Description: "d", Account: "c"}),
		NewRecord(3, Candidate{IssueDate: "01/01/2024", Amount: "30,00", Supplier: "C", Description: "d", Account: "c"}),
		{ID: 4, IssueDate: LenientDate("not a date"), Amount: LenientAmount("1,00")},
	}}

	dates := l.Dates()
	if len(dates) != 2 || dates[0] != "01/01/2024" || dates[1] != "02/01/2024" {
		t.Fatalf("unexpected dates: %v", dates)
	}

	day := l.FilterByDate("01/01/2024")
	if len(day) != 2 || day[0].ID != 2 || day[1].ID != 3 {
		t.Fatalf("unexpected filter result: %+v", day)
	}
}
