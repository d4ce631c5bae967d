package sheets

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Data Emissão", "data_emissao"},
		{"Valor em reais:", "valor_em_reais"},
		{"  FORNECEDOR  ", "fornecedor"},
		{"id_venda", "id_venda"},
		{"Descrição!!", "descricao"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Fatalf("%q: expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestResolveCombinedPass(t *testing.T) {
	m, err := Resolve([]string{"Data emetida", "Valor em reais:", "Fornecedor"})
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if m.Date != "Data emetida" || m.Amount != "Valor em reais:" || m.Supplier != "Fornecedor" {
		t.Fatalf("unexpected mapping: %+v", m)
	}
	if m.DateIdx != 0 || m.AmountIdx != 1 || m.SupplierIdx != 2 {
		t.Fatalf("unexpected indices: %+v", m)
	}
}

func TestResolveCanonicalHeader(t *testing.T) {
	m, err := Resolve([]string{"id_venda", "data_emissao", "valor", "fornecedor", "descricao", "conta"})
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if m.DateIdx != 1 || m.AmountIdx != 2 || m.SupplierIdx != 3 {
		t.Fatalf("unexpected indices: %+v", m)
	}
}

func TestResolveDateFallback(t *testing.T) {
	// No issuance token anywhere: the single-token fallback must pick the
	// first date-ish column.
	m, err := Resolve([]string{"Data", "Amount"})
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if m.Date != "Data" || m.Amount != "Amount" || m.SupplierIdx != -1 {
		t.Fatalf("unexpected mapping: %+v", m)
	}
}

func TestResolveFirstMatchWins(t *testing.T) {
	m, err := Resolve([]string{"Data de emissão", "Outra data emitida", "valor", "valor extra"})
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if m.DateIdx != 0 || m.AmountIdx != 2 {
		t.Fatalf("expected first matches, got %+v", m)
	}
}

func TestResolveUnresolved(t *testing.T) {
	cols := []string{"Data emissao", "Quantidade", "Fornecedor"}
	_, err := Resolve(cols)
	var serr *UnresolvedSchemaError
	if !errors.As(err, &serr) {
		t.Fatalf("expected UnresolvedSchemaError, got %v", err)
	}
	if len(serr.Columns) != 3 || serr.Columns[0] != "Data emissao" {
		t.Fatalf("expected found columns echoed back, got %v", serr.Columns)
	}

	if _, err := Resolve([]string{"Quantidade", "Valor"}); err == nil {
		t.Fatal("expected error when no date column exists")
	}
}

func TestIndexOf(t *testing.T) {
	cols := []string{"ID_Venda", "Data Emissão", "Valor", "Fornecedor", "Descrição", "Conta"}
	if got := IndexOf(cols, "id_venda"); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if got := IndexOf(cols, "descricao"); got != 4 {
		t.Fatalf("expected 4, got %d", got)
	}
	if got := IndexOf(cols, "inexistente"); got != -1 {
		t.Fatalf("expected -1, got %d", got)
	}
}
