package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"lancamentos/internal/core"
	"lancamentos/internal/sheets"
	"lancamentos/internal/sheets/memory"
)

func newTestServer(t *testing.T, records []core.Record) (*Server, *memory.Store) {
	t.Helper()
	store := memory.New()
	store.Seed(records)
	srv := NewServer(":0", store, store, time.Minute)
	t.Cleanup(srv.rateLimiter.stop)
	return srv, store
}

// schemaErrStore always fails with an unresolved schema, as a workbook with
// an unrecognizable header would.
type schemaErrStore struct {
	columns []string
}

func (s *schemaErrStore) Load(context.Context) (core.Ledger, error) {
	return core.Ledger{}, &sheets.UnresolvedSchemaError{Columns: s.columns}
}

func (s *schemaErrStore) Append(context.Context, core.Candidate) (int64, error) {
	return 0, &sheets.UnresolvedSchemaError{Columns: s.columns}
}

func newSchemaErrServer(t *testing.T) *Server {
	t.Helper()
	store := &schemaErrStore{columns: []string{"Quantidade", "Observacao"}}
	srv := NewServer(":0", store, store, time.Minute)
	t.Cleanup(srv.rateLimiter.stop)
	return srv
}

func seedRecords(t *testing.T) []core.Record {
	t.Helper()
	candidates := []core.Candidate{
		{IssueDate: "01/02/2024", Amount: "100,00", Supplier: "A", Description: "x", Account: "c1"},
		{IssueDate: "01/02/2024", Amount: "300,00", Supplier: "B", Description: "y", Account: "c1"},
		{IssueDate: "15/01/2024", Amount: "50,00", Supplier: "A", Description: "z", Account: "c2"},
	}
	records := make([]core.Record, 0, len(candidates))
	for i, c := range candidates {
		if err := c.Validate(); err != nil {
			t.Fatalf("seed candidate %d invalid: %v", i, err)
		}
		records = append(records, core.NewRecord(int64(i+1), c))
	}
	return records
}

func postForm(srv *Server, path string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func get(srv *Server, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestIndexRendersForm(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := get(srv, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "fornecedor") {
		t.Fatalf("expected form fields in body, got: %s", rec.Body.String())
	}
}

func TestCreateRecordSuccess(t *testing.T) {
	srv, store := newTestServer(t, nil)
	rec := postForm(srv, "/lancamentos", url.Values{
		"data":       {"05/03/2024"},
		"valor":      {"123,45"},
		"fornecedor": {"Fornecedor X"},
		"descricao":  {"material"},
		"conta":      {"conta1"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Dado adicionado com sucesso.") {
		t.Fatalf("expected success message, got: %s", rec.Body.String())
	}
	ledger, err := store.Load(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(ledger.Records) != 1 || ledger.Records[0].ID != 1 {
		t.Fatalf("expected one record with id 1, got %+v", ledger.Records)
	}
}

func TestCreateRecordRejectsInvalidDate(t *testing.T) {
	srv, store := newTestServer(t, nil)
	rec := postForm(srv, "/lancamentos", url.Values{
		"data":       {"2024-03-05"},
		"valor":      {"123,45"},
		"fornecedor": {"Fornecedor X"},
		"descricao":  {"material"},
		"conta":      {"conta1"},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Data inválida. Use o formato dd/mm/aaaa.") {
		t.Fatalf("expected date error message, got: %s", rec.Body.String())
	}
	ledger, _ := store.Load(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	if len(ledger.Records) != 0 {
		t.Fatalf("store should stay empty, got %d records", len(ledger.Records))
	}
}

func TestCreateRecordRejectsInvalidAmount(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := postForm(srv, "/lancamentos", url.Values{
		"data":       {"05/03/2024"},
		"valor":      {"123.45"},
		"fornecedor": {"Fornecedor X"},
		"descricao":  {"material"},
		"conta":      {"conta1"},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Valor inválido. Use o formato 9999,99.") {
		t.Fatalf("expected amount error message, got: %s", rec.Body.String())
	}
}

func TestCreateRecordRejectsMissingField(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := postForm(srv, "/lancamentos", url.Values{
		"data":       {"05/03/2024"},
		"valor":      {"123,45"},
		"fornecedor": {""},
		"descricao":  {"material"},
		"conta":      {"conta1"},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Preencha todos os campos obrigatórios.") {
		t.Fatalf("expected missing field message, got: %s", rec.Body.String())
	}
}

func TestCreateRecordKeepsSubmittedValues(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := postForm(srv, "/lancamentos", url.Values{
		"data":       {"05/03/2024"},
		"valor":      {"nope"},
		"fornecedor": {"Fornecedor X"},
		"descricao":  {"material"},
		"conta":      {"conta1"},
	})
	if !strings.Contains(rec.Body.String(), "Fornecedor X") {
		t.Fatalf("rejected form should echo submitted values, got: %s", rec.Body.String())
	}
}

func TestCreateRecordMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := get(srv, "/lancamentos")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestReportDefaultsToFirstDate(t *testing.T) {
	srv, _ := newTestServer(t, seedRecords(t))
	rec := get(srv, "/relatorios")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	// 15/01/2024 precedes 01/02/2024 chronologically.
	if !strings.Contains(rec.Body.String(), "Relatório de Vendas do Dia 15/01/2024") {
		t.Fatalf("expected report for earliest date, got: %s", rec.Body.String())
	}
}

func TestReportFiltersBySelectedDate(t *testing.T) {
	srv, _ := newTestServer(t, seedRecords(t))
	rec := get(srv, "/relatorios?data=01/02/2024")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Relatório de Vendas do Dia 01/02/2024") {
		t.Fatalf("expected selected date heading, got: %s", body)
	}
	if strings.Contains(body, "<td>50,00</td>") {
		t.Fatalf("record from another date leaked into report: %s", body)
	}
}

func TestReportCSVExport(t *testing.T) {
	srv, _ := newTestServer(t, seedRecords(t))
	rec := get(srv, "/relatorios/export?data=01/02/2024")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("expected text/csv content type, got %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "relatorio_vendas_01-02-2024.csv") {
		t.Fatalf("unexpected content disposition %q", cd)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "id_venda,data_emissao,valor,fornecedor,descricao,conta") {
		t.Fatalf("expected canonical header row, got: %s", body)
	}
	if !strings.Contains(body, "01/02/2024") || strings.Contains(body, "15/01/2024") {
		t.Fatalf("export not filtered by date: %s", body)
	}
}

func TestSummaryJSON(t *testing.T) {
	srv, _ := newTestServer(t, seedRecords(t))
	rec := get(srv, "/api/resumo")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("expected JSON content type, got %q", ct)
	}

	var resp summaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if resp.TotalGeral.StringFixed(2) != "450.00" {
		t.Fatalf("expected total 450.00, got %s", resp.TotalGeral)
	}
	if resp.Registros != 3 || resp.RegistrosValidos != 3 {
		t.Fatalf("expected 3 records all valid, got %d/%d", resp.RegistrosValidos, resp.Registros)
	}
	if len(resp.PorDia) != 2 || resp.PorDia[0].Chave != "15/01/2024" {
		t.Fatalf("expected chronological day buckets, got %+v", resp.PorDia)
	}
	if resp.TopFornecedor == nil || resp.TopFornecedor.Chave != "B" {
		t.Fatalf("expected top supplier B, got %+v", resp.TopFornecedor)
	}
	if resp.TopDia == nil || resp.TopDia.Chave != "01/02/2024" {
		t.Fatalf("expected top day 01/02/2024, got %+v", resp.TopDia)
	}
}

func TestDashboardRendersAggregates(t *testing.T) {
	srv, _ := newTestServer(t, seedRecords(t))
	rec := get(srv, "/dashboards")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Maior fornecedor:") || !strings.Contains(body, "B (") {
		t.Fatalf("expected top supplier in dashboard, got: %s", body)
	}
}

func TestDashboardEmptyLedger(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := get(srv, "/dashboards")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Nenhum dado válido") {
		t.Fatalf("expected empty state message, got: %s", rec.Body.String())
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := get(srv, "/")
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected nosniff header, got %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("expected frame deny header, got %q", got)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	for _, path := range []string{"/healthz", "/readyz"} {
		if rec := get(srv, path); rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestUnknownPathIs404(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	if rec := get(srv, "/nada"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestReportRefusesUnresolvedSchema(t *testing.T) {
	srv := newSchemaErrServer(t)
	rec := get(srv, "/relatorios")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Colunas não identificadas") {
		t.Fatalf("expected refusal page, got: %s", body)
	}
	if !strings.Contains(body, "Quantidade") || !strings.Contains(body, "Observacao") {
		t.Fatalf("expected found columns listed, got: %s", body)
	}
}

func TestSummaryRefusesUnresolvedSchema(t *testing.T) {
	srv := newSchemaErrServer(t)
	rec := get(srv, "/api/resumo")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var resp struct {
		Erro    string   `json:"erro"`
		Colunas []string `json:"colunas"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode refusal: %v", err)
	}
	if resp.Erro == "" || len(resp.Colunas) != 2 {
		t.Fatalf("expected error with found columns, got %+v", resp)
	}
}

func TestCreateRecordRefusesUnresolvedSchema(t *testing.T) {
	srv := newSchemaErrServer(t)
	rec := postForm(srv, "/lancamentos", url.Values{
		"data":       {"05/03/2024"},
		"valor":      {"123,45"},
		"fornecedor": {"Fornecedor X"},
		"descricao":  {"material"},
		"conta":      {"conta1"},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Colunas não identificadas") {
		t.Fatalf("expected refusal page on write path, got: %s", rec.Body.String())
	}
}

func TestRateLimiterEvictsStaleClients(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()

	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		if !rl.allow(ip) {
			t.Fatalf("first request from %s must be allowed", ip)
		}
	}
	rl.mu.Lock()
	rl.clients["10.0.0.1"].lastRequest = time.Now().Add(-11 * time.Minute)
	rl.clients["10.0.0.2"].lastRequest = time.Now().Add(-11 * time.Minute)
	rl.mu.Unlock()

	rl.cleanupStaleEntries()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if len(rl.clients) != 1 {
		t.Fatalf("expected stale entries evicted, %d left", len(rl.clients))
	}
	if _, ok := rl.clients["10.0.0.3"]; !ok {
		t.Fatal("fresh entry must survive cleanup")
	}
}

// failingResponseWriter refuses every body write, as a closed client
// connection does.
type failingResponseWriter struct {
	header http.Header
	status int
}

func (f *failingResponseWriter) Header() http.Header { return f.header }

func (f *failingResponseWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func (f *failingResponseWriter) WriteHeader(code int) { f.status = code }

func TestReportCSVLogsTruncatedDownload(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	defer slog.SetDefault(prev)

	srv, _ := newTestServer(t, seedRecords(t))
	req := httptest.NewRequest(http.MethodGet, "/relatorios/export", nil)
	srv.Server.Handler.ServeHTTP(&failingResponseWriter{header: http.Header{}}, req)

	if !strings.Contains(logs.String(), "CSV export truncated") {
		t.Fatalf("expected truncated export logged, got: %s", logs.String())
	}
}
