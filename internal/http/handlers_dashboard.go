package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"lancamentos/internal/core"
	"lancamentos/internal/sheets"
)

type dashboardRow struct {
	Key    string
	Amount string
	Count  int
	Width  int
}

type dashboardPage struct {
	Empty       bool
	Total       string
	ValidCount  int
	TotalCount  int
	ByDay       []dashboardRow
	BySupplier  []dashboardRow
	TopDay      string
	TopSupplier string
}

// handleDashboard renders the per-day and per-supplier aggregations as
// scaled bars. Rows that failed to parse are excluded from every figure; the
// valid-row count makes the exclusion visible.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ledger, err := s.loadLedger(r.Context())
	if err != nil {
		s.renderLedgerError(w, r, err)
		return
	}

	byDay := core.GroupByDay(ledger.Records)
	bySupplier := core.GroupBySupplier(ledger.Records)
	total, counted := core.Sum(ledger.Records)

	page := dashboardPage{
		Empty:      len(byDay) == 0,
		Total:      formatBRL(total),
		ValidCount: counted,
		TotalCount: len(ledger.Records),
		ByDay:      makeRows(byDay),
		BySupplier: makeRows(bySupplier),
	}
	if top, ok := core.Top(byDay); ok {
		page.TopDay = top.Key + " (" + formatBRL(top.Total) + ")"
	}
	if top, ok := core.Top(bySupplier); ok {
		page.TopSupplier = top.Key + " (" + formatBRL(top.Total) + ")"
	}
	s.render(w, r, "dashboards.html", page)
}

func makeRows(buckets []core.Bucket) []dashboardRow {
	var max decimal.Decimal
	for _, b := range buckets {
		if b.Total.GreaterThan(max) {
			max = b.Total
		}
	}
	rows := make([]dashboardRow, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, dashboardRow{
			Key:    b.Key,
			Amount: formatBRL(b.Total),
			Count:  b.Count,
			Width:  barWidth(b.Total, max),
		})
	}
	return rows
}

type summaryBucket struct {
	Chave      string          `json:"chave"`
	Total      decimal.Decimal `json:"total"`
	Quantidade int             `json:"quantidade"`
}

type summaryResponse struct {
	PorDia           []summaryBucket `json:"por_dia"`
	PorFornecedor    []summaryBucket `json:"por_fornecedor"`
	TopDia           *summaryBucket  `json:"top_dia,omitempty"`
	TopFornecedor    *summaryBucket  `json:"top_fornecedor,omitempty"`
	TotalGeral       decimal.Decimal `json:"total_geral"`
	Registros        int             `json:"registros"`
	RegistrosValidos int             `json:"registros_validos"`
}

// handleSummary exposes the same aggregates as JSON for chart frontends.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ledger, err := s.loadLedger(r.Context())
	if err != nil {
		writeSummaryError(w, r, err)
		return
	}

	byDay := core.GroupByDay(ledger.Records)
	bySupplier := core.GroupBySupplier(ledger.Records)
	total, counted := core.Sum(ledger.Records)

	resp := summaryResponse{
		PorDia:           makeSummaryBuckets(byDay),
		PorFornecedor:    makeSummaryBuckets(bySupplier),
		TotalGeral:       total,
		Registros:        len(ledger.Records),
		RegistrosValidos: counted,
	}
	if top, ok := core.Top(byDay); ok {
		b := toSummaryBucket(top)
		resp.TopDia = &b
	}
	if top, ok := core.Top(bySupplier); ok {
		b := toSummaryBucket(top)
		resp.TopFornecedor = &b
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.ErrorContext(r.Context(), "Summary encode error", "error", err)
	}
}

// writeSummaryError keeps the API endpoint JSON: an unresolved schema is a
// refusal listing the found columns, anything else an internal error.
func writeSummaryError(w http.ResponseWriter, r *http.Request, err error) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	var serr *sheets.UnresolvedSchemaError
	if errors.As(err, &serr) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"erro":    "colunas de data/valor não identificadas",
			"colunas": serr.Columns,
		})
		return
	}
	slog.ErrorContext(r.Context(), "Summary load error", "error", err)
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]any{"erro": "falha ao carregar os lançamentos"})
}

func toSummaryBucket(b core.Bucket) summaryBucket {
	return summaryBucket{Chave: b.Key, Total: b.Total, Quantidade: b.Count}
}

func makeSummaryBuckets(buckets []core.Bucket) []summaryBucket {
	out := make([]summaryBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, toSummaryBucket(b))
	}
	return out
}
