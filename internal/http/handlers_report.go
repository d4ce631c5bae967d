package http

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"lancamentos/internal/core"
)

type basePage struct {
	Records []recordView
	Count   int
}

func (s *Server) handleBase(w http.ResponseWriter, r *http.Request) {
	ledger, err := s.loadLedger(r.Context())
	if err != nil {
		s.renderLedgerError(w, r, err)
		return
	}
	s.render(w, r, "base_dados.html", basePage{
		Records: makeViews(ledger.Records),
		Count:   len(ledger.Records),
	})
}

type reportPage struct {
	Dates    []string
	Selected string
	Records  []recordView
	Count    int
	Total    string
	Empty    bool
}

// handleReport narrows the ledger to one issue date and sums it. The count
// and total reflect only rows whose amount parsed; excluded rows never abort
// the report.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	ledger, err := s.loadLedger(r.Context())
	if err != nil {
		s.renderLedgerError(w, r, err)
		return
	}

	dates := ledger.Dates()
	page := reportPage{Dates: dates}
	if len(dates) == 0 {
		page.Empty = true
		s.render(w, r, "relatorios.html", page)
		return
	}

	page.Selected = strings.TrimSpace(r.URL.Query().Get("data"))
	if page.Selected == "" {
		page.Selected = dates[0]
	}

	filtered := ledger.FilterByDate(page.Selected)
	total, counted := core.Sum(filtered)
	page.Records = makeViews(filtered)
	page.Count = counted
	page.Total = formatBRL(total)
	s.render(w, r, "relatorios.html", page)
}

// handleReportCSV streams the filtered record set as a plain delimited blob
// for download/printing.
func (s *Server) handleReportCSV(w http.ResponseWriter, r *http.Request) {
	ledger, err := s.loadLedger(r.Context())
	if err != nil {
		s.renderLedgerError(w, r, err)
		return
	}

	selected := strings.TrimSpace(r.URL.Query().Get("data"))
	records := ledger.Records
	name := "relatorio_vendas.csv"
	if selected != "" {
		records = ledger.FilterByDate(selected)
		name = fmt.Sprintf("relatorio_vendas_%s.csv", strings.ReplaceAll(selected, "/", "-"))
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))

	cw := csv.NewWriter(w)
	_ = cw.Write(core.Header())
	for _, rec := range records {
		_ = cw.Write([]string{
			fmt.Sprintf("%d", rec.ID),
			rec.IssueDate.Raw,
			rec.Amount.Raw,
			rec.Supplier,
			rec.Description,
			rec.Account,
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		slog.ErrorContext(r.Context(), "CSV export truncated",
			"error", err, "rows", len(records), "date", selected)
	}
}
