package http

import (
	"errors"
	"log/slog"
	"net/http"

	"lancamentos/internal/core"
	"lancamentos/internal/sheets"
)

// formPage feeds index.html: the submitted values are echoed back so a
// rejected form keeps what the user typed.
type formPage struct {
	Values  core.Candidate
	Error   string
	Success string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.render(w, r, "index.html", formPage{})
}

// handleCreateRecord gates a submission through the validator, appends it and
// re-renders the form with the outcome. Nothing touches the store before the
// candidate passes validation.
func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "url", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		s.render(w, r, "index.html", formPage{Error: "Formato de requisição inválido."})
		return
	}

	candidate := core.Candidate{
		IssueDate:   sanitizeInput(r.Form.Get("data")),
		Amount:      sanitizeInput(r.Form.Get("valor")),
		Supplier:    sanitizeInput(r.Form.Get("fornecedor")),
		Description: sanitizeInput(r.Form.Get("descricao")),
		Account:     sanitizeInput(r.Form.Get("conta")),
	}

	if err := candidate.Validate(); err != nil {
		var verr *core.ValidationError
		msg := "Dados inválidos."
		if errors.As(err, &verr) {
			validationRejectionsTotal.WithLabelValues(string(verr.Kind)).Inc()
			switch verr.Kind {
			case core.InvalidDate:
				msg = "Data inválida. Use o formato dd/mm/aaaa."
			case core.InvalidAmount:
				msg = "Valor inválido. Use o formato 9999,99."
			case core.MissingField:
				msg = "Preencha todos os campos obrigatórios."
			}
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.render(w, r, "index.html", formPage{Values: candidate, Error: msg})
		return
	}

	id, err := s.appender.Append(r.Context(), candidate)
	if err != nil {
		var serr *sheets.UnresolvedSchemaError
		if errors.As(err, &serr) {
			s.renderLedgerError(w, r, err)
			return
		}
		slog.ErrorContext(r.Context(), "Record append error",
			"error", err, "supplier", candidate.Supplier, "issue_date", candidate.IssueDate)
		w.WriteHeader(http.StatusInternalServerError)
		s.render(w, r, "index.html", formPage{Values: candidate, Error: "Erro ao adicionar os dados."})
		return
	}

	s.ledgerCache.Invalidate()
	recordsAppendedTotal.Inc()
	slog.InfoContext(r.Context(), "Record created",
		"record_id", id, "issue_date", candidate.IssueDate, "supplier", candidate.Supplier)
	s.render(w, r, "index.html", formPage{Success: "Dado adicionado com sucesso."})
}
