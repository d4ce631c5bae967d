package backend

import (
	"context"

	"lancamentos/internal/sheets"
)

// Backend is the full ledger surface a page needs: load for the read side,
// append for the entry form.
type Backend interface {
	sheets.LedgerReader
	sheets.LedgerAppender
}

// Result bundles a backend with its optional cleanup function.
type Result struct {
	Backend Backend
	Cleanup func() error
}

// Factory creates backends from configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}
