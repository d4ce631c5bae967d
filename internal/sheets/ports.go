package sheets

import (
	"context"

	"lancamentos/internal/core"
)

// Ports for the ledger backends. Callers never touch the backing file
// directly; these two interfaces are the only mutation surface.
type (
	// LedgerReader loads the whole ledger into memory. A missing backing
	// file yields an empty ledger, not an error.
	LedgerReader interface {
		Load(ctx context.Context) (core.Ledger, error)
	}

	// LedgerAppender validates nothing beyond the entry contract already
	// enforced upstream; it assigns the next sequential id, appends and
	// persists, returning the assigned id.
	LedgerAppender interface {
		Append(ctx context.Context, c core.Candidate) (int64, error)
	}
)
