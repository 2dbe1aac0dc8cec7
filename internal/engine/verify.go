package engine

import (
	"context"

	"github.com/roach88/bookkeep/internal/chain"
	"github.com/roach88/bookkeep/internal/ledger"
)

// ChainReport summarizes a journal's hash-chain verification.
type ChainReport struct {
	Journal string
	Checked int

	// BadMove names the first corrupted entry; "" when the chain is
	// intact. Detail carries the mismatch description.
	BadMove string
	Detail  string
}

// Intact reports whether every stored hash recomputed cleanly.
func (r *ChainReport) Intact() bool { return r.BadMove == "" }

// VerifyChain recomputes every stored hash of a journal in sequence
// order and reports the first mismatch, if any.
func (e *Engine) VerifyChain(ctx context.Context, journalID int64) (*ChainReport, error) {
	journal := e.Registry.Journals[journalID]
	if journal == nil {
		return nil, &ledger.MissingConfigError{What: "journal", Where: "registry"}
	}
	moves, err := e.Store.Conn().ListHashed(ctx, journalID)
	if err != nil {
		return nil, err
	}

	report := &ChainReport{Journal: journal.Code, Checked: len(moves)}
	idx, verr := chain.Verify(moves, e.Registry, "")
	if idx >= 0 {
		report.BadMove = moves[idx].DisplayName()
		if verr != nil {
			report.Detail = verr.Error()
		}
	}
	return report, nil
}
