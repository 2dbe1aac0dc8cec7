// Package syncer keeps a move's derived lines synchronized with its
// primary lines: taxes, early-payment-discount bases, discount
// allocations, cash rounding, payment-term installments, and the
// auto-balance line. The pipeline runs the synchronizers in a fixed
// order inside a scoped section and the balance checker enforces the
// double-entry invariant at commit.
package syncer

import (
	"log/slog"

	"github.com/roach88/bookkeep/internal/extern"
	"github.com/roach88/bookkeep/internal/ledger"
	"github.com/roach88/bookkeep/internal/tracker"
)

// Pipeline drives the synchronizers. One Pipeline serves one logical
// transaction; the reentrancy counter is transaction state, not process
// state, so concurrent transactions each get their own Pipeline.
type Pipeline struct {
	Registry *ledger.Registry
	Taxes    extern.TaxComputer
	Terms    extern.TermComputer
	Suggest  extern.AccountSuggester
	Log      *slog.Logger

	// depth short-circuits nested sync scopes: only the outermost
	// invocation runs the synchronizers.
	depth int
}

// New builds a pipeline with the default collaborators.
func New(reg *ledger.Registry) *Pipeline {
	return &Pipeline{
		Registry: reg,
		Taxes:    extern.FlatTaxComputer{},
		Terms:    extern.PercentTermComputer{},
		Suggest:  extern.NoSuggestion{},
		Log:      slog.Default(),
	}
}

// SyncDynamicLines runs mutate inside a dynamic-lines scope. Change
// tracking opens before the mutation and the synchronizers run after it,
// strictly ordered. Nested invocations run their mutation only; the
// outermost scope owns the recomputation.
func (p *Pipeline) SyncDynamicLines(m *ledger.Move, mutate func() error) error {
	if p.depth > 0 {
		p.depth++
		defer func() { p.depth-- }()
		return mutate()
	}

	trk := tracker.New(tracker.DefaultMoveFields, tracker.DefaultLineFields)
	trk.Before(m)

	p.depth++
	err := mutate()
	p.depth--
	if err != nil {
		return err
	}

	trk.After(m)
	return p.run(m, trk)
}

// Resync recomputes every derived line without a user mutation, e.g.
// after loading a draft from the store.
func (p *Pipeline) Resync(m *ledger.Move) error {
	return p.SyncDynamicLines(m, func() error { return nil })
}

// run executes the synchronizers in pipeline order.
func (p *Pipeline) run(m *ledger.Move, trk *tracker.Tracker) error {
	preserve := p.preserveTaxAmounts(m, trk)

	p.seedQuickEdit(m)

	// First tax pass over product lines patches their tags, subtotals,
	// and balances; the EPD synchronizer then derives its base pairs
	// from the patched subtotals and the second pass folds them in.
	if err := p.syncTaxLines(m, preserve); err != nil {
		return err
	}
	if p.syncEPD(m) {
		if err := p.syncTaxLines(m, preserve); err != nil {
			return err
		}
	}

	p.correctQuickEdit(m)
	p.syncDiscountAllocation(m)

	if err := p.syncCashRounding(m); err != nil {
		return err
	}
	if err := p.syncPaymentTerms(m); err != nil {
		return err
	}
	p.propagateDueDate(m)
	p.syncAutoBalance(m)

	return nil
}

// preserveTaxAmounts decides whether manually adjusted tax amounts in
// document currency must survive this recomputation. A draft whose rate
// context moved (currency rate or invoice date) keeps its tax
// amount_currency values; only company balances follow the new rate.
func (p *Pipeline) preserveTaxAmounts(m *ledger.Move, trk *tracker.Tracker) bool {
	if m.State != ledger.StateDraft {
		return false
	}
	if len(m.LinesOf(ledger.DisplayTax)) == 0 {
		return false
	}
	return trk.MoveFieldChanged(tracker.FieldCurrencyRate, tracker.FieldInvoiceDate) &&
		!trk.LineFieldChanged(
			tracker.FieldLinePrice, tracker.FieldLineQuantity,
			tracker.FieldLineDiscount, tracker.FieldLineTaxes,
		)
}

// propagateDueDate sets the move's due date to the latest maturity among
// its payment-term lines.
func (p *Pipeline) propagateDueDate(m *ledger.Move) {
	terms := m.LinesOf(ledger.DisplayPaymentTerm)
	if len(terms) == 0 {
		return
	}
	due := terms[0].DateMaturity
	for _, l := range terms[1:] {
		if l.DateMaturity.After(due) {
			due = l.DateMaturity
		}
	}
	m.DueDate = due
}
