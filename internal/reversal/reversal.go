// Package reversal builds offsetting entries for posted moves. Hashed
// moves and moves in locked periods cannot be reopened or deleted, so the
// reversal is the only way to undo them.
package reversal

import (
	"context"
	"time"

	"github.com/roach88/bookkeep/internal/engine"
	"github.com/roach88/bookkeep/internal/extern"
	"github.com/roach88/bookkeep/internal/ledger"
)

// ReversedType maps a document to the type of the entry that offsets it.
func ReversedType(t ledger.MoveType) ledger.MoveType {
	switch t {
	case ledger.MoveTypeCustomerInvoice:
		return ledger.MoveTypeCustomerRefund
	case ledger.MoveTypeCustomerRefund:
		return ledger.MoveTypeCustomerInvoice
	case ledger.MoveTypeVendorBill:
		return ledger.MoveTypeVendorRefund
	case ledger.MoveTypeVendorRefund:
		return ledger.MoveTypeVendorBill
	case ledger.MoveTypeCustomerReceipt:
		return ledger.MoveTypeCustomerRefund
	case ledger.MoveTypeVendorReceipt:
		return ledger.MoveTypeVendorRefund
	default:
		return ledger.MoveTypeEntry
	}
}

// Options controls how a reversal is built.
type Options struct {
	// Date of the reversal entry; zero defaults to today.
	Date time.Time

	// Post the reversal immediately instead of leaving it in draft.
	Post bool

	// Cancel posts the reversal and reconciles it against the original,
	// leaving the pair settled with no open balance.
	Cancel bool
}

// Reverser creates reversal moves through the engine so the derived
// lines, sequencing, and locks apply as on any other entry.
type Reverser struct {
	Engine *engine.Engine

	// Reconcile settles a cancel-reversal against its original; nil
	// leaves the pair open.
	Reconcile extern.Reconciler
}

// Reverse drafts (and optionally posts) the offsetting entry of a posted
// move. Invoices flip their document type and keep quantities and prices,
// letting the sign convention of the flipped type negate every amount.
// Generic entries copy their manual lines with negated amounts. Derived
// lines are never copied; the pipeline regenerates them.
func (r *Reverser) Reverse(ctx context.Context, m *ledger.Move, opts Options) (*ledger.Move, error) {
	if m.State != ledger.StatePosted {
		return nil, &ledger.TransitionError{Move: m.DisplayName(), From: m.State, To: ledger.StateCancelled}
	}

	date := opts.Date
	if date.IsZero() {
		date = r.Engine.Clock.Today()
	}

	rev := &ledger.Move{
		UUID:            "",
		Name:            ledger.PlaceholderName,
		Ref:             "Reversal of: " + m.DisplayName(),
		State:           ledger.StateDraft,
		MoveType:        ReversedType(m.MoveType),
		JournalID:       m.JournalID,
		CompanyID:       m.CompanyID,
		PartnerID:       m.PartnerID,
		CurrencyCode:    m.CurrencyCode,
		CurrencyRate:    m.CurrencyRate,
		Date:            date,
		PaymentTermID:   m.PaymentTermID,
		CashRoundingID:  m.CashRoundingID,
		FiscalPositionID: m.FiscalPositionID,
		ReversedEntryID: m.ID,
	}
	if rev.MoveType.IsInvoice() {
		rev.InvoiceDate = date
	}

	for _, l := range m.Lines {
		if l.DisplayType.IsDerived() {
			continue
		}
		c := l.Clone()
		if rev.MoveType == ledger.MoveTypeEntry {
			c.Balance = c.Balance.Neg()
			c.AmountCurrency = c.AmountCurrency.Neg()
		}
		rev.Lines = append(rev.Lines, c)
	}

	if err := r.Engine.Edit(ctx, rev, func() error { return nil }); err != nil {
		return nil, err
	}
	if opts.Post || opts.Cancel {
		if err := r.Engine.Post(ctx, rev); err != nil {
			return nil, err
		}
	}
	if opts.Cancel {
		if err := r.reconciler().Reconcile(ctx, m, rev); err != nil {
			return nil, err
		}
	}

	r.Engine.Log.Info("move reversed",
		"move", m.DisplayName(), "reversal", rev.DisplayName(),
		"posted", opts.Post || opts.Cancel, "cancelled", opts.Cancel)
	return rev, nil
}

func (r *Reverser) reconciler() extern.Reconciler {
	if r.Reconcile != nil {
		return r.Reconcile
	}
	return extern.NoReconciliation{}
}
