package sequence

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/bookkeep/internal/ledger"
)

// Series selects a journal numbering sub-series. When the journal keeps
// a dedicated refund sequence the refund and non-refund moves number
// independently; otherwise they share one series and Split is false.
type Series struct {
	JournalID int64
	Split     bool
	Refund    bool
}

// Store is the slice of persistence the allocator needs. The
// implementation must evaluate both queries inside the caller's
// transaction so allocation stays serializable with the posted-name
// unique index.
type Store interface {
	// LatestPostedName returns the most recent real name posted in the
	// sub-series, or "" when the journal has never posted.
	LatestPostedName(ctx context.Context, series Series) (string, error)

	// MaxNameInPeriod returns the name with the highest sequence number
	// in the sub-series whose name starts with prefix and whose date
	// falls inside [start, end], or "" when the period is empty.
	MaxNameInPeriod(ctx context.Context, series Series, prefix string, start, end time.Time) (string, error)
}

// Generator allocates move names. Collision recovery lives in the
// posting engine: a unique-index violation re-runs AssignName once
// against the fresh store state.
type Generator struct {
	Registry *ledger.Registry
	Store    Store
}

// AssignName gives the move its sequence name, prefix, and number.
// Moves that already carry a real name only get their prefix and number
// re-derived.
func (g *Generator) AssignName(ctx context.Context, m *ledger.Move) error {
	if m.HasRealName() {
		m.SequencePrefix, m.SequenceNumber = SplitSequence(m.Name)
		return nil
	}

	journal := g.Registry.Journals[m.JournalID]
	if journal == nil {
		return &ledger.MissingConfigError{What: "journal", Where: "move " + m.DisplayName()}
	}
	company := g.Registry.Companies[m.CompanyID]

	series := Series{
		JournalID: journal.ID,
		Split:     journal.RefundSequence,
		Refund:    m.MoveType.IsRefund(),
	}
	refund := journal.RefundSequence && m.MoveType.IsRefund()
	payment := journal.PaymentSequence && (journal.Type == ledger.JournalBank || journal.Type == ledger.JournalCash)

	template := journal.SequenceOverride
	if template == "" {
		latest, err := g.Store.LatestPostedName(ctx, series)
		if err != nil {
			return fmt.Errorf("assign name: %w", err)
		}
		template = latest
	}
	if template == "" {
		template = startingName(journal, m, refund, payment)
	}

	parsed, ok := Parse(template)
	if !ok {
		return fmt.Errorf("assign name: journal %s template %q does not match any sequence shape", journal.Code, template)
	}

	reset := DeduceReset(template, company)
	start, end := PeriodFor(reset, m.Date, company)

	// The prefix the new name will carry, with date fields taken from
	// the move's accounting date.
	current := parsed
	current.Year = m.Date.Year()
	current.Month = int(m.Date.Month())
	prefix := current.SequencePrefix()

	last, err := g.Store.MaxNameInPeriod(ctx, series, prefix, start, end)
	if err != nil {
		return fmt.Errorf("assign name: %w", err)
	}

	next := 1
	if last != "" {
		lastParsed, ok := Parse(last)
		if !ok {
			return fmt.Errorf("assign name: stored name %q does not parse", last)
		}
		next = lastParsed.Seq + 1
		current.SeqLen = lastParsed.SeqLen
	}

	m.Name = current.Format(next, m.Date)
	m.SequencePrefix, m.SequenceNumber = SplitSequence(m.Name)
	return nil
}

// startingName builds the first-ever name of a journal sub-series, e.g.
// "INV/2026/00000" (the zero formats, allocation then yields 00001).
// Refund sub-series take an "R" prefix, payment sub-series a "P".
func startingName(journal *ledger.Journal, m *ledger.Move, refund, payment bool) string {
	code := journal.Code
	if refund {
		code = "R" + code
	}
	if payment {
		code = "P" + code
	}
	if journal.Type == ledger.JournalSale || journal.Type == ledger.JournalPurchase {
		return fmt.Sprintf("%s/%04d/%02d/0000", code, m.Date.Year(), int(m.Date.Month()))
	}
	return fmt.Sprintf("%s/%04d/00000", code, m.Date.Year())
}
