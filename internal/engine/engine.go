// Package engine orchestrates the move lifecycle: validation, sequence
// allocation, posting, hash chaining, and the write guards protecting
// hashed entries and locked periods.
//
// All writes go through one SQLite transaction per operation. Sequence
// allocation and the posted-name unique index live in the same
// transaction, so two concurrent posters can race on a name at most once:
// the loser re-allocates against the committed state and retries.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/bookkeep/internal/chain"
	"github.com/roach88/bookkeep/internal/ledger"
	"github.com/roach88/bookkeep/internal/sequence"
	"github.com/roach88/bookkeep/internal/store"
	"github.com/roach88/bookkeep/internal/syncer"
)

// Engine binds the synchronizer pipeline to persistence and owns every
// state transition.
type Engine struct {
	Store    *store.Store
	Registry *ledger.Registry
	Pipeline *syncer.Pipeline
	Clock    Clock
	Log      *slog.Logger

	// SkipBalanceCheck tolerates unbalanced entries at post time. Data
	// repair sessions only; normal operation never sets it.
	SkipBalanceCheck bool
}

// New wires an engine with the default pipeline and the posting-history
// account suggester.
func New(st *store.Store, reg *ledger.Registry) *Engine {
	log := slog.Default()
	pipe := syncer.New(reg)
	pipe.Suggest = store.HistorySuggester{Conn: st.Conn(), Log: log}
	return &Engine{
		Store:    st,
		Registry: reg,
		Pipeline: pipe,
		Clock:    SystemClock{},
		Log:      log,
	}
}

// Post validates and posts a draft move: defaults are filled, derived
// lines recomputed, the balance checked, a sequence name allocated, and
// the journal's hash chain extended when enabled. A name collision with a
// concurrent poster is retried once against the fresh store state.
func (e *Engine) Post(ctx context.Context, m *ledger.Move) error {
	if err := m.CanPost(); err != nil {
		return err
	}
	if err := e.prepare(m); err != nil {
		return err
	}
	if err := e.Pipeline.Resync(m); err != nil {
		return err
	}
	if err := e.checkTaxLock(m, m.Date); err != nil {
		return err
	}
	if m.MoveType.IsInvoice() && m.AmountTotal().IsNegative() {
		verr := &ledger.ValidationError{Move: m.DisplayName()}
		verr.Add("an invoice total cannot be negative; issue the opposite document type instead")
		return verr
	}
	if !e.SkipBalanceCheck {
		if err := syncer.CheckBalanced(e.Registry, m); err != nil {
			return err
		}
	}

	err := e.persistPost(ctx, m)
	if err != nil && store.IsNameConflict(err) {
		e.Log.Warn("posted name collided, reallocating",
			"move", m.DisplayName(), "name", m.Name)
		m.Name = ledger.PlaceholderName
		m.SequencePrefix, m.SequenceNumber = "", 0
		err = e.persistPost(ctx, m)
		if err != nil && store.IsNameConflict(err) {
			journal := e.Registry.Journals[m.JournalID]
			code := ""
			if journal != nil {
				code = journal.Code
			}
			return &ledger.SequenceConflictError{Journal: code, Name: m.Name}
		}
	}
	if err != nil {
		return err
	}

	e.Log.Info("move posted",
		"move", m.Name, "journal", m.JournalID, "hashed", m.IsHashed())
	return nil
}

// prepare fills posting defaults and accumulates validation failures so
// one attempt reports every problem.
func (e *Engine) prepare(m *ledger.Move) error {
	today := e.Clock.Today()
	if m.Date.IsZero() {
		m.Date = today
	}
	if m.MoveType.IsInvoice() && m.InvoiceDate.IsZero() {
		m.InvoiceDate = today
	}

	verr := &ledger.ValidationError{Move: m.DisplayName()}
	real := 0
	for _, l := range m.Lines {
		if l.ContributesToTotals() {
			real++
		}
	}
	if real == 0 {
		verr.Add("an entry needs at least one debit or credit line")
	}
	if m.JournalID == 0 {
		verr.Add("a journal is required")
	} else if journal := e.Registry.Journals[m.JournalID]; journal != nil {
		if !journal.Active {
			verr.Add("the journal is archived")
		}
		if !journal.Type.Accepts(m.MoveType) {
			verr.Add("a %s journal cannot carry %s entries", journal.Type, m.MoveType)
		}
	}
	if m.CurrencyCode == "" {
		verr.Add("a currency is required")
	}
	if m.MoveType.IsInvoice() && m.PartnerID == 0 {
		verr.Add("an invoice needs a partner")
	}
	if partner := e.Registry.Partners[m.PartnerID]; partner != nil && !partner.Active {
		verr.Add("the partner is archived")
	}
	e.checkLineRefs(m, verr)
	if !verr.Empty() {
		return verr
	}

	if err := e.checkFiscalLock(m, m.Date); err != nil {
		return err
	}
	if m.CurrencyRate.IsZero() {
		m.CurrencyRate = e.Registry.MoveRate(m)
	}
	return nil
}

// checkLineRefs validates the master records the lines point at:
// deprecated accounts and tax lines whose tax belongs to another country
// than the company's.
func (e *Engine) checkLineRefs(m *ledger.Move, verr *ledger.ValidationError) {
	company := e.Registry.Companies[m.CompanyID]

	flagged := map[int64]bool{}
	for _, l := range m.Lines {
		if acc := e.Registry.Accounts[l.AccountID]; acc != nil && acc.Deprecated && !flagged[acc.ID] {
			flagged[acc.ID] = true
			verr.Add("account %s %s is deprecated", acc.Code, acc.Name)
		}
		if l.DisplayType != ledger.DisplayTax || l.TaxRepartitionLineID == 0 {
			continue
		}
		tax, _ := e.Registry.RepartitionLine(l.TaxRepartitionLineID)
		if tax == nil {
			verr.Add("a tax line references an unknown tax repartition")
			continue
		}
		if company != nil && tax.CountryCode != "" && tax.CountryCode != company.CountryCode {
			verr.Add("tax %s belongs to country %s, not %s",
				tax.Name, tax.CountryCode, company.CountryCode)
		}
	}
}

// persistPost runs name allocation, the state flip, the save, and the
// chain extension in one transaction. On any failure the move's in-memory
// state reverts to what the caller handed in.
func (e *Engine) persistPost(ctx context.Context, m *ledger.Move) (err error) {
	prevState, prevPostedBefore := m.State, m.PostedBefore

	tx, err := e.Store.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
			m.State, m.PostedBefore = prevState, prevPostedBefore
		}
	}()

	conn := store.In(tx)
	gen := &sequence.Generator{Registry: e.Registry, Store: conn}
	if err = gen.AssignName(ctx, m); err != nil {
		return err
	}

	m.State = ledger.StatePosted
	m.PostedBefore = true
	if err = conn.SaveMove(ctx, m); err != nil {
		return err
	}

	journal := e.Registry.Journals[m.JournalID]
	if journal != nil && journal.HashChain {
		if err = e.extendChain(ctx, conn, journal, m); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit post: %w", err)
	}
	return nil
}

// extendChain hashes every posted, not-yet-hashed move of the journal in
// sequence order. Contiguity is enforced within a prefix; the chain keeps
// running across a prefix change (a new period restarts numbering, not
// the chain).
func (e *Engine) extendChain(ctx context.Context, conn *store.Conn, journal *ledger.Journal, posted *ledger.Move) error {
	prevHash, prevPrefix, prevSeq, err := conn.LastHash(ctx, journal.ID)
	if err != nil {
		return err
	}
	candidates, err := conn.ListUnhashedPosted(ctx, journal.ID)
	if err != nil {
		return err
	}

	for start := 0; start < len(candidates); {
		end := start + 1
		for end < len(candidates) && candidates[end].SequencePrefix == candidates[start].SequencePrefix {
			end++
		}
		run := candidates[start:end]

		if prevHash != "" && run[0].SequencePrefix == prevPrefix && run[0].SequenceNumber != prevSeq+1 {
			return &ledger.SequenceGapError{
				Journal: journal.Code,
				Prefix:  prevPrefix,
				After:   prevSeq,
				Next:    run[0].SequenceNumber,
			}
		}
		if err := chain.Extend(run, e.Registry, journal, prevHash); err != nil {
			return err
		}
		for _, m := range run {
			if err := conn.SaveMove(ctx, m); err != nil {
				return err
			}
			if m.ID == posted.ID {
				posted.Hash = m.Hash
			}
		}
		last := run[len(run)-1]
		prevHash, prevPrefix, prevSeq = last.Hash, last.SequencePrefix, last.SequenceNumber
		start = end
	}
	return nil
}

// save writes the move in its own transaction.
func (e *Engine) save(ctx context.Context, m *ledger.Move) error {
	tx, err := e.Store.Begin(ctx)
	if err != nil {
		return err
	}
	if err := store.In(tx).SaveMove(ctx, m); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}
