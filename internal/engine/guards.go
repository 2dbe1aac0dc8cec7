package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/bookkeep/internal/chain"
	"github.com/roach88/bookkeep/internal/ledger"
	"github.com/roach88/bookkeep/internal/syncer"
)

// Edit applies a user mutation inside a dynamic-lines scope and saves the
// result. Hash-locked moves refuse any change to their integrity fields;
// posted moves dated in a locked period refuse all edits. New moves (id
// zero) insert on save.
func (e *Engine) Edit(ctx context.Context, m *ledger.Move, mutate func() error) error {
	if m.State == ledger.StatePosted {
		if err := e.checkFiscalLock(m, m.Date); err != nil {
			return err
		}
	}

	var before map[string]any
	hashVersion := 0
	if m.IsHashed() {
		v, _, err := chain.ParseHash(m.Hash)
		if err != nil {
			return err
		}
		hashVersion = v
		before = chain.IntegrityPayload(m, e.Registry, hashVersion)
	}

	if err := e.Pipeline.SyncDynamicLines(m, mutate); err != nil {
		return err
	}

	if m.IsHashed() {
		after := chain.IntegrityPayload(m, e.Registry, hashVersion)
		if field := integrityDiff(before, after); field != "" {
			return &ledger.IntegrityLockError{Move: m.DisplayName(), Field: field}
		}
	}
	if m.State == ledger.StatePosted {
		if err := e.checkFiscalLock(m, m.Date); err != nil {
			return err
		}
		if err := e.checkTaxLock(m, m.Date); err != nil {
			return err
		}
		if !e.SkipBalanceCheck {
			if err := syncer.CheckBalanced(e.Registry, m); err != nil {
				return err
			}
		}
	}

	return e.save(ctx, m)
}

// checkFiscalLock rejects accounting dates on or before the company lock
// date, pointing at the first open day.
func (e *Engine) checkFiscalLock(m *ledger.Move, date time.Time) error {
	company := e.Registry.Companies[m.CompanyID]
	if company == nil || company.FiscalLockDate.IsZero() {
		return nil
	}
	if date.After(company.FiscalLockDate) {
		return nil
	}
	return &ledger.FiscalLockError{
		Move:     m.DisplayName(),
		LockDate: company.FiscalLockDate.Format("2006-01-02"),
		NextOpen: company.FiscalLockDate.AddDate(0, 0, 1).Format("2006-01-02"),
	}
}

// checkTaxLock rejects tax-bearing entries dated on or before the
// company tax lock date. Entries without tax lines pass; only reported
// taxes are frozen.
func (e *Engine) checkTaxLock(m *ledger.Move, date time.Time) error {
	company := e.Registry.Companies[m.CompanyID]
	if company == nil || company.TaxLockDate.IsZero() {
		return nil
	}
	if date.After(company.TaxLockDate) {
		return nil
	}
	if len(m.LinesOf(ledger.DisplayTax)) == 0 {
		return nil
	}
	return &ledger.FiscalLockError{
		Move:     m.DisplayName(),
		LockDate: company.TaxLockDate.Format("2006-01-02"),
		NextOpen: company.TaxLockDate.AddDate(0, 0, 1).Format("2006-01-02"),
	}
}

// integrityDiff compares two integrity payloads and names the first
// protected field that changed, or "" when they match. fmt renders map
// keys sorted, which makes the rendering stable enough to compare.
func integrityDiff(before, after map[string]any) string {
	for _, key := range []string{"name", "date", "journal_id", "company_id", "line_ids"} {
		b, inBefore := before[key]
		a, inAfter := after[key]
		if !inBefore && !inAfter {
			continue
		}
		if inBefore != inAfter || fmt.Sprintf("%v", b) != fmt.Sprintf("%v", a) {
			return key
		}
	}
	return ""
}
