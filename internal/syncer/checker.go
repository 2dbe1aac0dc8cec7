package syncer

import (
	"github.com/shopspring/decimal"

	"github.com/roach88/bookkeep/internal/ledger"
)

// CheckBalanced asserts the double-entry invariant at commit time: for
// every move, debits equal credits in the company currency after
// rounding. All offending moves are reported in one error. The posting
// engine may skip the check via its check-validity flag; the pipeline
// itself never does.
func CheckBalanced(reg *ledger.Registry, moves ...*ledger.Move) error {
	var bad []ledger.UnbalancedEntry
	for _, m := range moves {
		companyCur := reg.CompanyCurrency(m)
		debit, credit := decimal.Zero, decimal.Zero
		for _, l := range m.Lines {
			if !l.ContributesToTotals() {
				continue
			}
			debit = debit.Add(l.Debit())
			credit = credit.Add(l.Credit())
		}
		debit = companyCur.Round(debit)
		credit = companyCur.Round(credit)
		if !companyCur.Equal(debit, credit) {
			bad = append(bad, ledger.UnbalancedEntry{
				Move:   m.DisplayName(),
				Debit:  debit,
				Credit: credit,
			})
		}
	}
	if len(bad) > 0 {
		return &ledger.UnbalancedError{Entries: bad}
	}
	return nil
}
