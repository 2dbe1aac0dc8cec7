package syncer

import (
	"github.com/shopspring/decimal"

	"github.com/roach88/bookkeep/internal/diffline"
	"github.com/roach88/bookkeep/internal/ledger"
)

// syncAutoBalance keeps a single suspense line that balances generic
// entries. Invoice kinds balance through their payment-term lines and
// never get one. A missing suspense account is tolerated: the balance
// checker reports the imbalance at commit instead.
func (p *Pipeline) syncAutoBalance(m *ledger.Move) {
	if m.MoveType != ledger.MoveTypeEntry {
		return
	}
	company := p.Registry.Companies[m.CompanyID]
	if company == nil || company.SuspenseAccountID == 0 {
		return
	}

	residual := decimal.Zero
	residualCur := decimal.Zero
	for _, l := range m.Lines {
		if !l.ContributesToTotals() || l.DisplayType == ledger.DisplayAutoBalance {
			continue
		}
		residual = residual.Add(l.Balance)
		residualCur = residualCur.Add(l.AmountCurrency)
	}

	companyCur := p.Registry.CompanyCurrency(m)
	if companyCur.IsZero(residual) {
		if len(m.LinesOf(ledger.DisplayAutoBalance)) > 0 {
			diffline.Apply(m, diffline.Plan{DisplayType: ledger.DisplayAutoBalance})
		}
		return
	}

	line := &ledger.Line{
		DisplayType:    ledger.DisplayAutoBalance,
		Name:           "Automatic Balancing Line",
		AccountID:      company.SuspenseAccountID,
		CurrencyCode:   m.CurrencyCode,
		Balance:        residual.Neg(),
		AmountCurrency: residualCur.Neg(),
	}
	diffline.Apply(m, diffline.Plan{
		DisplayType: ledger.DisplayAutoBalance,
		Desired:     []*ledger.Line{line},
		ForceUpdate: []diffline.Field{diffline.FieldName},
	})
}
