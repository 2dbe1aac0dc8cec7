package syncer

import (
	"github.com/shopspring/decimal"

	"github.com/roach88/bookkeep/internal/diffline"
	"github.com/roach88/bookkeep/internal/ledger"
)

// syncCashRounding adjusts the invoice total to the smallest coinage of
// the rounding policy. The delta lands either on a dedicated rounding
// line (add_invoice_line) or on the largest-magnitude tax line
// (biggest_tax). When biggest_tax finds no tax line it degrades to the
// dedicated line if an account is configured, otherwise it leaves the
// delta for the balance checker to surface.
func (p *Pipeline) syncCashRounding(m *ledger.Move) error {
	policy := p.Registry.CashRoundings[m.CashRoundingID]
	if policy == nil || !m.MoveType.IsInvoice() {
		if len(m.LinesOf(ledger.DisplayRounding)) > 0 {
			diffline.Apply(m, diffline.Plan{DisplayType: ledger.DisplayRounding})
		}
		return nil
	}

	cur := p.Registry.MoveCurrency(m)
	rate := p.Registry.MoveRate(m)
	companyCur := p.Registry.CompanyCurrency(m)

	total := decimal.Zero
	for _, l := range m.Lines {
		switch l.DisplayType {
		case ledger.DisplayProduct, ledger.DisplayEPD, ledger.DisplayDiscount, ledger.DisplayTax:
			total = total.Add(l.AmountCurrency)
		}
	}

	expected := cur.RoundToIncrement(total, policy.Rounding)
	delta := expected.Sub(total)
	if cur.IsZero(delta) {
		if len(m.LinesOf(ledger.DisplayRounding)) > 0 {
			diffline.Apply(m, diffline.Plan{DisplayType: ledger.DisplayRounding})
		}
		return nil
	}

	if policy.Strategy == ledger.RoundingBiggestTax {
		if target := biggestTaxLine(m); target != nil {
			// Clear any dedicated line left over from a strategy switch.
			if len(m.LinesOf(ledger.DisplayRounding)) > 0 {
				diffline.Apply(m, diffline.Plan{DisplayType: ledger.DisplayRounding})
			}
			proto := &ledger.Line{
				AmountCurrency: target.AmountCurrency.Add(delta),
				Balance:        toCompanyBalance(target.AmountCurrency.Add(delta), rate, companyCur),
			}
			diffline.Apply(m, diffline.Plan{
				DisplayType: ledger.DisplayTax,
				ByID:        map[*ledger.Line]*ledger.Line{target: proto},
			})
			return nil
		}
		if policy.ProfitAccountID == 0 && policy.LossAccountID == 0 {
			p.Log.Warn("cash rounding skipped: no tax line and no rounding account",
				"move", m.DisplayName(), "delta", delta.String())
			return nil
		}
		// Degrade to the dedicated-line strategy below.
	}

	account := policy.LossAccountID
	if delta.IsNegative() {
		account = policy.ProfitAccountID
	}
	if account == 0 {
		return &ledger.MissingConfigError{
			What:  "cash rounding profit/loss account",
			Where: "cash rounding policy " + policy.Name,
		}
	}

	line := &ledger.Line{
		DisplayType:    ledger.DisplayRounding,
		Name:           policy.Name,
		AccountID:      account,
		PartnerID:      m.PartnerID,
		CurrencyCode:   m.CurrencyCode,
		AmountCurrency: delta,
		Balance:        toCompanyBalance(delta, rate, companyCur),
	}
	diffline.Apply(m, diffline.Plan{
		DisplayType: ledger.DisplayRounding,
		Desired:     []*ledger.Line{line},
		ForceUpdate: []diffline.Field{diffline.FieldName, diffline.FieldAccount},
	})
	return nil
}

// biggestTaxLine returns the tax line with the largest absolute document
// amount, or nil when the move has none.
func biggestTaxLine(m *ledger.Move) *ledger.Line {
	var best *ledger.Line
	for _, l := range m.LinesOf(ledger.DisplayTax) {
		if best == nil || l.AmountCurrency.Abs().GreaterThan(best.AmountCurrency.Abs()) {
			best = l
		}
	}
	return best
}
