package syncer

import (
	"github.com/shopspring/decimal"

	"github.com/roach88/bookkeep/internal/ledger"
)

// seedQuickEdit creates the first product line of a quick-edit invoice:
// the user typed only a tax-included total, so the line's account and
// price are suggested from the partner's posting history. Without a
// usable suggestion the seeding is skipped and the user fills the line
// in manually.
func (p *Pipeline) seedQuickEdit(m *ledger.Move) {
	if !m.QuickEditMode || m.QuickEditTotal.IsZero() {
		return
	}
	if !m.MoveType.IsInvoice() || m.State != ledger.StateDraft || len(m.Lines) > 0 {
		return
	}

	account := p.Suggest.MostFrequentAccount(m.PartnerID, m.MoveType, ledger.DisplayProduct)
	if account == 0 {
		p.Log.Debug("quick-edit seeding skipped: no account suggestion",
			"move", m.DisplayName(), "partner", m.PartnerID)
		return
	}

	sign := decimal.NewFromInt(int64(m.MoveType.DocumentSign()))
	line := &ledger.Line{
		DisplayType:    ledger.DisplayProduct,
		Name:           "Quick entry",
		AccountID:      account,
		PartnerID:      m.PartnerID,
		CurrencyCode:   m.CurrencyCode,
		Quantity:       decimal.NewFromInt(1),
		PriceUnit:      m.QuickEditTotal,
		AmountCurrency: m.QuickEditTotal.Mul(sign),
	}
	rate := p.Registry.MoveRate(m)
	line.Balance = toCompanyBalance(line.AmountCurrency, rate, p.Registry.CompanyCurrency(m))
	m.Lines = append(m.Lines, line)
}

// correctQuickEdit absorbs the residual between the user-entered total
// and the computed one. The correction applies only when the deviation
// is at most twice the currency rounding (closed bound) and every
// product line carries the same tax set; the delta then lands on the
// largest-magnitude tax line.
func (p *Pipeline) correctQuickEdit(m *ledger.Move) {
	if !m.QuickEditMode || m.QuickEditTotal.IsZero() || !m.MoveType.IsInvoice() {
		return
	}

	cur := p.Registry.MoveCurrency(m)
	sign := decimal.NewFromInt(int64(m.MoveType.DocumentSign()))

	computed := decimal.Zero
	for _, l := range m.Lines {
		switch l.DisplayType {
		case ledger.DisplayProduct, ledger.DisplayEPD, ledger.DisplayDiscount, ledger.DisplayTax:
			computed = computed.Add(l.AmountCurrency)
		}
	}

	wanted := m.QuickEditTotal.Mul(sign)
	delta := wanted.Sub(computed)
	if cur.IsZero(delta) {
		return
	}
	tolerance := cur.Rounding.Mul(decimal.NewFromInt(2))
	if delta.Abs().GreaterThan(tolerance) {
		return
	}
	if !uniformTaxSet(m.ProductLines()) {
		return
	}

	target := biggestTaxLine(m)
	if target == nil {
		return
	}
	target.AmountCurrency = target.AmountCurrency.Add(delta)
	target.Balance = toCompanyBalance(target.AmountCurrency, p.Registry.MoveRate(m), p.Registry.CompanyCurrency(m))
}

// uniformTaxSet reports whether every line shares one normalized tax set.
func uniformTaxSet(lines []*ledger.Line) bool {
	if len(lines) == 0 {
		return false
	}
	want := (&ledger.Line{TaxIDs: lines[0].TaxIDs}).KeyWith(ledger.GroupingKeyFields{TaxIDs: true})
	for _, l := range lines[1:] {
		got := (&ledger.Line{TaxIDs: l.TaxIDs}).KeyWith(ledger.GroupingKeyFields{TaxIDs: true})
		if got != want {
			return false
		}
	}
	return true
}
