package syncer

import (
	"github.com/shopspring/decimal"

	"github.com/roach88/bookkeep/internal/diffline"
	"github.com/roach88/bookkeep/internal/extern"
	"github.com/roach88/bookkeep/internal/ledger"
	"github.com/roach88/bookkeep/internal/money"
)

// syncTaxLines recomputes the tax lines from the move's base lines and
// reconciles them through the diff engine. In preserve mode only
// company-currency balances are refreshed; the document-currency amounts
// the user may have adjusted stay untouched.
func (p *Pipeline) syncTaxLines(m *ledger.Move, preserve bool) error {
	if preserve {
		p.refreshBalancesOnly(m)
		return nil
	}

	inputs := p.taxInputs(m)
	if len(inputs) == 0 && len(m.LinesOf(ledger.DisplayTax)) == 0 {
		return nil
	}

	company := p.Registry.Companies[m.CompanyID]
	companyCur := p.Registry.CompanyCurrency(m)
	comp, err := p.Taxes.ComputeTaxes(inputs, company, companyCur, false)
	if err != nil {
		return err
	}

	p.patchBaseLines(m, comp)
	desired := p.desiredTaxLines(m, comp)

	diffline.Apply(m, diffline.Plan{
		DisplayType: ledger.DisplayTax,
		Desired:     desired,
		ForceUpdate: []diffline.Field{diffline.FieldTaxBaseAmount, diffline.FieldName},
	})
	return nil
}

// taxInputs builds the evaluator inputs from product and EPD base lines.
func (p *Pipeline) taxInputs(m *ledger.Move) []extern.BaseLineInput {
	rate := p.Registry.MoveRate(m)
	cur := p.Registry.MoveCurrency(m)
	sign := m.MoveType.DocumentSign()

	var inputs []extern.BaseLineInput
	for _, l := range m.TaxBaseLines() {
		if len(l.TaxIDs) == 0 && l.DisplayType != ledger.DisplayProduct {
			continue
		}
		in := extern.BaseLineInput{
			Line:      l,
			Taxes:     p.Registry.TaxesByID(l.TaxIDs),
			Currency:  cur,
			Rate:      rate,
			PartnerID: m.PartnerID,
			Analytic:  l.AnalyticDistribution,
			IsRefund:  m.MoveType.IsRefund(),
		}
		if m.MoveType.IsInvoice() && l.DisplayType == ledger.DisplayProduct {
			in.PriceUnit = l.PriceUnit
			in.Quantity = l.Quantity
			in.Discount = l.Discount
			in.Sign = sign
		} else {
			// Entries and derived base lines carry their amount directly.
			in.PriceUnit = l.AmountCurrency.Abs()
			in.Quantity = decimal.NewFromInt(1)
			in.Sign = 1
			if l.AmountCurrency.IsNegative() {
				in.Sign = -1
			}
		}
		inputs = append(inputs, in)
	}
	return inputs
}

// patchBaseLines pushes the tax result back onto the product base lines:
// report tags always, price and monetary fields when prices drive the
// line (invoice documents).
func (p *Pipeline) patchBaseLines(m *ledger.Move, comp *extern.TaxComputation) {
	rate := p.Registry.MoveRate(m)
	companyCur := p.Registry.CompanyCurrency(m)
	sign := decimal.NewFromInt(int64(m.MoveType.DocumentSign()))

	for _, upd := range comp.BaseLinesToUpdate {
		l := upd.Line
		l.TaxTagIDs = append([]int64(nil), upd.TaxTagIDs...)
		if l.DisplayType != ledger.DisplayProduct {
			continue
		}
		if m.MoveType.IsInvoice() {
			l.PriceSubtotal = upd.PriceSubtotal
			l.PriceTotal = upd.PriceTotal
			l.AmountCurrency = upd.PriceSubtotal.Mul(sign)
		}
		l.Balance = toCompanyBalance(l.AmountCurrency, rate, companyCur)
	}
}

// desiredTaxLines aggregates evaluator output by grouping key and drops
// keys whose total rounds to zero in the document currency.
func (p *Pipeline) desiredTaxLines(m *ledger.Move, comp *extern.TaxComputation) []*ledger.Line {
	cur := p.Registry.MoveCurrency(m)

	byKey := map[ledger.GroupingKey]*ledger.Line{}
	var order []ledger.GroupingKey

	for _, tv := range comp.TaxLinesToAdd {
		proto := &ledger.Line{
			DisplayType:          ledger.DisplayTax,
			Name:                 tv.TaxName,
			AccountID:            tv.AccountID,
			PartnerID:            m.PartnerID,
			CurrencyCode:         m.CurrencyCode,
			TaxLineID:            tv.TaxID,
			TaxRepartitionLineID: tv.RepartitionLineID,
			TaxTagIDs:            append([]int64(nil), tv.TagIDs...),
			AnalyticDistribution: tv.Analytic,
		}
		key := proto.Key()
		agg, ok := byKey[key]
		if !ok {
			byKey[key] = proto
			order = append(order, key)
			agg = proto
		}
		agg.AmountCurrency = agg.AmountCurrency.Add(tv.TaxAmountCurrency)
		agg.Balance = agg.Balance.Add(tv.TaxAmount)
		agg.TaxBaseAmount = agg.TaxBaseAmount.Add(tv.BaseAmount)
	}

	var desired []*ledger.Line
	for _, key := range order {
		l := byKey[key]
		if cur.IsZero(l.AmountCurrency) && l.Balance.IsZero() {
			continue
		}
		desired = append(desired, l)
	}
	return desired
}

// refreshBalancesOnly recomputes company balances from the frozen
// document amounts after a rate-context change on a draft.
func (p *Pipeline) refreshBalancesOnly(m *ledger.Move) {
	rate := p.Registry.MoveRate(m)
	companyCur := p.Registry.CompanyCurrency(m)
	for _, l := range m.Lines {
		if !l.ContributesToTotals() {
			continue
		}
		switch l.DisplayType {
		case ledger.DisplayTax, ledger.DisplayProduct, ledger.DisplayEPD, ledger.DisplayDiscount, ledger.DisplayRounding:
			l.Balance = toCompanyBalance(l.AmountCurrency, rate, companyCur)
		}
	}
}

// toCompanyBalance converts a document amount at the move rate, rounding
// in the company currency at assignment.
func toCompanyBalance(amountCurrency, rate decimal.Decimal, companyCur money.Currency) decimal.Decimal {
	if rate.IsZero() || rate.Equal(decimal.NewFromInt(1)) {
		return companyCur.Round(amountCurrency)
	}
	return companyCur.Round(amountCurrency.Div(rate))
}
