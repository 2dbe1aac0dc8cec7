package syncer

import (
	"github.com/shopspring/decimal"

	"github.com/roach88/bookkeep/internal/diffline"
	"github.com/roach88/bookkeep/internal/ledger"
)

// syncEPD derives the early-payment-discount base lines when the payment
// term uses mixed computation: for each product line, one line carrying
// the product's taxes reduces the taxable base by the discount
// percentage, and an offsetting line without taxes restores the total.
// Returns true when the EPD line set exists or changed, which forces a
// second tax pass: created lines enlarge the base set, removed lines
// shrink it, and either way the tax amounts must follow.
func (p *Pipeline) syncEPD(m *ledger.Move) bool {
	term := p.Registry.PaymentTerms[m.PaymentTermID]
	mixed := term != nil && term.EarlyDiscount && term.EPDComputation == ledger.EPDMixed && m.MoveType.IsInvoice()

	if !mixed {
		if len(m.LinesOf(ledger.DisplayEPD)) == 0 {
			return false
		}
		diffline.Apply(m, diffline.Plan{DisplayType: ledger.DisplayEPD})
		return true
	}
	had := len(m.LinesOf(ledger.DisplayEPD)) > 0

	company := p.Registry.Companies[m.CompanyID]
	epdAccount := int64(0)
	if company != nil {
		epdAccount = company.EPDAccountID
	}

	rate := p.Registry.MoveRate(m)
	companyCur := p.Registry.CompanyCurrency(m)
	cur := p.Registry.MoveCurrency(m)
	pct := term.DiscountPercentage.Div(decimal.NewFromInt(100))

	var desired []*ledger.Line
	for _, product := range m.ProductLines() {
		discount := cur.Round(product.AmountCurrency.Mul(pct))
		if cur.IsZero(discount) {
			continue
		}
		account := epdAccount
		if account == 0 {
			account = product.AccountID
		}

		// Base-reduction line: opposite sign, same taxes.
		reduce := &ledger.Line{
			DisplayType:          ledger.DisplayEPD,
			Name:                 "Early Payment Discount",
			AccountID:            account,
			PartnerID:            m.PartnerID,
			CurrencyCode:         m.CurrencyCode,
			TaxIDs:               append([]int64(nil), product.TaxIDs...),
			AnalyticDistribution: product.AnalyticDistribution,
			AmountCurrency:       discount.Neg(),
		}
		reduce.Balance = toCompanyBalance(reduce.AmountCurrency, rate, companyCur)

		// Counterpart without taxes keeps the untaxed total intact.
		restore := &ledger.Line{
			DisplayType:          ledger.DisplayEPD,
			Name:                 "Early Payment Discount (Exempt)",
			AccountID:            account,
			PartnerID:            m.PartnerID,
			CurrencyCode:         m.CurrencyCode,
			AnalyticDistribution: product.AnalyticDistribution,
			AmountCurrency:       discount,
		}
		restore.Balance = toCompanyBalance(restore.AmountCurrency, rate, companyCur)

		desired = append(desired, reduce, restore)
	}

	desired = mergeByKey(desired)
	diffline.Apply(m, diffline.Plan{
		DisplayType: ledger.DisplayEPD,
		Desired:     desired,
		ForceUpdate: []diffline.Field{diffline.FieldName},
	})
	return len(desired) > 0 || had
}

// mergeByKey folds prototype lines sharing a grouping key into one,
// summing their monetary fields. Product lines with identical tax sets
// collapse into a single EPD pair.
func mergeByKey(lines []*ledger.Line) []*ledger.Line {
	byKey := map[ledger.GroupingKey]*ledger.Line{}
	var out []*ledger.Line
	for _, l := range lines {
		key := l.Key()
		if agg, ok := byKey[key]; ok {
			agg.AmountCurrency = agg.AmountCurrency.Add(l.AmountCurrency)
			agg.Balance = agg.Balance.Add(l.Balance)
			continue
		}
		byKey[key] = l
		out = append(out, l)
	}
	return out
}
