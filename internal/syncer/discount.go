package syncer

import (
	"github.com/shopspring/decimal"

	"github.com/roach88/bookkeep/internal/diffline"
	"github.com/roach88/bookkeep/internal/ledger"
)

// syncDiscountAllocation makes line discounts visible in the books: when
// a discount-allocation account is configured, every discounted product
// line gets an offsetting pair showing the gross amount on the product
// account and the rebate on the allocation account. Net effect is zero.
func (p *Pipeline) syncDiscountAllocation(m *ledger.Move) {
	company := p.Registry.Companies[m.CompanyID]
	if company == nil || company.DiscountAccountID == 0 || !m.MoveType.IsInvoice() {
		if len(m.LinesOf(ledger.DisplayDiscount)) > 0 {
			diffline.Apply(m, diffline.Plan{DisplayType: ledger.DisplayDiscount})
		}
		return
	}

	rate := p.Registry.MoveRate(m)
	companyCur := p.Registry.CompanyCurrency(m)
	cur := p.Registry.MoveCurrency(m)
	sign := decimal.NewFromInt(int64(m.MoveType.DocumentSign()))

	var desired []*ledger.Line
	for _, product := range m.ProductLines() {
		if product.Discount.IsZero() {
			continue
		}
		gross := product.PriceUnit.Mul(product.Quantity)
		rebate := cur.Round(gross.Mul(product.Discount.Div(decimal.NewFromInt(100))))
		if cur.IsZero(rebate) {
			continue
		}

		// Gross restatement on the product account.
		grossLine := &ledger.Line{
			DisplayType:          ledger.DisplayDiscount,
			Name:                 "Discount",
			AccountID:            product.AccountID,
			PartnerID:            m.PartnerID,
			CurrencyCode:         m.CurrencyCode,
			AnalyticDistribution: product.AnalyticDistribution,
			AmountCurrency:       rebate.Mul(sign),
		}
		grossLine.Balance = toCompanyBalance(grossLine.AmountCurrency, rate, companyCur)

		// Rebate on the allocation account.
		rebateLine := &ledger.Line{
			DisplayType:          ledger.DisplayDiscount,
			Name:                 "Discount Allocation",
			AccountID:            company.DiscountAccountID,
			PartnerID:            m.PartnerID,
			CurrencyCode:         m.CurrencyCode,
			AnalyticDistribution: product.AnalyticDistribution,
			AmountCurrency:       rebate.Mul(sign).Neg(),
		}
		rebateLine.Balance = toCompanyBalance(rebateLine.AmountCurrency, rate, companyCur)

		desired = append(desired, grossLine, rebateLine)
	}

	diffline.Apply(m, diffline.Plan{
		DisplayType: ledger.DisplayDiscount,
		Desired:     mergeByKey(desired),
		ForceUpdate: []diffline.Field{diffline.FieldName},
	})
}
