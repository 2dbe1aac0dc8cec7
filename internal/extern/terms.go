package extern

import (
	"time"

	"github.com/shopspring/decimal"
)

// PercentTermComputer is the default payment-term evaluator: each term
// line takes a percentage of the total due after a day offset. The last
// installment absorbs the rounding remainder so the schedule always sums
// to the exact total.
type PercentTermComputer struct{}

var _ TermComputer = PercentTermComputer{}

// ComputeTerms builds the installment schedule. A nil term produces one
// installment due at the anchor date.
func (PercentTermComputer) ComputeTerms(in TermInput) (*PaymentTermResult, error) {
	sign := decimal.NewFromInt(int64(in.Sign))
	totalCompany := in.Untaxed.Add(in.Tax).Mul(sign)
	totalForeign := in.UntaxedCurrency.Add(in.TaxCurrency).Mul(sign)

	if in.Term == nil || len(in.Term.Lines) == 0 {
		return &PaymentTermResult{
			Installments: []Installment{{
				Date:          in.Anchor,
				CompanyAmount: in.CompanyCurrency.Round(totalCompany),
				ForeignAmount: in.Currency.Round(totalForeign),
			}},
		}, nil
	}

	result := &PaymentTermResult{}
	remainingCompany := in.CompanyCurrency.Round(totalCompany)
	remainingForeign := in.Currency.Round(totalForeign)

	for i, tl := range in.Term.Lines {
		var company, foreign decimal.Decimal
		if i == len(in.Term.Lines)-1 {
			company = remainingCompany
			foreign = remainingForeign
		} else {
			share := tl.ValuePercent.Div(hundred)
			company = in.CompanyCurrency.Round(totalCompany.Mul(share))
			foreign = in.Currency.Round(totalForeign.Mul(share))
		}
		remainingCompany = remainingCompany.Sub(company)
		remainingForeign = remainingForeign.Sub(foreign)

		result.Installments = append(result.Installments, Installment{
			Date:          in.Anchor.AddDate(0, 0, tl.Days),
			CompanyAmount: company,
			ForeignAmount: foreign,
		})
	}

	if in.Term.EarlyDiscount {
		result.DiscountDate = in.Anchor.AddDate(0, 0, in.Term.DiscountDays)
		keep := one.Sub(in.Term.DiscountPercentage.Div(hundred))
		result.DiscountBalance = in.CompanyCurrency.Round(totalCompany.Mul(keep))
		result.DiscountAmountCurrency = in.Currency.Round(totalForeign.Mul(keep))
	}

	return result, nil
}

// DueDate returns the latest installment date, or the anchor when the
// schedule is empty.
func (r *PaymentTermResult) DueDate(anchor time.Time) time.Time {
	due := anchor
	for _, inst := range r.Installments {
		if inst.Date.After(due) {
			due = inst.Date
		}
	}
	return due
}
