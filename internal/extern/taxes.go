package extern

import (
	"github.com/shopspring/decimal"

	"github.com/roach88/bookkeep/internal/ledger"
	"github.com/roach88/bookkeep/internal/money"
)

// FlatTaxComputer is the default tax evaluator: percent taxes (inclusive
// or exclusive of price) and fixed per-unit taxes, no cascading. Amounts
// are computed per repartition line in document currency and rounded
// there; company amounts divide by the rate and round again.
type FlatTaxComputer struct{}

var _ TaxComputer = FlatTaxComputer{}

var one = decimal.NewFromInt(1)
var hundred = decimal.NewFromInt(100)

// ComputeTaxes evaluates every base line independently.
func (FlatTaxComputer) ComputeTaxes(base []BaseLineInput, company *ledger.Company, companyCurrency money.Currency, includeCashBasis bool) (*TaxComputation, error) {
	result := &TaxComputation{}

	for _, in := range base {
		qty := in.Quantity
		if qty.IsZero() {
			qty = one
		}
		gross := in.PriceUnit.Mul(qty)
		if !in.Discount.IsZero() {
			gross = gross.Mul(one.Sub(in.Discount.Div(hundred)))
		}

		// Split included taxes out of the gross to find the net base.
		includedRate := decimal.Zero
		for _, tax := range in.Taxes {
			if tax.AmountType == "percent" && tax.PriceInclude {
				includedRate = includedRate.Add(tax.Amount.Div(hundred))
			}
		}
		net := gross
		if !includedRate.IsZero() {
			net = gross.Div(one.Add(includedRate))
		}
		net = in.Currency.Round(net)

		sign := decimal.NewFromInt(int64(in.Sign))
		taxTotal := decimal.Zero
		var baseTags []int64

		for _, tax := range in.Taxes {
			var amount decimal.Decimal
			switch tax.AmountType {
			case "fixed":
				amount = tax.Amount.Mul(qty)
			default: // percent
				amount = net.Mul(tax.Amount.Div(hundred))
			}

			for _, rep := range tax.RepartitionFor(in.IsRefund) {
				switch rep.Type {
				case "base":
					baseTags = append(baseTags, rep.TagIDs...)
				case "tax":
					part := in.Currency.Round(amount.Mul(rep.Factor))
					taxTotal = taxTotal.Add(part)

					amountCurrency := part.Mul(sign)
					companyAmount := toCompany(amountCurrency, in.Rate, companyCurrency)
					baseCurrency := net.Mul(sign)

					result.TaxLinesToAdd = append(result.TaxLinesToAdd, TaxLineValues{
						TaxID:              tax.ID,
						TaxName:            tax.Name,
						RepartitionLineID:  rep.ID,
						AccountID:          rep.AccountID,
						TagIDs:             append([]int64(nil), rep.TagIDs...),
						PartnerID:          in.PartnerID,
						CurrencyCode:       in.Currency.Code,
						Analytic:           in.Analytic,
						TaxAmountCurrency:  amountCurrency,
						TaxAmount:          companyAmount,
						BaseAmountCurrency: baseCurrency,
						BaseAmount:         toCompany(baseCurrency, in.Rate, companyCurrency),
					})
				}
			}
		}

		result.BaseLinesToUpdate = append(result.BaseLinesToUpdate, BaseLineUpdate{
			Line:          in.Line,
			TaxTagIDs:     baseTags,
			PriceSubtotal: net,
			PriceTotal:    in.Currency.Round(net.Add(taxTotal)),
		})
	}

	return result, nil
}

// toCompany converts a document-currency amount at the move rate and
// rounds in the company currency. Rounds at assignment; never assumes
// the rate is invertible at the penny level.
func toCompany(amountCurrency, rate decimal.Decimal, companyCurrency money.Currency) decimal.Decimal {
	if rate.IsZero() || rate.Equal(one) {
		return companyCurrency.Round(amountCurrency)
	}
	return companyCurrency.Round(amountCurrency.Div(rate))
}
