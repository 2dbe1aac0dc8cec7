package extern

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bookkeep/internal/ledger"
	"github.com/roach88/bookkeep/internal/money"
)

func dec(s string) decimal.Decimal { return money.MustParse(s) }

func percentTax(id int64, amount string) *ledger.Tax {
	return &ledger.Tax{
		ID: id, Name: amount + "%", Amount: dec(amount), AmountType: "percent",
		InvoiceRepartition: []ledger.TaxRepartitionLine{
			{ID: id*10 + 1, TaxID: id, Type: "base", Factor: decimal.NewFromInt(1), TagIDs: []int64{101}},
			{ID: id*10 + 2, TaxID: id, Type: "tax", Factor: decimal.NewFromInt(1), AccountID: 251, TagIDs: []int64{102}},
		},
		RefundRepartition: []ledger.TaxRepartitionLine{
			{ID: id*10 + 3, TaxID: id, Type: "base", Factor: decimal.NewFromInt(1), TagIDs: []int64{103}},
			{ID: id*10 + 4, TaxID: id, Type: "tax", Factor: decimal.NewFromInt(1), AccountID: 251, TagIDs: []int64{104}},
		},
	}
}

func eur() money.Currency { return money.NewCurrency("EUR", 2, money.RoundHalfUp) }

func TestComputeTaxesExclusivePercent(t *testing.T) {
	in := BaseLineInput{
		Line:      &ledger.Line{},
		Taxes:     []*ledger.Tax{percentTax(1, "10")},
		PriceUnit: dec("100"),
		Quantity:  decimal.NewFromInt(2),
		Currency:  eur(),
		Rate:      decimal.NewFromInt(1),
		Sign:      -1,
	}

	comp, err := FlatTaxComputer{}.ComputeTaxes([]BaseLineInput{in}, nil, eur(), false)
	require.NoError(t, err)

	require.Len(t, comp.BaseLinesToUpdate, 1)
	upd := comp.BaseLinesToUpdate[0]
	assert.True(t, upd.PriceSubtotal.Equal(dec("200")), "got %s", upd.PriceSubtotal)
	assert.True(t, upd.PriceTotal.Equal(dec("220")), "got %s", upd.PriceTotal)
	assert.Equal(t, []int64{101}, upd.TaxTagIDs)

	require.Len(t, comp.TaxLinesToAdd, 1)
	tv := comp.TaxLinesToAdd[0]
	assert.True(t, tv.TaxAmountCurrency.Equal(dec("-20")), "got %s", tv.TaxAmountCurrency)
	assert.True(t, tv.TaxAmount.Equal(dec("-20")))
	assert.True(t, tv.BaseAmountCurrency.Equal(dec("-200")))
	assert.Equal(t, int64(251), tv.AccountID)
	assert.Equal(t, []int64{102}, tv.TagIDs)
}

func TestComputeTaxesIncludedPercent(t *testing.T) {
	incl := percentTax(2, "15")
	incl.PriceInclude = true

	in := BaseLineInput{
		Line:      &ledger.Line{},
		Taxes:     []*ledger.Tax{incl},
		PriceUnit: dec("115"),
		Quantity:  decimal.NewFromInt(1),
		Currency:  eur(),
		Rate:      decimal.NewFromInt(1),
		Sign:      -1,
	}

	comp, err := FlatTaxComputer{}.ComputeTaxes([]BaseLineInput{in}, nil, eur(), false)
	require.NoError(t, err)

	upd := comp.BaseLinesToUpdate[0]
	assert.True(t, upd.PriceSubtotal.Equal(dec("100")), "got %s", upd.PriceSubtotal)
	assert.True(t, upd.PriceTotal.Equal(dec("115")), "got %s", upd.PriceTotal)

	tv := comp.TaxLinesToAdd[0]
	assert.True(t, tv.TaxAmountCurrency.Equal(dec("-15")), "got %s", tv.TaxAmountCurrency)
}

func TestComputeTaxesFixedPerUnit(t *testing.T) {
	fixed := &ledger.Tax{
		ID: 3, Name: "Eco fee", Amount: dec("0.5"), AmountType: "fixed",
		InvoiceRepartition: []ledger.TaxRepartitionLine{
			{ID: 31, TaxID: 3, Type: "tax", Factor: decimal.NewFromInt(1), AccountID: 252},
		},
	}

	in := BaseLineInput{
		Line:      &ledger.Line{},
		Taxes:     []*ledger.Tax{fixed},
		PriceUnit: dec("10"),
		Quantity:  decimal.NewFromInt(4),
		Currency:  eur(),
		Rate:      decimal.NewFromInt(1),
		Sign:      1,
	}

	comp, err := FlatTaxComputer{}.ComputeTaxes([]BaseLineInput{in}, nil, eur(), false)
	require.NoError(t, err)

	tv := comp.TaxLinesToAdd[0]
	assert.True(t, tv.TaxAmountCurrency.Equal(dec("2")), "got %s", tv.TaxAmountCurrency)
	assert.True(t, comp.BaseLinesToUpdate[0].PriceTotal.Equal(dec("42")))
}

func TestComputeTaxesLineDiscount(t *testing.T) {
	in := BaseLineInput{
		Line:      &ledger.Line{},
		Taxes:     []*ledger.Tax{percentTax(1, "10")},
		PriceUnit: dec("100"),
		Quantity:  decimal.NewFromInt(1),
		Discount:  dec("25"),
		Currency:  eur(),
		Rate:      decimal.NewFromInt(1),
		Sign:      -1,
	}

	comp, err := FlatTaxComputer{}.ComputeTaxes([]BaseLineInput{in}, nil, eur(), false)
	require.NoError(t, err)

	assert.True(t, comp.BaseLinesToUpdate[0].PriceSubtotal.Equal(dec("75")))
	assert.True(t, comp.TaxLinesToAdd[0].TaxAmountCurrency.Equal(dec("-7.5")))
}

func TestComputeTaxesRefundRepartition(t *testing.T) {
	in := BaseLineInput{
		Line:      &ledger.Line{},
		Taxes:     []*ledger.Tax{percentTax(1, "10")},
		PriceUnit: dec("100"),
		Quantity:  decimal.NewFromInt(1),
		Currency:  eur(),
		Rate:      decimal.NewFromInt(1),
		IsRefund:  true,
		Sign:      1,
	}

	comp, err := FlatTaxComputer{}.ComputeTaxes([]BaseLineInput{in}, nil, eur(), false)
	require.NoError(t, err)

	assert.Equal(t, []int64{103}, comp.BaseLinesToUpdate[0].TaxTagIDs)
	tv := comp.TaxLinesToAdd[0]
	assert.Equal(t, int64(14), tv.RepartitionLineID)
	assert.Equal(t, []int64{104}, tv.TagIDs)
}

func TestComputeTaxesForeignRateRoundsCompanyAmounts(t *testing.T) {
	// Document in USD at 1.0837 USD per EUR; company amounts divide by the
	// rate and round in EUR.
	usd := money.NewCurrency("USD", 2, money.RoundHalfUp)
	in := BaseLineInput{
		Line:      &ledger.Line{},
		Taxes:     []*ledger.Tax{percentTax(1, "10")},
		PriceUnit: dec("100"),
		Quantity:  decimal.NewFromInt(1),
		Currency:  usd,
		Rate:      dec("1.0837"),
		Sign:      -1,
	}

	comp, err := FlatTaxComputer{}.ComputeTaxes([]BaseLineInput{in}, nil, eur(), false)
	require.NoError(t, err)

	tv := comp.TaxLinesToAdd[0]
	assert.True(t, tv.TaxAmountCurrency.Equal(dec("-10")))
	// -10 / 1.0837 = -9.2276... -> -9.23 EUR
	assert.True(t, tv.TaxAmount.Equal(dec("-9.23")), "got %s", tv.TaxAmount)
	assert.True(t, tv.BaseAmount.Equal(dec("-92.28")), "got %s", tv.BaseAmount)
}

func TestComputeTaxesFactorSplit(t *testing.T) {
	half := percentTax(5, "20")
	half.InvoiceRepartition = []ledger.TaxRepartitionLine{
		{ID: 51, TaxID: 5, Type: "base", Factor: decimal.NewFromInt(1)},
		{ID: 52, TaxID: 5, Type: "tax", Factor: dec("0.5"), AccountID: 251},
		{ID: 53, TaxID: 5, Type: "tax", Factor: dec("0.5"), AccountID: 252},
	}

	in := BaseLineInput{
		Line:      &ledger.Line{},
		Taxes:     []*ledger.Tax{half},
		PriceUnit: dec("100"),
		Quantity:  decimal.NewFromInt(1),
		Currency:  eur(),
		Rate:      decimal.NewFromInt(1),
		Sign:      -1,
	}

	comp, err := FlatTaxComputer{}.ComputeTaxes([]BaseLineInput{in}, nil, eur(), false)
	require.NoError(t, err)

	require.Len(t, comp.TaxLinesToAdd, 2)
	assert.True(t, comp.TaxLinesToAdd[0].TaxAmountCurrency.Equal(dec("-10")))
	assert.True(t, comp.TaxLinesToAdd[1].TaxAmountCurrency.Equal(dec("-10")))
	assert.Equal(t, int64(251), comp.TaxLinesToAdd[0].AccountID)
	assert.Equal(t, int64(252), comp.TaxLinesToAdd[1].AccountID)
}
