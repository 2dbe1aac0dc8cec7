package testutil

import (
	"github.com/shopspring/decimal"

	"github.com/roach88/bookkeep/internal/ledger"
	"github.com/roach88/bookkeep/internal/money"
)

// Well-known fixture ids, shared by every engine test so scenarios read
// the same across packages.
const (
	CompanyID int64 = 1

	SaleJournalID     int64 = 1
	PurchaseJournalID int64 = 2
	GeneralJournalID  int64 = 3

	IncomeAccountID     int64 = 400
	ExpenseAccountID    int64 = 600
	ReceivableAccountID int64 = 121
	PayableAccountID    int64 = 211
	TaxAccountID        int64 = 251
	SuspenseAccountID   int64 = 499
	EPDAccountID        int64 = 709
	DiscountAccountID   int64 = 708
	RoundingProfitID    int64 = 711
	RoundingLossID      int64 = 712

	PartnerID int64 = 10

	Tax10ID    int64 = 1 // 10% on top of the price
	Tax15IncID int64 = 2 // 15% included in the price

	TermNet30ID    int64 = 1 // single installment at 30 days
	TermHalvesID   int64 = 2 // 50% now, 50% at 60 days
	TermEarlyEPDID int64 = 3 // 2% off within 10 days, net 30, mixed EPD

	RoundingAddLineID    int64 = 1
	RoundingBiggestTaxID int64 = 2
)

// NewRegistry builds the standard master-data fixture: one EUR company
// with sale, purchase, and general journals, a 10% tax, a 15% included
// tax, three payment terms, and two 0.05 cash-rounding policies.
func NewRegistry() *ledger.Registry {
	reg := ledger.NewRegistry()

	reg.Currencies["EUR"] = money.NewCurrency("EUR", 2, money.RoundHalfUp)
	reg.Currencies["USD"] = money.NewCurrency("USD", 2, money.RoundHalfUp)

	reg.Companies[CompanyID] = &ledger.Company{
		ID:                  CompanyID,
		Name:                "Test Co",
		CurrencyCode:        "EUR",
		CountryCode:         "BE",
		ReceivableAccountID: ReceivableAccountID,
		PayableAccountID:    PayableAccountID,
		SuspenseAccountID:   SuspenseAccountID,
		EPDAccountID:        EPDAccountID,
		DiscountAccountID:   DiscountAccountID,
	}

	reg.Journals[SaleJournalID] = &ledger.Journal{
		ID: SaleJournalID, Code: "INV", Name: "Customer Invoices",
		Type: ledger.JournalSale, CompanyID: CompanyID, Active: true,
		RefundSequence: true,
	}
	reg.Journals[PurchaseJournalID] = &ledger.Journal{
		ID: PurchaseJournalID, Code: "BILL", Name: "Vendor Bills",
		Type: ledger.JournalPurchase, CompanyID: CompanyID, Active: true,
	}
	reg.Journals[GeneralJournalID] = &ledger.Journal{
		ID: GeneralJournalID, Code: "MISC", Name: "Miscellaneous",
		Type: ledger.JournalGeneral, CompanyID: CompanyID, Active: true,
	}

	for id, acc := range map[int64]*ledger.Account{
		IncomeAccountID:     {Code: "400000", Name: "Product Sales", Type: ledger.AccountIncome},
		ExpenseAccountID:    {Code: "600000", Name: "Expenses", Type: ledger.AccountExpense},
		ReceivableAccountID: {Code: "121000", Name: "Account Receivable", Type: ledger.AccountReceivable},
		PayableAccountID:    {Code: "211000", Name: "Account Payable", Type: ledger.AccountPayable},
		TaxAccountID:        {Code: "251000", Name: "Tax Received", Type: ledger.AccountTax},
		SuspenseAccountID:   {Code: "499000", Name: "Suspense", Type: ledger.AccountSuspense},
		EPDAccountID:        {Code: "709000", Name: "Cash Discount Granted", Type: ledger.AccountExpense},
		DiscountAccountID:   {Code: "708000", Name: "Global Discounts", Type: ledger.AccountExpense},
		RoundingProfitID:    {Code: "711000", Name: "Rounding Profit", Type: ledger.AccountOther},
		RoundingLossID:      {Code: "712000", Name: "Rounding Loss", Type: ledger.AccountOther},
	} {
		acc.ID = id
		acc.CompanyID = CompanyID
		reg.Accounts[id] = acc
	}

	reg.Partners[PartnerID] = &ledger.Partner{ID: PartnerID, Name: "Azure Interior", Active: true}

	reg.Taxes[Tax10ID] = &ledger.Tax{
		ID: Tax10ID, Name: "10%", Amount: decimal.NewFromInt(10), AmountType: "percent",
		InvoiceRepartition: []ledger.TaxRepartitionLine{
			{ID: 11, TaxID: Tax10ID, Type: "base", Factor: decimal.NewFromInt(1), TagIDs: []int64{101}},
			{ID: 12, TaxID: Tax10ID, Type: "tax", Factor: decimal.NewFromInt(1), AccountID: TaxAccountID, TagIDs: []int64{102}},
		},
		RefundRepartition: []ledger.TaxRepartitionLine{
			{ID: 13, TaxID: Tax10ID, Type: "base", Factor: decimal.NewFromInt(1), TagIDs: []int64{103}},
			{ID: 14, TaxID: Tax10ID, Type: "tax", Factor: decimal.NewFromInt(1), AccountID: TaxAccountID, TagIDs: []int64{104}},
		},
	}
	reg.Taxes[Tax15IncID] = &ledger.Tax{
		ID: Tax15IncID, Name: "15% incl", Amount: decimal.NewFromInt(15), AmountType: "percent",
		PriceInclude: true,
		InvoiceRepartition: []ledger.TaxRepartitionLine{
			{ID: 21, TaxID: Tax15IncID, Type: "base", Factor: decimal.NewFromInt(1)},
			{ID: 22, TaxID: Tax15IncID, Type: "tax", Factor: decimal.NewFromInt(1), AccountID: TaxAccountID},
		},
	}

	reg.PaymentTerms[TermNet30ID] = &ledger.PaymentTerm{
		ID: TermNet30ID, Name: "30 Days",
		Lines: []ledger.PaymentTermLine{{ValuePercent: decimal.NewFromInt(100), Days: 30}},
	}
	reg.PaymentTerms[TermHalvesID] = &ledger.PaymentTerm{
		ID: TermHalvesID, Name: "50% Now, Balance 60 Days",
		Lines: []ledger.PaymentTermLine{
			{ValuePercent: decimal.NewFromInt(50), Days: 0},
			{ValuePercent: decimal.NewFromInt(50), Days: 60},
		},
	}
	reg.PaymentTerms[TermEarlyEPDID] = &ledger.PaymentTerm{
		ID: TermEarlyEPDID, Name: "2/10 Net 30",
		Lines:              []ledger.PaymentTermLine{{ValuePercent: decimal.NewFromInt(100), Days: 30}},
		EarlyDiscount:      true,
		DiscountPercentage: decimal.NewFromInt(2),
		DiscountDays:       10,
		EPDComputation:     ledger.EPDMixed,
	}

	reg.CashRoundings[RoundingAddLineID] = &ledger.CashRounding{
		ID: RoundingAddLineID, Name: "5 cents, dedicated line",
		Rounding: money.MustParse("0.05"), Strategy: ledger.RoundingAddLine,
		ProfitAccountID: RoundingProfitID, LossAccountID: RoundingLossID,
		Mode: money.RoundHalfUp,
	}
	reg.CashRoundings[RoundingBiggestTaxID] = &ledger.CashRounding{
		ID: RoundingBiggestTaxID, Name: "5 cents, biggest tax",
		Rounding: money.MustParse("0.05"), Strategy: ledger.RoundingBiggestTax,
		Mode: money.RoundHalfUp,
	}

	return reg
}

// Invoice builds a draft customer invoice on the sale journal.
func Invoice() *ledger.Move {
	return &ledger.Move{
		Name:         ledger.PlaceholderName,
		State:        ledger.StateDraft,
		MoveType:     ledger.MoveTypeCustomerInvoice,
		JournalID:    SaleJournalID,
		CompanyID:    CompanyID,
		PartnerID:    PartnerID,
		CurrencyCode: "EUR",
		Date:         Date(2026, 3, 15),
		InvoiceDate:  Date(2026, 3, 15),
	}
}

// Entry builds a draft generic entry on the general journal.
func Entry() *ledger.Move {
	return &ledger.Move{
		Name:         ledger.PlaceholderName,
		State:        ledger.StateDraft,
		MoveType:     ledger.MoveTypeEntry,
		JournalID:    GeneralJournalID,
		CompanyID:    CompanyID,
		CurrencyCode: "EUR",
		Date:         Date(2026, 3, 15),
	}
}

// ProductLine builds a product line priced in EUR with optional taxes.
func ProductLine(name string, qty, price int64, taxIDs ...int64) *ledger.Line {
	return &ledger.Line{
		Name:         name,
		DisplayType:  ledger.DisplayProduct,
		AccountID:    IncomeAccountID,
		PartnerID:    PartnerID,
		CurrencyCode: "EUR",
		Quantity:     decimal.NewFromInt(qty),
		PriceUnit:    decimal.NewFromInt(price),
		TaxIDs:       taxIDs,
	}
}
