package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/bookkeep/internal/money"
)

// Journal groups moves of one business stream and carries sequencing and
// hash-chain policy.
type Journal struct {
	ID        int64
	Code      string
	Name      string
	Type      JournalType
	CompanyID int64
	Active    bool

	// RefundSequence gives credit notes a disjoint "R" sub-series;
	// PaymentSequence does the same with "P" for payment-origin moves.
	RefundSequence  bool
	PaymentSequence bool

	// HashChain enables the append-only hash chain for posted entries.
	HashChain bool

	// SequenceOverride, when set, replaces the deduced name template.
	SequenceOverride string
}

// AccountType classifies accounts for payment-term line selection.
type AccountType string

const (
	AccountReceivable AccountType = "asset_receivable"
	AccountPayable    AccountType = "liability_payable"
	AccountIncome     AccountType = "income"
	AccountExpense    AccountType = "expense"
	AccountTax        AccountType = "liability_tax"
	AccountSuspense   AccountType = "asset_suspense"
	AccountOther      AccountType = "other"
)

// Account is one chart-of-accounts entry.
type Account struct {
	ID         int64
	Code       string
	Name       string
	Type       AccountType
	CompanyID  int64
	Deprecated bool
}

// Partner is the counterparty master record.
type Partner struct {
	ID           int64
	Name         string
	Active       bool
	ReceivableID int64 // preferred receivable account, 0 = company default
	PayableID    int64
}

// Company carries currency context, lock dates, and fallback accounts.
type Company struct {
	ID           int64
	Name         string
	CurrencyCode string
	CountryCode  string

	FiscalLockDate time.Time // period lock, zero = none
	TaxLockDate    time.Time

	// Fiscal year boundary for fiscal-year sequence resets.
	FiscalYearLastDay   int
	FiscalYearLastMonth time.Month

	// Fallback accounts used when nothing better can be deduced.
	ReceivableAccountID int64
	PayableAccountID    int64
	SuspenseAccountID   int64 // auto-balance target for generic entries
	EPDAccountID        int64 // early-payment-discount counterpart
	DiscountAccountID   int64 // discount-allocation counterpart
}

// Tax describes one tax with its repartition.
type Tax struct {
	ID           int64
	Name         string
	Amount       decimal.Decimal // percent, or fixed amount per unit
	AmountType   string          // "percent" | "fixed"
	PriceInclude bool
	CountryCode  string

	// Invoice and refund repartitions are separate; the evaluator picks
	// by the document's refund flag.
	InvoiceRepartition []TaxRepartitionLine
	RefundRepartition  []TaxRepartitionLine
}

// TaxRepartitionLine splits a computed tax across accounts and report tags.
type TaxRepartitionLine struct {
	ID        int64
	TaxID     int64
	Type      string          // "base" | "tax"
	Factor    decimal.Decimal // fraction of the tax amount, 1 = all of it
	AccountID int64
	TagIDs    []int64
}

// RepartitionFor returns the repartition set matching the refund flag.
func (t *Tax) RepartitionFor(isRefund bool) []TaxRepartitionLine {
	if isRefund && len(t.RefundRepartition) > 0 {
		return t.RefundRepartition
	}
	return t.InvoiceRepartition
}

// EPDComputation selects how an early-payment discount interacts with tax.
type EPDComputation string

const (
	EPDIncluded EPDComputation = "included"
	EPDExcluded EPDComputation = "excluded"
	// EPDMixed reduces the taxable base by the discount percentage via a
	// pair of offsetting EPD lines.
	EPDMixed EPDComputation = "mixed"
)

// PaymentTerm describes the installment schedule policy.
type PaymentTerm struct {
	ID    int64
	Name  string
	Lines []PaymentTermLine

	EarlyDiscount      bool
	DiscountPercentage decimal.Decimal // e.g. 2 for 2%
	DiscountDays       int
	EPDComputation     EPDComputation
}

// PaymentTermLine is one installment: a percentage of the total due after
// an offset in days.
type PaymentTermLine struct {
	ValuePercent decimal.Decimal // share of the total, 0..100
	Days         int
}

// CashRoundingStrategy selects where the rounding delta lands.
type CashRoundingStrategy string

const (
	// RoundingAddLine books the delta on a dedicated profit/loss line.
	RoundingAddLine CashRoundingStrategy = "add_invoice_line"
	// RoundingBiggestTax adjusts the largest-magnitude tax line instead.
	RoundingBiggestTax CashRoundingStrategy = "biggest_tax"
)

// CashRounding is the smallest-coinage policy applied to invoice totals.
type CashRounding struct {
	ID              int64
	Name            string
	Rounding        decimal.Decimal // coinage step, e.g. 0.05
	Strategy        CashRoundingStrategy
	ProfitAccountID int64
	LossAccountID   int64
	Mode            money.RoundingMode
}

// FiscalPosition remaps accounts per partner fiscality.
type FiscalPosition struct {
	ID         int64
	Name       string
	AccountMap map[int64]int64 // source account id → mapped account id
}

// MapAccount applies the account map, returning the input when unmapped.
func (f *FiscalPosition) MapAccount(accountID int64) int64 {
	if f == nil {
		return accountID
	}
	if mapped, ok := f.AccountMap[accountID]; ok {
		return mapped
	}
	return accountID
}
