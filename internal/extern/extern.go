// Package extern declares the interfaces of the engine's out-of-scope
// collaborators: the tax formula evaluator, the payment-term schedule
// evaluator, the historical account suggester, and the reversal
// reconciler. Default in-process implementations live in taxes.go and
// terms.go; production deployments swap in their own.
package extern

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/bookkeep/internal/ledger"
	"github.com/roach88/bookkeep/internal/money"
)

// BaseLineInput is one taxable base handed to the tax evaluator.
type BaseLineInput struct {
	Line      *ledger.Line
	Taxes     []*ledger.Tax
	PriceUnit decimal.Decimal
	Quantity  decimal.Decimal
	Discount  decimal.Decimal // percentage 0..100
	Currency  money.Currency
	Rate      decimal.Decimal // document units per company unit
	PartnerID int64
	Analytic  map[int64]decimal.Decimal
	IsRefund  bool

	// Sign is the document sign carried onto the computed amounts
	// (-1 books sales bases as credits).
	Sign int
}

// BaseLineUpdate carries the fields the tax evaluator pushes back onto a
// base line.
type BaseLineUpdate struct {
	Line          *ledger.Line
	TaxTagIDs     []int64
	PriceSubtotal decimal.Decimal
	PriceTotal    decimal.Decimal
}

// TaxLineValues is one computed tax amount attributed to a repartition
// line. The tax synchronizer aggregates these by grouping key.
type TaxLineValues struct {
	TaxID             int64
	TaxName           string
	RepartitionLineID int64
	AccountID         int64
	TagIDs            []int64
	PartnerID         int64
	CurrencyCode      string
	Analytic          map[int64]decimal.Decimal

	TaxAmountCurrency  decimal.Decimal // document currency, signed
	TaxAmount          decimal.Decimal // company currency, signed
	BaseAmountCurrency decimal.Decimal
	BaseAmount         decimal.Decimal
}

// TaxComputation is the evaluator's full result for one move.
type TaxComputation struct {
	BaseLinesToUpdate []BaseLineUpdate
	TaxLinesToAdd     []TaxLineValues

	// PreserveTaxAmounts routes the tax synchronizer onto the alternate
	// path that recomputes only company-currency balances, keeping
	// manually adjusted document-currency amounts intact.
	PreserveTaxAmounts bool
}

// TaxComputer evaluates tax formulas over a set of base lines.
type TaxComputer interface {
	ComputeTaxes(base []BaseLineInput, company *ledger.Company, companyCurrency money.Currency, includeCashBasis bool) (*TaxComputation, error)
}

// Installment is one payment-term schedule entry.
type Installment struct {
	Date          time.Time
	CompanyAmount decimal.Decimal // signed, company currency
	ForeignAmount decimal.Decimal // signed, document currency
}

// PaymentTermResult is the schedule evaluator's output.
type PaymentTermResult struct {
	Installments []Installment

	// Early-payment discount window, zero when the term has none.
	DiscountDate           time.Time
	DiscountBalance        decimal.Decimal
	DiscountAmountCurrency decimal.Decimal
}

// TermInput aggregates everything the schedule evaluator needs.
type TermInput struct {
	Term            *ledger.PaymentTerm // nil means one line due at anchor
	Anchor          time.Time
	Currency        money.Currency
	CompanyCurrency money.Currency
	Untaxed         decimal.Decimal // company currency, unsigned
	UntaxedCurrency decimal.Decimal
	Tax             decimal.Decimal
	TaxCurrency     decimal.Decimal
	Sign            int // sign applied to the produced amounts
}

// TermComputer evaluates payment-term schedules.
type TermComputer interface {
	ComputeTerms(in TermInput) (*PaymentTermResult, error)
}

// AccountSuggester answers "most frequently used account for this partner
// on lines of this display type" from posting history. Zero means no
// suggestion; callers fall back to the company defaults.
type AccountSuggester interface {
	MostFrequentAccount(partnerID int64, moveType ledger.MoveType, displayType ledger.DisplayType) int64
}

// NoSuggestion is the null AccountSuggester.
type NoSuggestion struct{}

func (NoSuggestion) MostFrequentAccount(int64, ledger.MoveType, ledger.DisplayType) int64 { return 0 }

// Reconciler matches a posted reversal against the move it offsets, so a
// cancelled invoice shows no open balance. The engine never reconciles
// itself; the payment subsystem owns that ledger.
type Reconciler interface {
	Reconcile(ctx context.Context, original, reversal *ledger.Move) error
}

// NoReconciliation is the null Reconciler.
type NoReconciliation struct{}

func (NoReconciliation) Reconcile(context.Context, *ledger.Move, *ledger.Move) error { return nil }
