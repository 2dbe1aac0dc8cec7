package ledger

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Line is one debit/credit item of a move.
//
// Balance is signed and expressed in the company currency;
// AmountCurrency is signed and expressed in the move's document currency.
// Outside the preserve-tax-amounts window the two are tied by
// round_company(AmountCurrency / rate) == Balance.
type Line struct {
	ID          int64 // store id, 0 while unsaved
	MoveID      int64
	Name        string
	DisplayType DisplayType

	AccountID    int64
	PartnerID    int64
	CurrencyCode string

	Balance        decimal.Decimal
	AmountCurrency decimal.Decimal

	// Product-line pricing.
	Quantity      decimal.Decimal
	PriceUnit     decimal.Decimal
	Discount      decimal.Decimal // percentage, 0..100
	PriceSubtotal decimal.Decimal
	PriceTotal    decimal.Decimal

	// Tax wiring. TaxIDs sit on base lines; the remaining three identify a
	// tax line produced by the tax synchronizer.
	TaxIDs               []int64
	TaxLineID            int64
	TaxRepartitionLineID int64
	TaxBaseAmount        decimal.Decimal
	TaxTagIDs            []int64

	// Payment-term lines.
	DateMaturity time.Time
	DiscountDate time.Time

	AnalyticDistribution map[int64]decimal.Decimal
}

// Debit returns the positive part of the balance, Credit the negated
// negative part. They are projections, not stored fields.
func (l *Line) Debit() decimal.Decimal {
	if l.Balance.IsPositive() {
		return l.Balance
	}
	return decimal.Zero
}

func (l *Line) Credit() decimal.Decimal {
	if l.Balance.IsNegative() {
		return l.Balance.Neg()
	}
	return decimal.Zero
}

// ContributesToTotals reports whether the line participates in balance
// and amount aggregation. Section labels and notes never do.
func (l *Line) ContributesToTotals() bool {
	return !l.DisplayType.IsNarration()
}

// IsTaxBase reports whether the line feeds the tax computation as a base.
func (l *Line) IsTaxBase() bool {
	switch l.DisplayType {
	case DisplayProduct, DisplayEPD, DisplayRounding:
		return len(l.TaxIDs) > 0 || l.DisplayType == DisplayProduct
	}
	return false
}

// Clone returns a deep copy of the line with a cleared store id.
// Used by the reversal engine and the autopost recurrence copier.
func (l *Line) Clone() *Line {
	c := *l
	c.ID = 0
	c.MoveID = 0
	c.TaxIDs = append([]int64(nil), l.TaxIDs...)
	c.TaxTagIDs = append([]int64(nil), l.TaxTagIDs...)
	if l.AnalyticDistribution != nil {
		c.AnalyticDistribution = make(map[int64]decimal.Decimal, len(l.AnalyticDistribution))
		for k, v := range l.AnalyticDistribution {
			c.AnalyticDistribution[k] = v
		}
	}
	return &c
}

// GroupingKey identifies "the same derived line across edits". Two lines
// with equal keys are updated in place by the diff engine instead of being
// unlinked and recreated.
//
// The key is a normalized string: empty and missing values are identical,
// and multivalued id sets compare order-insensitively.
type GroupingKey string

// GroupingKeyFields selects which attributes participate in the key for a
// derived display type.
type GroupingKeyFields struct {
	Account        bool
	Partner        bool
	Currency       bool
	TaxIDs         bool
	TaxTagIDs      bool
	TaxRepartition bool
	Analytic       bool
	DateMaturity   bool
	DiscountDate   bool
}

// KeyFieldsFor returns the grouping-key attribute set used for each
// derived display type.
func KeyFieldsFor(d DisplayType) GroupingKeyFields {
	switch d {
	case DisplayTax:
		return GroupingKeyFields{
			Account: true, Partner: true, Currency: true,
			TaxIDs: true, TaxTagIDs: true, TaxRepartition: true, Analytic: true,
		}
	case DisplayPaymentTerm:
		return GroupingKeyFields{
			Account: true, Partner: true, Currency: true,
			DateMaturity: true, DiscountDate: true,
		}
	case DisplayEPD, DisplayDiscount:
		return GroupingKeyFields{
			Account: true, Partner: true, Currency: true,
			TaxIDs: true, TaxTagIDs: true, Analytic: true,
		}
	default:
		return GroupingKeyFields{Account: true, Partner: true, Currency: true}
	}
}

// Key computes the line's grouping key for its display type.
func (l *Line) Key() GroupingKey {
	return l.KeyWith(KeyFieldsFor(l.DisplayType))
}

// KeyWith computes a grouping key over an explicit attribute set.
func (l *Line) KeyWith(f GroupingKeyFields) GroupingKey {
	var b strings.Builder
	if f.Account {
		fmt.Fprintf(&b, "account=%d;", l.AccountID)
	}
	if f.Partner {
		fmt.Fprintf(&b, "partner=%d;", l.PartnerID)
	}
	if f.Currency {
		fmt.Fprintf(&b, "currency=%s;", l.CurrencyCode)
	}
	if f.TaxIDs {
		fmt.Fprintf(&b, "taxes=%s;", normalizeIDs(l.TaxIDs))
	}
	if f.TaxTagIDs {
		fmt.Fprintf(&b, "tags=%s;", normalizeIDs(l.TaxTagIDs))
	}
	if f.TaxRepartition {
		fmt.Fprintf(&b, "rep=%d;", l.TaxRepartitionLineID)
	}
	if f.Analytic {
		fmt.Fprintf(&b, "analytic=%s;", normalizeAnalytic(l.AnalyticDistribution))
	}
	if f.DateMaturity {
		fmt.Fprintf(&b, "maturity=%s;", normalizeDate(l.DateMaturity))
	}
	if f.DiscountDate {
		fmt.Fprintf(&b, "discount=%s;", normalizeDate(l.DiscountDate))
	}
	return GroupingKey(b.String())
}

// normalizeIDs renders an id set order-insensitively; nil and empty are
// the same key component.
func normalizeIDs(ids []int64) string {
	if len(ids) == 0 {
		return ""
	}
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ",")
}

func normalizeAnalytic(dist map[int64]decimal.Decimal) string {
	if len(dist) == 0 {
		return ""
	}
	keys := make([]int64, 0, len(dist))
	for k := range dist {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%d:%s", k, dist[k].String())
	}
	return strings.Join(parts, ",")
}

func normalizeDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
