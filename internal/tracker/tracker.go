// Package tracker records per-field before/after snapshots of a move and
// its lines across a transactional section, so the sync pipeline can ask
// "did anything tax-relevant change" instead of recomputing everything.
//
// The tracker is reentrant: nested scopes may extend the observed-field
// set but never shrink it. Values are compared through a rendered string
// form, which keeps the snapshot independent of the mutable object graph.
package tracker

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/bookkeep/internal/ledger"
)

// Move header fields the pipeline is sensitive to.
const (
	FieldPartner        = "partner_id"
	FieldCurrency       = "currency_id"
	FieldCurrencyRate   = "currency_rate"
	FieldPaymentTerm    = "invoice_payment_term_id"
	FieldCashRounding   = "invoice_cash_rounding_id"
	FieldFiscalPosition = "fiscal_position_id"
	FieldInvoiceDate    = "invoice_date"
	FieldDate           = "date"
	FieldQuickEditTotal = "quick_edit_total_amount"

	// Line fields.
	FieldLineAccount  = "account_id"
	FieldLineBalance  = "balance"
	FieldLineAmount   = "amount_currency"
	FieldLinePrice    = "price_unit"
	FieldLineQuantity = "quantity"
	FieldLineDiscount = "discount"
	FieldLineTaxes    = "tax_ids"
	FieldLinePartner  = "line_partner_id"
)

// DefaultMoveFields is the sync-sensitive header field set.
var DefaultMoveFields = []string{
	FieldPartner, FieldCurrency, FieldCurrencyRate, FieldPaymentTerm,
	FieldCashRounding, FieldFiscalPosition, FieldInvoiceDate, FieldDate,
	FieldQuickEditTotal,
}

// DefaultLineFields is the sync-sensitive line field set.
var DefaultLineFields = []string{
	FieldLineAccount, FieldLineBalance, FieldLineAmount, FieldLinePrice,
	FieldLineQuantity, FieldLineDiscount, FieldLineTaxes, FieldLinePartner,
}

// Tracker observes one move across a scope.
type Tracker struct {
	moveFields map[string]bool
	lineFields map[string]bool

	before *snapshot
	after  *snapshot
}

type snapshot struct {
	move    map[string]string
	lines   map[*ledger.Line]map[string]string
	byType  map[ledger.DisplayType]int
	present map[*ledger.Line]bool
}

// New creates a tracker observing the given field names.
func New(moveFields, lineFields []string) *Tracker {
	t := &Tracker{
		moveFields: map[string]bool{},
		lineFields: map[string]bool{},
	}
	t.Extend(moveFields, lineFields)
	return t
}

// Extend widens the observed-field set. Nested scopes call this; nothing
// ever removes a field from an open tracker.
func (t *Tracker) Extend(moveFields, lineFields []string) {
	for _, f := range moveFields {
		t.moveFields[f] = true
	}
	for _, f := range lineFields {
		t.lineFields[f] = true
	}
}

// Before snapshots the move on scope entry.
func (t *Tracker) Before(m *ledger.Move) {
	t.before = t.capture(m)
	t.after = nil
}

// After snapshots the move on scope exit. Must follow Before.
func (t *Tracker) After(m *ledger.Move) {
	t.after = t.capture(m)
}

func (t *Tracker) capture(m *ledger.Move) *snapshot {
	s := &snapshot{
		move:    map[string]string{},
		lines:   map[*ledger.Line]map[string]string{},
		byType:  map[ledger.DisplayType]int{},
		present: map[*ledger.Line]bool{},
	}
	for f := range t.moveFields {
		s.move[f] = moveFieldValue(m, f)
	}
	for _, l := range m.Lines {
		vals := map[string]string{}
		for f := range t.lineFields {
			vals[f] = lineFieldValue(l, f)
		}
		s.lines[l] = vals
		s.byType[l.DisplayType]++
		s.present[l] = true
	}
	return s
}

// MoveFieldChanged reports whether any of the given header fields changed
// between the snapshots. Unobserved fields never report a change.
func (t *Tracker) MoveFieldChanged(fields ...string) bool {
	if t.before == nil || t.after == nil {
		return false
	}
	for _, f := range fields {
		if !t.moveFields[f] {
			continue
		}
		if t.before.move[f] != t.after.move[f] {
			return true
		}
	}
	return false
}

// LineFieldChanged reports whether any tracked line changed in one of the
// given fields, or whether any line was added.
func (t *Tracker) LineFieldChanged(fields ...string) bool {
	if t.before == nil || t.after == nil {
		return false
	}
	for l, afterVals := range t.after.lines {
		beforeVals, existed := t.before.lines[l]
		if !existed {
			return true // new line
		}
		for _, f := range fields {
			if !t.lineFields[f] {
				continue
			}
			if beforeVals[f] != afterVals[f] {
				return true
			}
		}
	}
	return false
}

// AnythingChanged reports a change in any observed field or in line
// membership.
func (t *Tracker) AnythingChanged() bool {
	if t.before == nil || t.after == nil {
		return false
	}
	if t.MoveFieldChanged(sortedKeys(t.moveFields)...) {
		return true
	}
	if t.LineFieldChanged(sortedKeys(t.lineFields)...) {
		return true
	}
	return len(t.before.present) != len(t.after.present)
}

// RemovedLines reports whether a line of the given display type was
// removed between the snapshots.
func (t *Tracker) RemovedLines(d ledger.DisplayType) bool {
	if t.before == nil || t.after == nil {
		return false
	}
	return t.after.byType[d] < t.before.byType[d]
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func moveFieldValue(m *ledger.Move, field string) string {
	switch field {
	case FieldPartner:
		return fmt.Sprintf("%d", m.PartnerID)
	case FieldCurrency:
		return m.CurrencyCode
	case FieldCurrencyRate:
		return m.CurrencyRate.String()
	case FieldPaymentTerm:
		return fmt.Sprintf("%d", m.PaymentTermID)
	case FieldCashRounding:
		return fmt.Sprintf("%d", m.CashRoundingID)
	case FieldFiscalPosition:
		return fmt.Sprintf("%d", m.FiscalPositionID)
	case FieldInvoiceDate:
		return m.InvoiceDate.Format("2006-01-02")
	case FieldDate:
		return m.Date.Format("2006-01-02")
	case FieldQuickEditTotal:
		return m.QuickEditTotal.String()
	}
	return ""
}

func lineFieldValue(l *ledger.Line, field string) string {
	switch field {
	case FieldLineAccount:
		return fmt.Sprintf("%d", l.AccountID)
	case FieldLineBalance:
		return l.Balance.String()
	case FieldLineAmount:
		return l.AmountCurrency.String()
	case FieldLinePrice:
		return l.PriceUnit.String()
	case FieldLineQuantity:
		return l.Quantity.String()
	case FieldLineDiscount:
		return l.Discount.String()
	case FieldLineTaxes:
		parts := make([]string, len(l.TaxIDs))
		for i, id := range l.TaxIDs {
			parts[i] = fmt.Sprintf("%d", id)
		}
		sort.Strings(parts)
		return strings.Join(parts, ",")
	case FieldLinePartner:
		return fmt.Sprintf("%d", l.PartnerID)
	}
	return ""
}
