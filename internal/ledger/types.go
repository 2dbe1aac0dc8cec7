// Package ledger defines the journal-entry object model: moves, lines,
// display types, the move state machine, and the master-data records the
// synchronizers resolve against (journals, companies, accounts, taxes,
// payment terms, cash-rounding policies).
//
// A Move owns its Lines as an ordered slice; lines do not hold a pointer
// back to the move. Callers that need the owner resolve it through the
// Registry, which acts as the transaction's identity map.
package ledger

import "fmt"

// MoveType tags the business document a move represents.
type MoveType string

const (
	MoveTypeEntry           MoveType = "entry"
	MoveTypeCustomerInvoice MoveType = "out_invoice"
	MoveTypeCustomerRefund  MoveType = "out_refund"
	MoveTypeCustomerReceipt MoveType = "out_receipt"
	MoveTypeVendorBill      MoveType = "in_invoice"
	MoveTypeVendorRefund    MoveType = "in_refund"
	MoveTypeVendorReceipt   MoveType = "in_receipt"
)

// ValidMoveTypes lists every accepted move type.
var ValidMoveTypes = []MoveType{
	MoveTypeEntry,
	MoveTypeCustomerInvoice,
	MoveTypeCustomerRefund,
	MoveTypeCustomerReceipt,
	MoveTypeVendorBill,
	MoveTypeVendorRefund,
	MoveTypeVendorReceipt,
}

// IsSaleDocument reports whether the type is customer-facing.
func (t MoveType) IsSaleDocument() bool {
	switch t {
	case MoveTypeCustomerInvoice, MoveTypeCustomerRefund, MoveTypeCustomerReceipt:
		return true
	}
	return false
}

// IsPurchaseDocument reports whether the type is vendor-facing.
func (t MoveType) IsPurchaseDocument() bool {
	switch t {
	case MoveTypeVendorBill, MoveTypeVendorRefund, MoveTypeVendorReceipt:
		return true
	}
	return false
}

// IsInvoice reports whether the type is any invoice-like document
// (everything except a generic entry).
func (t MoveType) IsInvoice() bool {
	return t != MoveTypeEntry && t.Valid()
}

// IsRefund reports whether the type is a credit note.
func (t MoveType) IsRefund() bool {
	return t == MoveTypeCustomerRefund || t == MoveTypeVendorRefund
}

// Valid reports whether t is a known move type.
func (t MoveType) Valid() bool {
	for _, v := range ValidMoveTypes {
		if t == v {
			return true
		}
	}
	return false
}

// DocumentSign returns the sign convention for invoice totals: sales
// documents book negative balances on income lines, purchases positive.
// Refunds flip the sign of their base document.
func (t MoveType) DocumentSign() int {
	switch t {
	case MoveTypeCustomerInvoice, MoveTypeCustomerReceipt, MoveTypeVendorRefund:
		return -1
	case MoveTypeVendorBill, MoveTypeVendorReceipt, MoveTypeCustomerRefund:
		return 1
	default:
		return 1
	}
}

// State is the move lifecycle state.
type State string

const (
	StateDraft     State = "draft"
	StatePosted    State = "posted"
	StateCancelled State = "cancel"
)

// DisplayType tags the functional role of a line. The pipeline dispatches
// to exactly one synchronizer per derived tag; there is no subclassing.
type DisplayType string

const (
	DisplayProduct     DisplayType = "product"
	DisplayTax         DisplayType = "tax"
	DisplayPaymentTerm DisplayType = "payment_term"
	DisplayRounding    DisplayType = "rounding"
	DisplayEPD         DisplayType = "epd"
	DisplayDiscount    DisplayType = "discount"
	DisplayAutoBalance DisplayType = "balance"
	DisplaySection     DisplayType = "line_section"
	DisplayNote        DisplayType = "line_note"
)

// IsNarration reports whether the line is presentational only
// (section label or note); such lines contribute zero to every total.
func (d DisplayType) IsNarration() bool {
	return d == DisplaySection || d == DisplayNote
}

// IsDerived reports whether lines of this type are owned by a
// synchronizer rather than entered by the user.
func (d DisplayType) IsDerived() bool {
	switch d {
	case DisplayTax, DisplayPaymentTerm, DisplayRounding, DisplayEPD, DisplayDiscount, DisplayAutoBalance:
		return true
	}
	return false
}

// AutoPost is the automatic posting policy on a draft.
type AutoPost string

const (
	AutoPostNo        AutoPost = "no"
	AutoPostAtDate    AutoPost = "at_date"
	AutoPostMonthly   AutoPost = "monthly"
	AutoPostQuarterly AutoPost = "quarterly"
	AutoPostYearly    AutoPost = "yearly"
)

// MonthDelta returns the recurrence interval in months, or 0 for
// non-recurring policies.
func (a AutoPost) MonthDelta() int {
	switch a {
	case AutoPostMonthly:
		return 1
	case AutoPostQuarterly:
		return 3
	case AutoPostYearly:
		return 12
	}
	return 0
}

// JournalType constrains which move types a journal accepts.
type JournalType string

const (
	JournalSale     JournalType = "sale"
	JournalPurchase JournalType = "purchase"
	JournalCash     JournalType = "cash"
	JournalBank     JournalType = "bank"
	JournalGeneral  JournalType = "general"
)

// Accepts reports whether a journal of this type may carry the move type.
func (j JournalType) Accepts(t MoveType) bool {
	switch {
	case t.IsSaleDocument():
		return j == JournalSale
	case t.IsPurchaseDocument():
		return j == JournalPurchase
	case t == MoveTypeEntry:
		return true
	default:
		return false
	}
}

// PlaceholderName is the name carried by moves that have not been
// sequenced yet. It is excluded from the posted-name uniqueness rule.
const PlaceholderName = "/"

func (t MoveType) String() string { return string(t) }

// DisplayLabel returns a human label for error messages.
func (t MoveType) DisplayLabel() string {
	switch t {
	case MoveTypeEntry:
		return "Journal Entry"
	case MoveTypeCustomerInvoice:
		return "Invoice"
	case MoveTypeCustomerRefund:
		return "Credit Note"
	case MoveTypeCustomerReceipt:
		return "Sales Receipt"
	case MoveTypeVendorBill:
		return "Vendor Bill"
	case MoveTypeVendorRefund:
		return "Vendor Credit Note"
	case MoveTypeVendorReceipt:
		return "Purchase Receipt"
	}
	return fmt.Sprintf("Unknown (%s)", string(t))
}
