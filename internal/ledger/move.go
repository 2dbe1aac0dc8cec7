package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Move is a journal entry: a header plus its debit/credit lines.
//
// The move owns its lines; Lines order is stable and significant for
// presentation only. All derived lines (tax, payment-term, rounding, EPD,
// discount, auto-balance) are regenerated by the sync pipeline and must
// never be edited directly once a synchronizer owns them.
type Move struct {
	ID   int64
	UUID string // stable token assigned at creation, before any name exists

	Name            string
	Ref             string
	State           State
	MoveType        MoveType
	JournalID       int64
	CompanyID       int64
	PartnerID       int64
	CurrencyCode    string
	CurrencyRate    decimal.Decimal // document units per one company unit
	Date            time.Time       // accounting date
	InvoiceDate     time.Time
	DueDate         time.Time
	PaymentTermID   int64
	CashRoundingID  int64
	FiscalPositionID int64

	SequencePrefix  string
	SequenceNumber  int
	MadeSequenceGap bool

	Hash         string // "$<version>$<hex>" once chained, empty otherwise
	PostedBefore bool
	ToCheck      bool

	AutoPost         AutoPost
	AutoPostUntil    time.Time
	AutoPostOriginID int64

	ReversedEntryID int64

	// Quick-edit mode: the user types a tax-included total and the
	// pipeline seeds a single suggested product line from it.
	QuickEditTotal decimal.Decimal
	QuickEditMode  bool

	Lines []*Line
}

// LinesOf returns the lines carrying the given display type, in order.
func (m *Move) LinesOf(d DisplayType) []*Line {
	var out []*Line
	for _, l := range m.Lines {
		if l.DisplayType == d {
			out = append(out, l)
		}
	}
	return out
}

// ProductLines returns the primary base lines.
func (m *Move) ProductLines() []*Line { return m.LinesOf(DisplayProduct) }

// TaxBaseLines returns every line feeding the tax computation:
// product lines plus EPD base lines carrying taxes.
func (m *Move) TaxBaseLines() []*Line {
	var out []*Line
	for _, l := range m.Lines {
		if l.DisplayType == DisplayProduct {
			out = append(out, l)
			continue
		}
		if (l.DisplayType == DisplayEPD || l.DisplayType == DisplayRounding) && len(l.TaxIDs) > 0 {
			out = append(out, l)
		}
	}
	return out
}

// TotalBalance sums line balances in company currency. Zero for a
// balanced entry.
func (m *Move) TotalBalance() decimal.Decimal {
	total := decimal.Zero
	for _, l := range m.Lines {
		if l.ContributesToTotals() {
			total = total.Add(l.Balance)
		}
	}
	return total
}

// AmountUntaxed returns the document-currency untaxed total with the
// invoice display sign (positive for a normal invoice).
func (m *Move) AmountUntaxed() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range m.Lines {
		switch l.DisplayType {
		case DisplayProduct, DisplayEPD, DisplayDiscount:
			sum = sum.Add(l.AmountCurrency)
		}
	}
	return sum.Mul(decimal.NewFromInt(int64(m.MoveType.DocumentSign())))
}

// AmountTax returns the document-currency tax total with the invoice
// display sign.
func (m *Move) AmountTax() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range m.LinesOf(DisplayTax) {
		sum = sum.Add(l.AmountCurrency)
	}
	return sum.Mul(decimal.NewFromInt(int64(m.MoveType.DocumentSign())))
}

// AmountTotal returns the signed document total. For generic entries it
// is the sum of debits instead of an invoice total.
func (m *Move) AmountTotal() decimal.Decimal {
	if m.MoveType == MoveTypeEntry {
		sum := decimal.Zero
		for _, l := range m.Lines {
			sum = sum.Add(l.Debit())
		}
		return sum
	}
	sum := decimal.Zero
	for _, l := range m.Lines {
		switch l.DisplayType {
		case DisplayProduct, DisplayEPD, DisplayDiscount, DisplayTax, DisplayRounding:
			sum = sum.Add(l.AmountCurrency)
		}
	}
	return sum.Mul(decimal.NewFromInt(int64(m.MoveType.DocumentSign())))
}

// AmountResidualSign returns the sign expected on the payment-term side:
// opposite to the document sign so the receivable/payable offsets the
// base and tax lines.
func (m *Move) AmountResidualSign() int {
	return -m.MoveType.DocumentSign()
}

// IsHashed reports whether the move is locked by the hash chain.
func (m *Move) IsHashed() bool { return m.Hash != "" }

// HasRealName reports whether a sequence name was assigned.
func (m *Move) HasRealName() bool {
	return m.Name != "" && m.Name != PlaceholderName
}

// RemoveLine detaches a line from the move by identity.
func (m *Move) RemoveLine(target *Line) {
	for i, l := range m.Lines {
		if l == target {
			m.Lines = append(m.Lines[:i], m.Lines[i+1:]...)
			return
		}
	}
}

// CanPost validates the draft→posted transition precondition on the
// header alone; monetary validation happens in the posting engine.
func (m *Move) CanPost() error {
	if m.State != StateDraft {
		return &TransitionError{Move: m.DisplayName(), From: m.State, To: StatePosted}
	}
	return nil
}

// CanCancel validates the transition to cancelled.
func (m *Move) CanCancel() error {
	if m.IsHashed() {
		return &IntegrityLockError{Move: m.DisplayName(), Field: "state"}
	}
	if m.State != StateDraft && m.State != StatePosted {
		return &TransitionError{Move: m.DisplayName(), From: m.State, To: StateCancelled}
	}
	return nil
}

// CanResetToDraft validates posted→draft.
func (m *Move) CanResetToDraft() error {
	if m.IsHashed() {
		return &IntegrityLockError{Move: m.DisplayName(), Field: "state"}
	}
	if m.State != StatePosted && m.State != StateCancelled {
		return &TransitionError{Move: m.DisplayName(), From: m.State, To: StateDraft}
	}
	return nil
}

// DisplayName is the name shown in user-facing messages.
func (m *Move) DisplayName() string {
	if m.HasRealName() {
		return m.Name
	}
	label := m.MoveType.DisplayLabel()
	if m.ID > 0 {
		return label + " (draft)"
	}
	return label + " (unsaved)"
}

// Clone copies the move and its lines with cleared ids and draft state.
// Sequence, hash, and gap markers never carry over to the copy.
func (m *Move) Clone() *Move {
	c := *m
	c.ID = 0
	c.UUID = ""
	c.Name = PlaceholderName
	c.State = StateDraft
	c.SequencePrefix = ""
	c.SequenceNumber = 0
	c.MadeSequenceGap = false
	c.Hash = ""
	c.PostedBefore = false
	c.Lines = make([]*Line, 0, len(m.Lines))
	for _, l := range m.Lines {
		c.Lines = append(c.Lines, l.Clone())
	}
	return &c
}
