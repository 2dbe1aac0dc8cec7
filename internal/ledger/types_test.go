package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMoveTypePredicates(t *testing.T) {
	assert.True(t, MoveTypeCustomerInvoice.IsSaleDocument())
	assert.True(t, MoveTypeCustomerRefund.IsSaleDocument())
	assert.False(t, MoveTypeVendorBill.IsSaleDocument())

	assert.True(t, MoveTypeVendorBill.IsPurchaseDocument())
	assert.True(t, MoveTypeVendorReceipt.IsPurchaseDocument())
	assert.False(t, MoveTypeEntry.IsPurchaseDocument())

	assert.True(t, MoveTypeCustomerInvoice.IsInvoice())
	assert.True(t, MoveTypeVendorRefund.IsInvoice())
	assert.False(t, MoveTypeEntry.IsInvoice())
	assert.False(t, MoveType("bogus").IsInvoice())

	assert.True(t, MoveTypeCustomerRefund.IsRefund())
	assert.True(t, MoveTypeVendorRefund.IsRefund())
	assert.False(t, MoveTypeCustomerReceipt.IsRefund())
}

func TestDocumentSign(t *testing.T) {
	negative := []MoveType{MoveTypeCustomerInvoice, MoveTypeCustomerReceipt, MoveTypeVendorRefund}
	for _, mt := range negative {
		assert.Equal(t, -1, mt.DocumentSign(), string(mt))
	}
	positive := []MoveType{MoveTypeVendorBill, MoveTypeVendorReceipt, MoveTypeCustomerRefund, MoveTypeEntry}
	for _, mt := range positive {
		assert.Equal(t, 1, mt.DocumentSign(), string(mt))
	}

	// Refunds flip the sign of their base document.
	assert.Equal(t, -MoveTypeCustomerInvoice.DocumentSign(), MoveTypeCustomerRefund.DocumentSign())
	assert.Equal(t, -MoveTypeVendorBill.DocumentSign(), MoveTypeVendorRefund.DocumentSign())
}

func TestDisplayTypeClassification(t *testing.T) {
	assert.True(t, DisplaySection.IsNarration())
	assert.True(t, DisplayNote.IsNarration())
	assert.False(t, DisplayProduct.IsNarration())

	derived := []DisplayType{DisplayTax, DisplayPaymentTerm, DisplayRounding, DisplayEPD, DisplayDiscount, DisplayAutoBalance}
	for _, d := range derived {
		assert.True(t, d.IsDerived(), string(d))
	}
	assert.False(t, DisplayProduct.IsDerived())
	assert.False(t, DisplaySection.IsDerived())
}

func TestAutoPostMonthDelta(t *testing.T) {
	assert.Equal(t, 0, AutoPostNo.MonthDelta())
	assert.Equal(t, 0, AutoPostAtDate.MonthDelta())
	assert.Equal(t, 1, AutoPostMonthly.MonthDelta())
	assert.Equal(t, 3, AutoPostQuarterly.MonthDelta())
	assert.Equal(t, 12, AutoPostYearly.MonthDelta())
}

func TestJournalTypeAccepts(t *testing.T) {
	assert.True(t, JournalSale.Accepts(MoveTypeCustomerInvoice))
	assert.False(t, JournalSale.Accepts(MoveTypeVendorBill))
	assert.True(t, JournalPurchase.Accepts(MoveTypeVendorRefund))
	assert.False(t, JournalPurchase.Accepts(MoveTypeCustomerRefund))

	// Every journal type carries generic entries.
	for _, jt := range []JournalType{JournalSale, JournalPurchase, JournalCash, JournalBank, JournalGeneral} {
		assert.True(t, jt.Accepts(MoveTypeEntry), string(jt))
	}
}
