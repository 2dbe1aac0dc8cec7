package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// invoiceFixture is a balanced customer invoice: product -100, tax -10,
// receivable +110.
func invoiceFixture() *Move {
	return &Move{
		Name:     PlaceholderName,
		State:    StateDraft,
		MoveType: MoveTypeCustomerInvoice,
		Lines: []*Line{
			{DisplayType: DisplayProduct, Balance: dec("-100"), AmountCurrency: dec("-100")},
			{DisplayType: DisplayTax, Balance: dec("-10"), AmountCurrency: dec("-10")},
			{DisplayType: DisplayPaymentTerm, Balance: dec("110"), AmountCurrency: dec("110")},
			{DisplayType: DisplayNote, Name: "Thanks for your business"},
		},
	}
}

func TestMoveTotals(t *testing.T) {
	m := invoiceFixture()

	assert.True(t, m.TotalBalance().IsZero(), "got %s", m.TotalBalance())
	assert.True(t, m.AmountUntaxed().Equal(dec("100")), "got %s", m.AmountUntaxed())
	assert.True(t, m.AmountTax().Equal(dec("10")), "got %s", m.AmountTax())
	assert.True(t, m.AmountTotal().Equal(dec("110")), "got %s", m.AmountTotal())
}

func TestEntryAmountTotalIsDebitSum(t *testing.T) {
	m := &Move{
		MoveType: MoveTypeEntry,
		Lines: []*Line{
			{DisplayType: DisplayProduct, Balance: dec("250")},
			{DisplayType: DisplayProduct, Balance: dec("-250")},
		},
	}
	assert.True(t, m.AmountTotal().Equal(dec("250")), "got %s", m.AmountTotal())
}

func TestAmountResidualSignOpposesDocumentSign(t *testing.T) {
	for _, mt := range ValidMoveTypes {
		m := &Move{MoveType: mt}
		assert.Equal(t, -mt.DocumentSign(), m.AmountResidualSign(), string(mt))
	}
}

func TestTaxBaseLines(t *testing.T) {
	m := &Move{Lines: []*Line{
		{DisplayType: DisplayProduct},
		{DisplayType: DisplayEPD, TaxIDs: []int64{1}},
		{DisplayType: DisplayEPD},
		{DisplayType: DisplayTax},
		{DisplayType: DisplayRounding, TaxIDs: []int64{2}},
	}}
	base := m.TaxBaseLines()
	require.Len(t, base, 3)
	assert.Equal(t, DisplayProduct, base[0].DisplayType)
	assert.Equal(t, DisplayEPD, base[1].DisplayType)
	assert.Equal(t, DisplayRounding, base[2].DisplayType)
}

func TestCanPost(t *testing.T) {
	m := invoiceFixture()
	assert.NoError(t, m.CanPost())

	m.State = StatePosted
	err := m.CanPost()
	require.Error(t, err)
	assert.Equal(t, ErrCodeInvalidTransition, CodeOf(err))

	m.State = StateCancelled
	assert.Error(t, m.CanPost())
}

func TestCanCancel(t *testing.T) {
	m := invoiceFixture()
	assert.NoError(t, m.CanCancel())

	m.State = StatePosted
	assert.NoError(t, m.CanCancel())

	m.State = StateCancelled
	assert.Error(t, m.CanCancel())

	m.State = StatePosted
	m.Hash = "$4$deadbeef"
	err := m.CanCancel()
	require.Error(t, err)
	assert.Equal(t, ErrCodeIntegrityLock, CodeOf(err))
}

func TestCanResetToDraft(t *testing.T) {
	m := invoiceFixture()
	m.State = StatePosted
	assert.NoError(t, m.CanResetToDraft())

	m.State = StateCancelled
	assert.NoError(t, m.CanResetToDraft())

	m.State = StateDraft
	assert.Error(t, m.CanResetToDraft())

	m.State = StatePosted
	m.Hash = "$4$deadbeef"
	assert.Equal(t, ErrCodeIntegrityLock, CodeOf(m.CanResetToDraft()))
}

func TestHasRealNameAndDisplayName(t *testing.T) {
	m := invoiceFixture()
	assert.False(t, m.HasRealName())
	assert.Equal(t, "Invoice (unsaved)", m.DisplayName())

	m.ID = 12
	assert.Equal(t, "Invoice (draft)", m.DisplayName())

	m.Name = "INV/2026/03/0001"
	assert.True(t, m.HasRealName())
	assert.Equal(t, "INV/2026/03/0001", m.DisplayName())
}

func TestRemoveLineByIdentity(t *testing.T) {
	m := invoiceFixture()
	target := m.Lines[1]
	m.RemoveLine(target)
	require.Len(t, m.Lines, 3)
	for _, l := range m.Lines {
		assert.NotSame(t, target, l)
	}

	// Removing an unknown line is a no-op.
	m.RemoveLine(&Line{})
	assert.Len(t, m.Lines, 3)
}

func TestMoveCloneResetsSequencingAndHash(t *testing.T) {
	m := invoiceFixture()
	m.ID = 4
	m.UUID = "token"
	m.Name = "INV/2026/03/0001"
	m.State = StatePosted
	m.SequencePrefix = "INV/2026/03/"
	m.SequenceNumber = 1
	m.Hash = "$4$deadbeef"
	m.PostedBefore = true

	c := m.Clone()
	assert.Zero(t, c.ID)
	assert.Empty(t, c.UUID)
	assert.Equal(t, PlaceholderName, c.Name)
	assert.Equal(t, StateDraft, c.State)
	assert.Empty(t, c.SequencePrefix)
	assert.Zero(t, c.SequenceNumber)
	assert.Empty(t, c.Hash)
	assert.False(t, c.PostedBefore)

	require.Len(t, c.Lines, len(m.Lines))
	c.Lines[0].Balance = dec("1")
	assert.True(t, m.Lines[0].Balance.Equal(dec("-100")))
}
