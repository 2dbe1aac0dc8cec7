package syncer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bookkeep/internal/ledger"
	"github.com/roach88/bookkeep/internal/testutil"
)

func TestPaymentTermInstallments(t *testing.T) {
	p := newTestPipeline()
	m := testutil.Invoice()
	m.Ref = "SO0042"
	m.PaymentTermID = testutil.TermHalvesID
	m.Lines = append(m.Lines, testutil.ProductLine("Widget", 1, 100, testutil.Tax10ID))

	require.NoError(t, p.Resync(m))

	terms := m.LinesOf(ledger.DisplayPaymentTerm)
	require.Len(t, terms, 2)

	assertDec(t, "55", terms[0].Balance)
	assert.Equal(t, testutil.Date(2026, 3, 15), terms[0].DateMaturity)
	assert.Equal(t, "SO0042 installment #1", terms[0].Name)

	assertDec(t, "55", terms[1].Balance)
	assert.Equal(t, testutil.Date(2026, 5, 14), terms[1].DateMaturity)
	assert.Equal(t, "SO0042 installment #2", terms[1].Name)

	assert.Equal(t, testutil.Date(2026, 5, 14), m.DueDate)
	assert.NoError(t, CheckBalanced(p.Registry, m))
}

func TestPaymentTermSingleInstallmentUnnamed(t *testing.T) {
	p := newTestPipeline()
	m := testutil.Invoice()
	m.PaymentTermID = testutil.TermNet30ID
	m.Lines = append(m.Lines, testutil.ProductLine("Widget", 1, 100, testutil.Tax10ID))

	require.NoError(t, p.Resync(m))

	terms := m.LinesOf(ledger.DisplayPaymentTerm)
	require.Len(t, terms, 1)
	assert.Empty(t, terms[0].Name)
	assert.Equal(t, testutil.Date(2026, 4, 14), terms[0].DateMaturity)
}

func TestTermAccountMissing(t *testing.T) {
	p := newTestPipeline()
	p.Registry.Companies[testutil.CompanyID].ReceivableAccountID = 0

	m := testutil.Invoice()
	m.Lines = append(m.Lines, testutil.ProductLine("Widget", 1, 100))

	err := p.Resync(m)
	require.Error(t, err)
	assert.Equal(t, ledger.ErrCodeMissingConfig, ledger.CodeOf(err))
}

func TestTermAccountPrefersPartnerThenFiscalPosition(t *testing.T) {
	p := newTestPipeline()
	p.Registry.Partners[testutil.PartnerID].ReceivableID = 122
	p.Registry.FiscalPositions[1] = &ledger.FiscalPosition{
		ID: 1, Name: "Intra-EU",
		AccountMap: map[int64]int64{122: 125},
	}

	m := testutil.Invoice()
	m.FiscalPositionID = 1
	m.Lines = append(m.Lines, testutil.ProductLine("Widget", 1, 100))

	require.NoError(t, p.Resync(m))

	terms := m.LinesOf(ledger.DisplayPaymentTerm)
	require.Len(t, terms, 1)
	assert.Equal(t, int64(125), terms[0].AccountID)
}

func TestTermAccountFromSuggester(t *testing.T) {
	p := newTestPipeline()
	p.Suggest = stubSuggester{account: 123}

	m := testutil.Invoice()
	m.Lines = append(m.Lines, testutil.ProductLine("Widget", 1, 100))

	require.NoError(t, p.Resync(m))

	assert.Equal(t, int64(123), m.LinesOf(ledger.DisplayPaymentTerm)[0].AccountID)
}

func TestPaymentTermLinesClearedOnEntry(t *testing.T) {
	p := newTestPipeline()
	m := testutil.Entry()
	m.Lines = append(m.Lines, &ledger.Line{
		DisplayType: ledger.DisplayPaymentTerm, AccountID: testutil.ReceivableAccountID,
		CurrencyCode: "EUR", Balance: dec("110"), AmountCurrency: dec("110"),
	})

	require.NoError(t, p.Resync(m))

	assert.Empty(t, m.LinesOf(ledger.DisplayPaymentTerm))
}

func TestPaymentTermSkippedWithoutBaseLines(t *testing.T) {
	p := newTestPipeline()
	m := testutil.Invoice()

	require.NoError(t, p.Resync(m))
	assert.Empty(t, m.LinesOf(ledger.DisplayPaymentTerm), "an empty draft owes nothing")

	m.Lines = append(m.Lines, testutil.ProductLine("Consulting", 1, 100, testutil.Tax10ID))
	require.NoError(t, p.Resync(m))
	require.NotEmpty(t, m.LinesOf(ledger.DisplayPaymentTerm))

	// Removing the last product clears the receivable side again.
	err := p.SyncDynamicLines(m, func() error {
		m.RemoveLine(m.ProductLines()[0])
		return nil
	})
	require.NoError(t, err)
	assert.Empty(t, m.LinesOf(ledger.DisplayPaymentTerm))
	assert.Empty(t, m.LinesOf(ledger.DisplayTax))
}
