package syncer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bookkeep/internal/ledger"
	"github.com/roach88/bookkeep/internal/testutil"
)

func TestEPDReducesTaxBase(t *testing.T) {
	p := newTestPipeline()
	m := testutil.Invoice()
	m.PaymentTermID = testutil.TermEarlyEPDID
	m.Lines = append(m.Lines, testutil.ProductLine("Consulting", 1, 100, testutil.Tax10ID))

	require.NoError(t, p.Resync(m))

	epd := m.LinesOf(ledger.DisplayEPD)
	require.Len(t, epd, 2)

	var reduce, restore *ledger.Line
	for _, l := range epd {
		if len(l.TaxIDs) > 0 {
			reduce = l
		} else {
			restore = l
		}
	}
	require.NotNil(t, reduce)
	require.NotNil(t, restore)
	assertDec(t, "2", reduce.AmountCurrency)
	assert.Equal(t, []int64{testutil.Tax10ID}, reduce.TaxIDs)
	assert.Equal(t, testutil.EPDAccountID, reduce.AccountID)
	assertDec(t, "-2", restore.AmountCurrency)
	assert.Empty(t, restore.TaxIDs)

	// The second tax pass folds the reduced base in: 10% of 98.
	taxes := m.LinesOf(ledger.DisplayTax)
	require.Len(t, taxes, 1)
	assertDec(t, "-9.8", taxes[0].AmountCurrency)
	assertDec(t, "-98", taxes[0].TaxBaseAmount)

	terms := m.LinesOf(ledger.DisplayPaymentTerm)
	require.Len(t, terms, 1)
	assertDec(t, "109.8", terms[0].Balance)
	assert.Equal(t, testutil.Date(2026, 4, 14), terms[0].DateMaturity)
	assert.Equal(t, testutil.Date(2026, 3, 25), terms[0].DiscountDate)
	assert.Equal(t, testutil.Date(2026, 4, 14), m.DueDate)

	assert.NoError(t, CheckBalanced(p.Registry, m))
}

func TestEPDMergesAcrossProductLines(t *testing.T) {
	p := newTestPipeline()
	m := testutil.Invoice()
	m.PaymentTermID = testutil.TermEarlyEPDID
	m.Lines = append(m.Lines,
		testutil.ProductLine("Consulting", 1, 100, testutil.Tax10ID),
		testutil.ProductLine("Training", 1, 50, testutil.Tax10ID),
	)

	require.NoError(t, p.Resync(m))

	// Same account, taxes, and tags: the per-product pairs collapse.
	epd := m.LinesOf(ledger.DisplayEPD)
	require.Len(t, epd, 2)

	taxes := m.LinesOf(ledger.DisplayTax)
	require.Len(t, taxes, 1)
	assertDec(t, "-14.7", taxes[0].AmountCurrency)
	assertDec(t, "164.7", m.LinesOf(ledger.DisplayPaymentTerm)[0].Balance)
	assert.NoError(t, CheckBalanced(p.Registry, m))
}

func TestEPDRemovedWhenTermChanges(t *testing.T) {
	p := newTestPipeline()
	m := testutil.Invoice()
	m.PaymentTermID = testutil.TermEarlyEPDID
	m.Lines = append(m.Lines, testutil.ProductLine("Consulting", 1, 100, testutil.Tax10ID))
	require.NoError(t, p.Resync(m))
	require.Len(t, m.LinesOf(ledger.DisplayEPD), 2)

	err := p.SyncDynamicLines(m, func() error {
		m.PaymentTermID = testutil.TermNet30ID
		return nil
	})
	require.NoError(t, err)

	// The tax pass reran over the shrunk base set: full base, full tax.
	assert.Empty(t, m.LinesOf(ledger.DisplayEPD))
	taxes := m.LinesOf(ledger.DisplayTax)
	require.Len(t, taxes, 1)
	assertDec(t, "-10", taxes[0].AmountCurrency)
	assertDec(t, "-100", taxes[0].TaxBaseAmount)

	terms := m.LinesOf(ledger.DisplayPaymentTerm)
	require.Len(t, terms, 1)
	assertDec(t, "110", terms[0].Balance)
	assert.Equal(t, testutil.Date(2026, 4, 14), terms[0].DateMaturity)
	assert.True(t, terms[0].DiscountDate.IsZero())
	assert.NoError(t, CheckBalanced(p.Registry, m))
}

func TestEPDRemovedWhenTermCleared(t *testing.T) {
	p := newTestPipeline()
	m := testutil.Invoice()
	m.PaymentTermID = testutil.TermEarlyEPDID
	m.Lines = append(m.Lines, testutil.ProductLine("Consulting", 1, 100, testutil.Tax10ID))
	require.NoError(t, p.Resync(m))
	require.Len(t, m.LinesOf(ledger.DisplayEPD), 2)

	err := p.SyncDynamicLines(m, func() error {
		m.PaymentTermID = 0
		return nil
	})
	require.NoError(t, err)

	assert.Empty(t, m.LinesOf(ledger.DisplayEPD))
	taxes := m.LinesOf(ledger.DisplayTax)
	require.Len(t, taxes, 1)
	assertDec(t, "-10", taxes[0].AmountCurrency)
	assertDec(t, "110", m.LinesOf(ledger.DisplayPaymentTerm)[0].Balance)
	assert.NoError(t, CheckBalanced(p.Registry, m))
}
