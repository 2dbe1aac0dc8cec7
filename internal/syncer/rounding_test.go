package syncer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bookkeep/internal/ledger"
	"github.com/roach88/bookkeep/internal/money"
	"github.com/roach88/bookkeep/internal/testutil"
)

func oddPricedInvoice(price string, taxIDs ...int64) *ledger.Move {
	m := testutil.Invoice()
	line := testutil.ProductLine("Widget", 1, 0, taxIDs...)
	line.PriceUnit = dec(price)
	m.Lines = append(m.Lines, line)
	return m
}

func TestCashRoundingDedicatedLineProfit(t *testing.T) {
	p := newTestPipeline()
	m := oddPricedInvoice("100.03", testutil.Tax10ID)
	m.CashRoundingID = testutil.RoundingAddLineID

	require.NoError(t, p.Resync(m))

	// 110.03 owed rounds to 110.05: the 0.02 gain books on the profit
	// account.
	rounding := m.LinesOf(ledger.DisplayRounding)
	require.Len(t, rounding, 1)
	assert.Equal(t, testutil.RoundingProfitID, rounding[0].AccountID)
	assertDec(t, "-0.02", rounding[0].AmountCurrency)
	assert.Equal(t, "5 cents, dedicated line", rounding[0].Name)

	assertDec(t, "110.05", m.LinesOf(ledger.DisplayPaymentTerm)[0].Balance)
	assert.NoError(t, CheckBalanced(p.Registry, m))
}

func TestCashRoundingDedicatedLineLoss(t *testing.T) {
	p := newTestPipeline()
	m := oddPricedInvoice("100.01", testutil.Tax10ID)
	m.CashRoundingID = testutil.RoundingAddLineID

	require.NoError(t, p.Resync(m))

	// 110.01 owed rounds down to 110.00: the 0.01 forgiven books on the
	// loss account.
	rounding := m.LinesOf(ledger.DisplayRounding)
	require.Len(t, rounding, 1)
	assert.Equal(t, testutil.RoundingLossID, rounding[0].AccountID)
	assertDec(t, "0.01", rounding[0].AmountCurrency)

	assertDec(t, "110", m.LinesOf(ledger.DisplayPaymentTerm)[0].Balance)
	assert.NoError(t, CheckBalanced(p.Registry, m))
}

func TestCashRoundingBiggestTax(t *testing.T) {
	p := newTestPipeline()
	m := oddPricedInvoice("100.03", testutil.Tax10ID)
	m.CashRoundingID = testutil.RoundingBiggestTaxID

	require.NoError(t, p.Resync(m))

	assert.Empty(t, m.LinesOf(ledger.DisplayRounding))
	taxes := m.LinesOf(ledger.DisplayTax)
	require.Len(t, taxes, 1)
	assertDec(t, "-10.02", taxes[0].AmountCurrency)
	assertDec(t, "110.05", m.LinesOf(ledger.DisplayPaymentTerm)[0].Balance)
	assert.NoError(t, CheckBalanced(p.Registry, m))

	// A second pass recomputes the tax from scratch and re-applies the
	// same adjustment.
	require.NoError(t, p.Resync(m))
	assertDec(t, "-10.02", m.LinesOf(ledger.DisplayTax)[0].AmountCurrency)
	assertDec(t, "110.05", m.LinesOf(ledger.DisplayPaymentTerm)[0].Balance)
}

func TestCashRoundingBiggestTaxWithoutTaxLines(t *testing.T) {
	p := newTestPipeline()
	m := oddPricedInvoice("100.03")
	m.CashRoundingID = testutil.RoundingBiggestTaxID

	require.NoError(t, p.Resync(m))

	// No tax line and no fallback account: the policy cannot apply and
	// the total stays as computed.
	assert.Empty(t, m.LinesOf(ledger.DisplayRounding))
	assertDec(t, "100.03", m.LinesOf(ledger.DisplayPaymentTerm)[0].Balance)
	assert.NoError(t, CheckBalanced(p.Registry, m))
}

func TestCashRoundingMissingAccount(t *testing.T) {
	p := newTestPipeline()
	p.Registry.CashRoundings[9] = &ledger.CashRounding{
		ID: 9, Name: "broken policy",
		Rounding: money.MustParse("0.05"), Strategy: ledger.RoundingAddLine,
		Mode: money.RoundHalfUp,
	}
	m := oddPricedInvoice("100.03", testutil.Tax10ID)
	m.CashRoundingID = 9

	err := p.Resync(m)
	require.Error(t, err)
	assert.Equal(t, ledger.ErrCodeMissingConfig, ledger.CodeOf(err))
}

func TestCashRoundingLineRemovedWhenPolicyCleared(t *testing.T) {
	p := newTestPipeline()
	m := oddPricedInvoice("100.03", testutil.Tax10ID)
	m.CashRoundingID = testutil.RoundingAddLineID
	require.NoError(t, p.Resync(m))
	require.Len(t, m.LinesOf(ledger.DisplayRounding), 1)

	err := p.SyncDynamicLines(m, func() error {
		m.CashRoundingID = 0
		return nil
	})
	require.NoError(t, err)

	assert.Empty(t, m.LinesOf(ledger.DisplayRounding))
	assertDec(t, "110.03", m.LinesOf(ledger.DisplayPaymentTerm)[0].Balance)
}
