package syncer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bookkeep/internal/ledger"
	"github.com/roach88/bookkeep/internal/testutil"
)

func entryLine(accountID int64, balance string) *ledger.Line {
	return &ledger.Line{
		DisplayType:    ledger.DisplayProduct,
		AccountID:      accountID,
		CurrencyCode:   "EUR",
		Balance:        dec(balance),
		AmountCurrency: dec(balance),
	}
}

func TestAutoBalanceCreatesSuspenseLine(t *testing.T) {
	p := newTestPipeline()
	m := testutil.Entry()
	m.Lines = append(m.Lines, entryLine(testutil.ExpenseAccountID, "250"))

	require.NoError(t, p.Resync(m))

	bal := m.LinesOf(ledger.DisplayAutoBalance)
	require.Len(t, bal, 1)
	assert.Equal(t, "Automatic Balancing Line", bal[0].Name)
	assert.Equal(t, testutil.SuspenseAccountID, bal[0].AccountID)
	assertDec(t, "-250", bal[0].Balance)
	assert.NoError(t, CheckBalanced(p.Registry, m))
}

func TestAutoBalanceFollowsResidual(t *testing.T) {
	p := newTestPipeline()
	m := testutil.Entry()
	m.Lines = append(m.Lines, entryLine(testutil.ExpenseAccountID, "250"))
	require.NoError(t, p.Resync(m))

	err := p.SyncDynamicLines(m, func() error {
		m.Lines = append(m.Lines, entryLine(testutil.IncomeAccountID, "-100"))
		return nil
	})
	require.NoError(t, err)

	bal := m.LinesOf(ledger.DisplayAutoBalance)
	require.Len(t, bal, 1)
	assertDec(t, "-150", bal[0].Balance)
}

func TestAutoBalanceRemovedWhenBalanced(t *testing.T) {
	p := newTestPipeline()
	m := testutil.Entry()
	m.Lines = append(m.Lines, entryLine(testutil.ExpenseAccountID, "250"))
	require.NoError(t, p.Resync(m))
	require.Len(t, m.LinesOf(ledger.DisplayAutoBalance), 1)

	err := p.SyncDynamicLines(m, func() error {
		m.Lines = append(m.Lines, entryLine(testutil.IncomeAccountID, "-250"))
		return nil
	})
	require.NoError(t, err)

	assert.Empty(t, m.LinesOf(ledger.DisplayAutoBalance))
	assert.NoError(t, CheckBalanced(p.Registry, m))
}

func TestAutoBalanceNeverOnInvoices(t *testing.T) {
	p := newTestPipeline()
	m := testutil.Invoice()
	m.Lines = append(m.Lines, testutil.ProductLine("Widget", 1, 100, testutil.Tax10ID))

	require.NoError(t, p.Resync(m))

	assert.Empty(t, m.LinesOf(ledger.DisplayAutoBalance))
}
