package chain

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bookkeep/internal/ledger"
	"github.com/roach88/bookkeep/internal/money"
)

func chainRegistry() *ledger.Registry {
	reg := ledger.NewRegistry()
	reg.Currencies["EUR"] = money.NewCurrency("EUR", 2, money.RoundHalfUp)
	reg.Companies[1] = &ledger.Company{ID: 1, CurrencyCode: "EUR"}
	reg.Journals[1] = &ledger.Journal{ID: 1, Code: "INV", CompanyID: 1, HashChain: true}
	return reg
}

func chainMove(name string, seq int) *ledger.Move {
	return &ledger.Move{
		ID:             int64(seq),
		Name:           name,
		State:          ledger.StatePosted,
		MoveType:       ledger.MoveTypeCustomerInvoice,
		JournalID:      1,
		CompanyID:      1,
		CurrencyCode:   "EUR",
		Date:           time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		SequencePrefix: "INV/2026/03/",
		SequenceNumber: seq,
		Lines: []*ledger.Line{
			{DisplayType: ledger.DisplayProduct, AccountID: 400, PartnerID: 10, CurrencyCode: "EUR",
				Balance: decimal.NewFromInt(-100), AmountCurrency: decimal.NewFromInt(-100)},
			{DisplayType: ledger.DisplayPaymentTerm, AccountID: 121, PartnerID: 10, CurrencyCode: "EUR",
				Balance: decimal.NewFromInt(100), AmountCurrency: decimal.NewFromInt(100)},
			{DisplayType: ledger.DisplayNote, Name: "ignored by the payload"},
		},
	}
}

func TestParseHash(t *testing.T) {
	v, digest, err := ParseHash("$4$" + strings.Repeat("ab", 32))
	require.NoError(t, err)
	assert.Equal(t, 4, v)
	assert.Equal(t, strings.Repeat("ab", 32), digest)

	// Bare hex is pre-v4 storage.
	v, _, err = ParseHash(strings.Repeat("0f", 32))
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	_, _, err = ParseHash("not a hash")
	assert.Error(t, err)
	_, _, err = ParseHash("")
	assert.Error(t, err)
}

func TestIntegrityPayloadVersions(t *testing.T) {
	reg := chainRegistry()
	m := chainMove("INV/2026/03/0001", 1)

	v1 := IntegrityPayload(m, reg, 1)
	_, hasName := v1["name"]
	assert.False(t, hasName, "v1 does not hash the name")

	v2 := IntegrityPayload(m, reg, 2)
	assert.Equal(t, "INV/2026/03/0001", v2["name"])

	lines, ok := v2["line_ids"].([]any)
	require.True(t, ok)
	require.Len(t, lines, 2, "narration lines stay out of the payload")

	first, ok := lines[0].(map[string]any)
	require.True(t, ok)
	// v2 renders raw decimal strings, v3 fixes them to currency decimals.
	assert.Equal(t, "100", first["credit"])
	v3 := IntegrityPayload(m, reg, 3)
	assert.Equal(t, "100.00", v3["line_ids"].([]any)[0].(map[string]any)["credit"])
	assert.Equal(t, "0.00", v3["line_ids"].([]any)[0].(map[string]any)["debit"])
}

func TestComputeHashChainsOnPredecessor(t *testing.T) {
	reg := chainRegistry()
	m := chainMove("INV/2026/03/0001", 1)

	root, err := ComputeHash(m, reg, "", CurrentVersion)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(root, "$4$"))

	chained, err := ComputeHash(m, reg, root, CurrentVersion)
	require.NoError(t, err)
	assert.NotEqual(t, root, chained)

	again, err := ComputeHash(m, reg, "", CurrentVersion)
	require.NoError(t, err)
	assert.Equal(t, root, again)
}

func TestExtendHashesRunInOrder(t *testing.T) {
	reg := chainRegistry()
	journal := reg.Journals[1]
	moves := []*ledger.Move{
		chainMove("INV/2026/03/0001", 1),
		chainMove("INV/2026/03/0002", 2),
		chainMove("INV/2026/03/0003", 3),
	}

	require.NoError(t, Extend(moves, reg, journal, ""))
	for _, m := range moves {
		assert.True(t, m.IsHashed(), m.Name)
	}
	assert.NotEqual(t, moves[0].Hash, moves[1].Hash)

	idx, err := Verify(moves, reg, "")
	assert.Equal(t, -1, idx)
	assert.NoError(t, err)
}

func TestExtendRejectsGap(t *testing.T) {
	reg := chainRegistry()
	moves := []*ledger.Move{
		chainMove("INV/2026/03/0001", 1),
		chainMove("INV/2026/03/0003", 3),
	}

	err := Extend(moves, reg, reg.Journals[1], "")
	require.Error(t, err)
	assert.Equal(t, ledger.ErrCodeSequenceGap, ledger.CodeOf(err))
}

func TestExtendRejectsUnpostedAndRehashing(t *testing.T) {
	reg := chainRegistry()

	draft := chainMove("INV/2026/03/0001", 1)
	draft.State = ledger.StateDraft
	err := Extend([]*ledger.Move{draft}, reg, reg.Journals[1], "")
	assert.Equal(t, ledger.ErrCodeInvalidTransition, ledger.CodeOf(err))

	hashed := chainMove("INV/2026/03/0001", 1)
	hashed.Hash = "$4$deadbeef"
	err = Extend([]*ledger.Move{hashed}, reg, reg.Journals[1], "")
	assert.Equal(t, ledger.ErrCodeIntegrityLock, ledger.CodeOf(err))
}

func TestVerifyDetectsTamper(t *testing.T) {
	reg := chainRegistry()
	moves := []*ledger.Move{
		chainMove("INV/2026/03/0001", 1),
		chainMove("INV/2026/03/0002", 2),
		chainMove("INV/2026/03/0003", 3),
	}
	require.NoError(t, Extend(moves, reg, reg.Journals[1], ""))

	moves[1].Lines[0].Balance = decimal.NewFromInt(-90)

	idx, err := Verify(moves, reg, "")
	assert.Equal(t, 1, idx)
	assert.Error(t, err)
}

func TestVerifyDetectsRewrittenHash(t *testing.T) {
	reg := chainRegistry()
	moves := []*ledger.Move{chainMove("INV/2026/03/0001", 1)}
	require.NoError(t, Extend(moves, reg, reg.Journals[1], ""))

	moves[0].Hash = "$4$" + strings.Repeat("00", 32)
	idx, err := Verify(moves, reg, "")
	assert.Equal(t, 0, idx)
	assert.Error(t, err)
}

func TestVerifyMixedVersions(t *testing.T) {
	// A v3 move chained before v4 storage still verifies: the version is
	// read from each stored hash.
	reg := chainRegistry()
	old := chainMove("INV/2026/03/0001", 1)
	v3hash, err := ComputeHash(old, reg, "", 3)
	require.NoError(t, err)
	old.Hash = v3hash

	next := chainMove("INV/2026/03/0002", 2)
	v4hash, err := ComputeHash(next, reg, v3hash, 4)
	require.NoError(t, err)
	next.Hash = v4hash

	idx, verr := Verify([]*ledger.Move{old, next}, reg, "")
	assert.Equal(t, -1, idx)
	assert.NoError(t, verr)
}
