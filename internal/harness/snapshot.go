package harness

import (
	"sort"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/bookkeep/internal/chain"
	"github.com/roach88/bookkeep/internal/ledger"
	"github.com/roach88/bookkeep/internal/money"
)

// Snapshot renders a move as canonical JSON: sorted keys, minimal
// separators, monetary values fixed to their currency's decimals. Line
// order follows display type then name so the bytes do not depend on
// slice order.
func (e *Env) Snapshot(t *testing.T, m *ledger.Move) []byte {
	t.Helper()

	companyCur := e.Registry.CompanyCurrency(m)
	moveCur := e.Registry.MoveCurrency(m)

	lines := append([]*ledger.Line(nil), m.Lines...)
	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].DisplayType != lines[j].DisplayType {
			return lines[i].DisplayType < lines[j].DisplayType
		}
		return lines[i].Name < lines[j].Name
	})

	rendered := make([]any, 0, len(lines))
	for _, l := range lines {
		rendered = append(rendered, map[string]any{
			"name":            l.Name,
			"display_type":    string(l.DisplayType),
			"account_id":      l.AccountID,
			"balance":         money.FormatRepr(l.Balance, companyCur.Decimals),
			"amount_currency": money.FormatRepr(l.AmountCurrency, moveCur.Decimals),
		})
	}

	payload := map[string]any{
		"move_type": string(m.MoveType),
		"state":     string(m.State),
		"name":      m.Name,
		"currency":  m.CurrencyCode,
		"untaxed":   money.FormatRepr(m.AmountUntaxed(), moveCur.Decimals),
		"tax":       money.FormatRepr(m.AmountTax(), moveCur.Decimals),
		"total":     money.FormatRepr(m.AmountTotal(), moveCur.Decimals),
		"lines":     rendered,
	}
	raw, err := chain.MarshalCanonical(payload)
	if err != nil {
		t.Fatalf("snapshot %s: %v", m.DisplayName(), err)
	}
	return raw
}

// AssertGolden compares a move snapshot against testdata/golden/<name>.
// Regenerate with go test -update.
func (e *Env) AssertGolden(t *testing.T, name string, m *ledger.Move) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, e.Snapshot(t, m))
}
