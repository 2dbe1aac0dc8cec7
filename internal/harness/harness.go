// Package harness runs end-to-end posting scenarios against a real
// SQLite store and compares move snapshots with golden files.
//
// Each Env opens a fresh database under the test's temp directory, wires
// the standard fixture registry, and pins the clock, so a scenario run
// twice produces byte-identical snapshots.
package harness

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/roach88/bookkeep/internal/engine"
	"github.com/roach88/bookkeep/internal/ledger"
	"github.com/roach88/bookkeep/internal/store"
	"github.com/roach88/bookkeep/internal/testutil"
)

// Env is one isolated scenario environment.
type Env struct {
	Store    *store.Store
	Registry *ledger.Registry
	Engine   *engine.Engine
	Clock    *testutil.FixedClock
}

// New builds an environment with the standard fixtures and a clock
// pinned to 2026-03-15. The database closes with the test.
func New(t *testing.T) *Env {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "bookkeep.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	reg := testutil.NewRegistry()
	clock := testutil.NewFixedClock(testutil.Date(2026, 3, 15))

	eng := engine.New(st, reg)
	eng.Clock = clock
	eng.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	eng.Pipeline.Log = eng.Log

	return &Env{Store: st, Registry: reg, Engine: eng, Clock: clock}
}

// Save persists a move through the engine's edit path, failing the test
// on error.
func (e *Env) Save(t *testing.T, m *ledger.Move) {
	t.Helper()
	if err := e.Engine.Edit(context.Background(), m, func() error { return nil }); err != nil {
		t.Fatalf("save %s: %v", m.DisplayName(), err)
	}
}

// Post posts a move, failing the test on error.
func (e *Env) Post(t *testing.T, m *ledger.Move) {
	t.Helper()
	if err := e.Engine.Post(context.Background(), m); err != nil {
		t.Fatalf("post %s: %v", m.DisplayName(), err)
	}
}

// Reload fetches the stored form of a move.
func (e *Env) Reload(t *testing.T, id int64) *ledger.Move {
	t.Helper()
	m, err := e.Store.Conn().GetMove(context.Background(), id)
	if err != nil {
		t.Fatalf("reload move %d: %v", id, err)
	}
	return m
}
