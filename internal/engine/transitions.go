package engine

import (
	"context"
	"fmt"

	"github.com/roach88/bookkeep/internal/ledger"
	"github.com/roach88/bookkeep/internal/sequence"
	"github.com/roach88/bookkeep/internal/store"
)

// ResetToDraft reopens a posted or cancelled move. The sequence name is
// kept so no gap appears; hash-locked moves refuse entirely.
func (e *Engine) ResetToDraft(ctx context.Context, m *ledger.Move) error {
	if err := m.CanResetToDraft(); err != nil {
		return err
	}
	if m.State == ledger.StatePosted {
		if err := e.checkFiscalLock(m, m.Date); err != nil {
			return err
		}
	}
	m.State = ledger.StateDraft
	m.ToCheck = false
	if err := e.save(ctx, m); err != nil {
		return err
	}
	e.Log.Info("move reset to draft", "move", m.DisplayName())
	return nil
}

// Cancel voids a draft or posted move without deleting it.
func (e *Engine) Cancel(ctx context.Context, m *ledger.Move) error {
	if err := m.CanCancel(); err != nil {
		return err
	}
	if m.State == ledger.StatePosted {
		if err := e.checkFiscalLock(m, m.Date); err != nil {
			return err
		}
	}
	m.State = ledger.StateCancelled
	if err := e.save(ctx, m); err != nil {
		return err
	}
	e.Log.Info("move cancelled", "move", m.DisplayName())
	return nil
}

// Delete removes a non-posted move. A move that once carried a posted
// name flags its sequence successor, making the freed number visible to
// resequencing.
func (e *Engine) Delete(ctx context.Context, m *ledger.Move) error {
	if m.IsHashed() {
		return &ledger.IntegrityLockError{Move: m.DisplayName(), Field: "state"}
	}
	if m.State == ledger.StatePosted {
		return &ledger.TransitionError{Move: m.DisplayName(), From: m.State, To: ledger.StateDraft}
	}
	if m.PostedBefore {
		if err := e.checkFiscalLock(m, m.Date); err != nil {
			return err
		}
	}

	tx, err := e.Store.Begin(ctx)
	if err != nil {
		return err
	}
	if err := store.In(tx).DeleteMove(ctx, m); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	e.Log.Info("move deleted", "move", m.DisplayName())
	return nil
}

// Rename rewrites a move's sequence name, e.g. during resequencing.
// Hash-locked names never change; freeing a posted number flags the gap
// it leaves behind.
func (e *Engine) Rename(ctx context.Context, m *ledger.Move, name string) error {
	if m.IsHashed() {
		return &ledger.IntegrityLockError{Move: m.DisplayName(), Field: "name"}
	}
	if name == m.Name {
		return nil
	}
	oldName := m.Name
	oldPrefix, oldNumber := m.SequencePrefix, m.SequenceNumber
	m.Name = name
	m.SequencePrefix, m.SequenceNumber = sequence.SplitSequence(name)

	tx, err := e.Store.Begin(ctx)
	if err != nil {
		return err
	}
	conn := store.In(tx)
	if m.PostedBefore && oldNumber > 0 {
		if err := conn.MarkGapAfter(ctx, m.JournalID, oldPrefix, oldNumber); err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := conn.SaveMove(ctx, m); err != nil {
		tx.Rollback()
		m.Name = oldName
		m.SequencePrefix, m.SequenceNumber = oldPrefix, oldNumber
		if store.IsNameConflict(err) {
			journal := e.Registry.Journals[m.JournalID]
			code := ""
			if journal != nil {
				code = journal.Code
			}
			return &ledger.SequenceConflictError{Journal: code, Name: name}
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rename: %w", err)
	}
	return nil
}
