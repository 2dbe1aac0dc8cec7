// Package autopost posts scheduled drafts when their date arrives and
// spawns the next occurrence of recurring entries.
package autopost

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/bookkeep/internal/engine"
	"github.com/roach88/bookkeep/internal/ledger"
)

// DefaultBatchSize caps how many due drafts one run processes. A full
// batch signals the scheduler to run again immediately.
const DefaultBatchSize = 100

// Runner drives one auto-posting sweep.
type Runner struct {
	Engine    *engine.Engine
	BatchSize int
	Log       *slog.Logger
}

// New builds a runner with the default batch size.
func New(e *engine.Engine) *Runner {
	return &Runner{Engine: e, BatchSize: DefaultBatchSize, Log: e.Log}
}

// Result summarizes one sweep.
type Result struct {
	Posted int
	Failed int

	// More reports the batch was full: due drafts remain and the sweep
	// should be re-run.
	More bool
}

// Run posts every due draft up to the batch size. A draft that fails to
// post is flagged for review with the failure logged, and the sweep
// continues; one bad entry never blocks the batch. Successfully posted
// recurring entries get their next occurrence drafted.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	limit := r.BatchSize
	if limit <= 0 {
		limit = DefaultBatchSize
	}
	today := r.Engine.Clock.Today()

	due, err := r.Engine.Store.Conn().DueAutoPost(ctx, today, limit+1)
	if err != nil {
		return nil, err
	}

	res := &Result{More: len(due) > limit}
	if res.More {
		due = due[:limit]
	}

	for _, m := range due {
		if err := r.Engine.Post(ctx, m); err != nil {
			res.Failed++
			r.flagForReview(ctx, m, err)
			continue
		}
		res.Posted++
		if m.AutoPost.MonthDelta() > 0 {
			if err := r.scheduleNext(ctx, m); err != nil {
				r.Log.Warn("recurrence copy failed",
					"move", m.DisplayName(), "error", err)
			}
		}
	}
	return res, nil
}

// flagForReview marks a draft that could not auto-post so a human finds
// it, and disables further attempts.
func (r *Runner) flagForReview(ctx context.Context, m *ledger.Move, cause error) {
	r.Log.Warn("auto-post failed, flagging for review",
		"move", m.DisplayName(), "code", ledger.CodeOf(cause), "error", cause)
	m.ToCheck = true
	m.AutoPost = ledger.AutoPostNo
	if err := r.Engine.Edit(ctx, m, func() error { return nil }); err != nil {
		r.Log.Error("could not flag move for review",
			"move", m.DisplayName(), "error", err)
	}
}

// scheduleNext drafts the next occurrence of a recurring entry, shifted
// by the recurrence interval. The chain stops once the next date passes
// the end of the recurrence window.
func (r *Runner) scheduleNext(ctx context.Context, m *ledger.Move) error {
	months := m.AutoPost.MonthDelta()
	next := m.Date.AddDate(0, months, 0)
	if !m.AutoPostUntil.IsZero() && next.After(m.AutoPostUntil) {
		return nil
	}

	c := m.Clone()
	c.Date = next
	if !c.InvoiceDate.IsZero() {
		c.InvoiceDate = c.InvoiceDate.AddDate(0, months, 0)
	}
	c.DueDate = time.Time{}
	c.AutoPostOriginID = originOf(m)

	if err := r.Engine.Edit(ctx, c, func() error { return nil }); err != nil {
		return err
	}
	r.Log.Info("recurrence drafted",
		"origin", m.DisplayName(), "next", c.Date.Format("2006-01-02"))
	return nil
}

func originOf(m *ledger.Move) int64 {
	if m.AutoPostOriginID != 0 {
		return m.AutoPostOriginID
	}
	return m.ID
}
