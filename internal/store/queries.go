package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/bookkeep/internal/ledger"
	"github.com/roach88/bookkeep/internal/sequence"
)

// seriesFilter renders the sub-series restriction of a sequence query.
// Journals with a dedicated refund sequence number refunds apart; other
// journals keep one shared series and need no restriction.
func seriesFilter(s sequence.Series) (clause string) {
	if !s.Split {
		return ""
	}
	if s.Refund {
		return " AND move_type IN ('out_refund','in_refund')"
	}
	return " AND move_type NOT IN ('out_refund','in_refund')"
}

// LatestPostedName implements sequence.Store.
func (c *Conn) LatestPostedName(ctx context.Context, s sequence.Series) (string, error) {
	row := c.q.QueryRowContext(ctx,
		`SELECT name FROM moves
		WHERE journal_id = ? AND state = 'posted' AND name != '/'`+seriesFilter(s)+`
		ORDER BY date DESC, sequence_number DESC, id DESC LIMIT 1`,
		s.JournalID)
	var name string
	if err := row.Scan(&name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("latest posted name: %w", err)
	}
	return name, nil
}

// MaxNameInPeriod implements sequence.Store. Drafts holding a real name
// count: their numbers are reserved even before posting.
func (c *Conn) MaxNameInPeriod(ctx context.Context, s sequence.Series, prefix string, start, end time.Time) (string, error) {
	row := c.q.QueryRowContext(ctx,
		`SELECT name FROM moves
		WHERE journal_id = ? AND name != '/'
		  AND substr(name, 1, ?) = ?
		  AND date >= ? AND date <= ?`+seriesFilter(s)+`
		ORDER BY sequence_number DESC LIMIT 1`,
		s.JournalID, len(prefix), prefix, marshalDate(start), marshalDate(end))
	var name string
	if err := row.Scan(&name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("max name in period: %w", err)
	}
	return name, nil
}

// ListUnhashedPosted returns the posted, named, not-yet-hashed moves of a
// journal in sequence order, the candidate run for extending the chain.
func (c *Conn) ListUnhashedPosted(ctx context.Context, journalID int64) ([]*ledger.Move, error) {
	return c.listMoves(ctx,
		`SELECT `+moveColumns+` FROM moves
		WHERE journal_id = ? AND state = 'posted' AND inalterable_hash = '' AND name != '/'
		ORDER BY sequence_prefix, sequence_number`,
		journalID)
}

// ListHashed returns the hashed moves of a journal in sequence order, the
// run walked by chain verification.
func (c *Conn) ListHashed(ctx context.Context, journalID int64) ([]*ledger.Move, error) {
	return c.listMoves(ctx,
		`SELECT `+moveColumns+` FROM moves
		WHERE journal_id = ? AND inalterable_hash != ''
		ORDER BY sequence_prefix, sequence_number`,
		journalID)
}

// LastHash returns the stored hash, sequence prefix, and sequence number
// of the most recently hashed move in the journal, or zero values on a
// virgin chain.
func (c *Conn) LastHash(ctx context.Context, journalID int64) (hash, prefix string, seqNumber int, err error) {
	row := c.q.QueryRowContext(ctx,
		`SELECT inalterable_hash, sequence_prefix, sequence_number FROM moves
		WHERE journal_id = ? AND inalterable_hash != ''
		ORDER BY sequence_prefix DESC, sequence_number DESC LIMIT 1`,
		journalID)
	if err := row.Scan(&hash, &prefix, &seqNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", 0, nil
		}
		return "", "", 0, fmt.Errorf("last hash: %w", err)
	}
	return hash, prefix, seqNumber, nil
}

// MostFrequentAccount returns the account most often used on posted
// lines of the display type for this partner and document family, or 0.
func (c *Conn) MostFrequentAccount(ctx context.Context, partnerID int64, moveType ledger.MoveType, displayType ledger.DisplayType) (int64, error) {
	if partnerID == 0 {
		return 0, nil
	}
	family := moveTypeFamily(moveType)
	row := c.q.QueryRowContext(ctx,
		`SELECT l.account_id FROM move_lines l
		JOIN moves m ON m.id = l.move_id
		WHERE l.partner_id = ? AND l.display_type = ? AND l.account_id != 0
		  AND m.state = 'posted' AND m.move_type IN (`+family+`)
		GROUP BY l.account_id
		ORDER BY COUNT(*) DESC, MAX(m.id) DESC LIMIT 1`,
		partnerID, string(displayType))
	var account int64
	if err := row.Scan(&account); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("most frequent account: %w", err)
	}
	return account, nil
}

// moveTypeFamily widens a move type to its document family so a refund
// reuses the accounts of the invoices it offsets.
func moveTypeFamily(t ledger.MoveType) string {
	switch {
	case t.IsSaleDocument():
		return "'out_invoice','out_refund','out_receipt'"
	case t.IsPurchaseDocument():
		return "'in_invoice','in_refund','in_receipt'"
	default:
		return "'entry'"
	}
}

// HistorySuggester adapts the posting-history query to the synchronizer's
// suggestion interface. Query failures log and yield no suggestion.
type HistorySuggester struct {
	Conn *Conn
	Log  *slog.Logger
}

func (h HistorySuggester) MostFrequentAccount(partnerID int64, moveType ledger.MoveType, displayType ledger.DisplayType) int64 {
	account, err := h.Conn.MostFrequentAccount(context.Background(), partnerID, moveType, displayType)
	if err != nil {
		log := h.Log
		if log == nil {
			log = slog.Default()
		}
		log.Warn("account suggestion query failed", "partner", partnerID, "error", err)
		return 0
	}
	return account
}
