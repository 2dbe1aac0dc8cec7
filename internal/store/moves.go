package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/roach88/bookkeep/internal/ledger"
)

// Querier is the query surface shared by *sql.DB and *sql.Tx. Persistence
// methods hang off Conn so the posting engine can run them inside its own
// transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Conn binds the persistence methods to a database or transaction.
type Conn struct {
	q Querier
}

// Conn returns an auto-commit connection.
func (s *Store) Conn() *Conn { return &Conn{q: s.db} }

// In binds the persistence methods to an open transaction.
func In(tx *sql.Tx) *Conn { return &Conn{q: tx} }

// ErrNotFound reports a missing move.
var ErrNotFound = errors.New("move not found")

// IsNameConflict reports whether err is a violation of the posted-name
// unique index, the signal for one sequence re-allocation retry.
func IsNameConflict(err error) bool {
	var serr sqlite3.Error
	if !errors.As(err, &serr) {
		return false
	}
	return serr.ExtendedCode == sqlite3.ErrConstraintUnique
}

const moveColumns = `id, uuid, name, ref, state, move_type, journal_id, company_id,
	partner_id, currency_code, currency_rate, date, invoice_date, due_date,
	payment_term_id, cash_rounding_id, fiscal_position_id,
	sequence_prefix, sequence_number, made_sequence_gap,
	inalterable_hash, posted_before, to_check,
	auto_post, auto_post_until, auto_post_origin_id, reversed_entry_id`

const lineColumns = `id, move_id, name, display_type, account_id, partner_id,
	currency_code, balance, amount_currency, quantity, price_unit, discount,
	price_subtotal, price_total, tax_ids, tax_line_id, tax_repartition_line_id,
	tax_base_amount, tax_tag_ids, date_maturity, discount_date, analytic_distribution`

// SaveMove inserts or updates the move header and rewrites its lines to
// match m.Lines exactly. New lines get their store ids assigned.
func (c *Conn) SaveMove(ctx context.Context, m *ledger.Move) error {
	if m.UUID == "" {
		m.UUID = uuid.NewString()
	}
	if m.Name == "" {
		m.Name = ledger.PlaceholderName
	}

	if m.ID == 0 {
		res, err := c.q.ExecContext(ctx, `INSERT INTO moves (
			uuid, name, ref, state, move_type, journal_id, company_id,
			partner_id, currency_code, currency_rate, date, invoice_date, due_date,
			payment_term_id, cash_rounding_id, fiscal_position_id,
			sequence_prefix, sequence_number, made_sequence_gap,
			inalterable_hash, posted_before, to_check,
			auto_post, auto_post_until, auto_post_origin_id, reversed_entry_id
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			m.UUID, m.Name, m.Ref, string(m.State), string(m.MoveType), m.JournalID, m.CompanyID,
			m.PartnerID, m.CurrencyCode, marshalDecimal(m.CurrencyRate),
			marshalDate(m.Date), marshalDate(m.InvoiceDate), marshalDate(m.DueDate),
			m.PaymentTermID, m.CashRoundingID, m.FiscalPositionID,
			m.SequencePrefix, m.SequenceNumber, boolToInt(m.MadeSequenceGap),
			m.Hash, boolToInt(m.PostedBefore), boolToInt(m.ToCheck),
			string(m.AutoPost), marshalDate(m.AutoPostUntil), m.AutoPostOriginID, m.ReversedEntryID,
		)
		if err != nil {
			return fmt.Errorf("insert move: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert move: %w", err)
		}
		m.ID = id
	} else {
		_, err := c.q.ExecContext(ctx, `UPDATE moves SET
			uuid=?, name=?, ref=?, state=?, move_type=?, journal_id=?, company_id=?,
			partner_id=?, currency_code=?, currency_rate=?, date=?, invoice_date=?, due_date=?,
			payment_term_id=?, cash_rounding_id=?, fiscal_position_id=?,
			sequence_prefix=?, sequence_number=?, made_sequence_gap=?,
			inalterable_hash=?, posted_before=?, to_check=?,
			auto_post=?, auto_post_until=?, auto_post_origin_id=?, reversed_entry_id=?
		WHERE id=?`,
			m.UUID, m.Name, m.Ref, string(m.State), string(m.MoveType), m.JournalID, m.CompanyID,
			m.PartnerID, m.CurrencyCode, marshalDecimal(m.CurrencyRate),
			marshalDate(m.Date), marshalDate(m.InvoiceDate), marshalDate(m.DueDate),
			m.PaymentTermID, m.CashRoundingID, m.FiscalPositionID,
			m.SequencePrefix, m.SequenceNumber, boolToInt(m.MadeSequenceGap),
			m.Hash, boolToInt(m.PostedBefore), boolToInt(m.ToCheck),
			string(m.AutoPost), marshalDate(m.AutoPostUntil), m.AutoPostOriginID, m.ReversedEntryID,
			m.ID,
		)
		if err != nil {
			return fmt.Errorf("update move %d: %w", m.ID, err)
		}
	}

	return c.saveLines(ctx, m)
}

// saveLines reconciles the stored lines with m.Lines: kept lines are
// updated in place, new lines inserted, and rows absent from the move
// deleted.
func (c *Conn) saveLines(ctx context.Context, m *ledger.Move) error {
	kept := make(map[int64]bool, len(m.Lines))
	for _, l := range m.Lines {
		l.MoveID = m.ID
		analytic, err := marshalAnalytic(l.AnalyticDistribution)
		if err != nil {
			return err
		}
		if l.ID == 0 {
			res, err := c.q.ExecContext(ctx, `INSERT INTO move_lines (
				move_id, name, display_type, account_id, partner_id,
				currency_code, balance, amount_currency, quantity, price_unit, discount,
				price_subtotal, price_total, tax_ids, tax_line_id, tax_repartition_line_id,
				tax_base_amount, tax_tag_ids, date_maturity, discount_date, analytic_distribution
			) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
				l.MoveID, l.Name, string(l.DisplayType), l.AccountID, l.PartnerID,
				l.CurrencyCode, marshalDecimal(l.Balance), marshalDecimal(l.AmountCurrency),
				marshalDecimal(l.Quantity), marshalDecimal(l.PriceUnit), marshalDecimal(l.Discount),
				marshalDecimal(l.PriceSubtotal), marshalDecimal(l.PriceTotal),
				marshalIDs(l.TaxIDs), l.TaxLineID, l.TaxRepartitionLineID,
				marshalDecimal(l.TaxBaseAmount), marshalIDs(l.TaxTagIDs),
				marshalDate(l.DateMaturity), marshalDate(l.DiscountDate), analytic,
			)
			if err != nil {
				return fmt.Errorf("insert line: %w", err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("insert line: %w", err)
			}
			l.ID = id
		} else {
			_, err := c.q.ExecContext(ctx, `UPDATE move_lines SET
				move_id=?, name=?, display_type=?, account_id=?, partner_id=?,
				currency_code=?, balance=?, amount_currency=?, quantity=?, price_unit=?, discount=?,
				price_subtotal=?, price_total=?, tax_ids=?, tax_line_id=?, tax_repartition_line_id=?,
				tax_base_amount=?, tax_tag_ids=?, date_maturity=?, discount_date=?, analytic_distribution=?
			WHERE id=?`,
				l.MoveID, l.Name, string(l.DisplayType), l.AccountID, l.PartnerID,
				l.CurrencyCode, marshalDecimal(l.Balance), marshalDecimal(l.AmountCurrency),
				marshalDecimal(l.Quantity), marshalDecimal(l.PriceUnit), marshalDecimal(l.Discount),
				marshalDecimal(l.PriceSubtotal), marshalDecimal(l.PriceTotal),
				marshalIDs(l.TaxIDs), l.TaxLineID, l.TaxRepartitionLineID,
				marshalDecimal(l.TaxBaseAmount), marshalIDs(l.TaxTagIDs),
				marshalDate(l.DateMaturity), marshalDate(l.DiscountDate), analytic,
				l.ID,
			)
			if err != nil {
				return fmt.Errorf("update line %d: %w", l.ID, err)
			}
		}
		kept[l.ID] = true
	}

	rows, err := c.q.QueryContext(ctx, `SELECT id FROM move_lines WHERE move_id = ?`, m.ID)
	if err != nil {
		return fmt.Errorf("list lines of move %d: %w", m.ID, err)
	}
	defer rows.Close()
	var stale []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return err
		}
		if !kept[id] {
			stale = append(stale, id)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, id := range stale {
		if _, err := c.q.ExecContext(ctx, `DELETE FROM move_lines WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete line %d: %w", id, err)
		}
	}
	return nil
}

// GetMove loads a move with its lines.
func (c *Conn) GetMove(ctx context.Context, id int64) (*ledger.Move, error) {
	row := c.q.QueryRowContext(ctx, `SELECT `+moveColumns+` FROM moves WHERE id = ?`, id)
	m, err := scanMove(row)
	if err != nil {
		return nil, err
	}
	if err := c.loadLines(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// GetMoveByUUID loads a move by its creation token.
func (c *Conn) GetMoveByUUID(ctx context.Context, token string) (*ledger.Move, error) {
	row := c.q.QueryRowContext(ctx, `SELECT `+moveColumns+` FROM moves WHERE uuid = ?`, token)
	m, err := scanMove(row)
	if err != nil {
		return nil, err
	}
	if err := c.loadLines(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// DeleteMove removes the move and its lines. When a posted name is being
// freed the successor in the sequence is flagged as gapped.
func (c *Conn) DeleteMove(ctx context.Context, m *ledger.Move) error {
	if m.PostedBefore && m.HasRealName() {
		if err := c.MarkGapAfter(ctx, m.JournalID, m.SequencePrefix, m.SequenceNumber); err != nil {
			return err
		}
	}
	if _, err := c.q.ExecContext(ctx, `DELETE FROM moves WHERE id = ?`, m.ID); err != nil {
		return fmt.Errorf("delete move %d: %w", m.ID, err)
	}
	return nil
}

// MarkGapAfter flags the first move following the freed number in the
// same (journal, prefix) series. Resequencing tools surface the flag.
func (c *Conn) MarkGapAfter(ctx context.Context, journalID int64, prefix string, number int) error {
	_, err := c.q.ExecContext(ctx, `UPDATE moves SET made_sequence_gap = 1
		WHERE id = (
			SELECT id FROM moves
			WHERE journal_id = ? AND sequence_prefix = ? AND sequence_number > ?
			ORDER BY sequence_number ASC LIMIT 1
		)`, journalID, prefix, number)
	if err != nil {
		return fmt.Errorf("flag sequence gap after %s%d: %w", prefix, number, err)
	}
	return nil
}

func scanMove(row *sql.Row) (*ledger.Move, error) {
	m, err := scanMoveFrom(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return m, err
}

func scanMoveFrom(scan func(...any) error) (*ledger.Move, error) {
	var (
		m                                        ledger.Move
		state, moveType, autoPost                string
		rate                                     string
		date, invoiceDate, dueDate, autoPostTill string
		gap, postedBefore, toCheck               int
	)
	err := scan(
		&m.ID, &m.UUID, &m.Name, &m.Ref, &state, &moveType, &m.JournalID, &m.CompanyID,
		&m.PartnerID, &m.CurrencyCode, &rate, &date, &invoiceDate, &dueDate,
		&m.PaymentTermID, &m.CashRoundingID, &m.FiscalPositionID,
		&m.SequencePrefix, &m.SequenceNumber, &gap,
		&m.Hash, &postedBefore, &toCheck,
		&autoPost, &autoPostTill, &m.AutoPostOriginID, &m.ReversedEntryID,
	)
	if err != nil {
		return nil, err
	}
	m.State = ledger.State(state)
	m.MoveType = ledger.MoveType(moveType)
	m.AutoPost = ledger.AutoPost(autoPost)
	m.MadeSequenceGap = gap != 0
	m.PostedBefore = postedBefore != 0
	m.ToCheck = toCheck != 0
	if m.CurrencyRate, err = unmarshalDecimal(rate); err != nil {
		return nil, err
	}
	if m.Date, err = unmarshalDate(date); err != nil {
		return nil, err
	}
	if m.InvoiceDate, err = unmarshalDate(invoiceDate); err != nil {
		return nil, err
	}
	if m.DueDate, err = unmarshalDate(dueDate); err != nil {
		return nil, err
	}
	if m.AutoPostUntil, err = unmarshalDate(autoPostTill); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Conn) loadLines(ctx context.Context, m *ledger.Move) error {
	rows, err := c.q.QueryContext(ctx, `SELECT `+lineColumns+` FROM move_lines WHERE move_id = ? ORDER BY id`, m.ID)
	if err != nil {
		return fmt.Errorf("load lines of move %d: %w", m.ID, err)
	}
	defer rows.Close()
	m.Lines = nil
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return err
		}
		m.Lines = append(m.Lines, l)
	}
	return rows.Err()
}

func scanLine(rows *sql.Rows) (*ledger.Line, error) {
	var (
		l                                               ledger.Line
		displayType                                     string
		balance, amountCurrency, quantity, priceUnit    string
		discount, priceSubtotal, priceTotal, baseAmount string
		taxIDs, tagIDs, maturity, discountDate          string
		analytic                                        string
	)
	err := rows.Scan(
		&l.ID, &l.MoveID, &l.Name, &displayType, &l.AccountID, &l.PartnerID,
		&l.CurrencyCode, &balance, &amountCurrency, &quantity, &priceUnit, &discount,
		&priceSubtotal, &priceTotal, &taxIDs, &l.TaxLineID, &l.TaxRepartitionLineID,
		&baseAmount, &tagIDs, &maturity, &discountDate, &analytic,
	)
	if err != nil {
		return nil, err
	}
	l.DisplayType = ledger.DisplayType(displayType)
	if l.Balance, err = unmarshalDecimal(balance); err != nil {
		return nil, err
	}
	if l.AmountCurrency, err = unmarshalDecimal(amountCurrency); err != nil {
		return nil, err
	}
	if l.Quantity, err = unmarshalDecimal(quantity); err != nil {
		return nil, err
	}
	if l.PriceUnit, err = unmarshalDecimal(priceUnit); err != nil {
		return nil, err
	}
	if l.Discount, err = unmarshalDecimal(discount); err != nil {
		return nil, err
	}
	if l.PriceSubtotal, err = unmarshalDecimal(priceSubtotal); err != nil {
		return nil, err
	}
	if l.PriceTotal, err = unmarshalDecimal(priceTotal); err != nil {
		return nil, err
	}
	if l.TaxBaseAmount, err = unmarshalDecimal(baseAmount); err != nil {
		return nil, err
	}
	if l.TaxIDs, err = unmarshalIDs(taxIDs); err != nil {
		return nil, err
	}
	if l.TaxTagIDs, err = unmarshalIDs(tagIDs); err != nil {
		return nil, err
	}
	if l.DateMaturity, err = unmarshalDate(maturity); err != nil {
		return nil, err
	}
	if l.DiscountDate, err = unmarshalDate(discountDate); err != nil {
		return nil, err
	}
	if l.AnalyticDistribution, err = unmarshalAnalytic(analytic); err != nil {
		return nil, err
	}
	return &l, nil
}

// listMoves runs a header query and loads lines for every hit.
func (c *Conn) listMoves(ctx context.Context, query string, args ...any) ([]*ledger.Move, error) {
	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*ledger.Move
	for rows.Next() {
		m, err := scanMoveFrom(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, m := range out {
		if err := c.loadLines(ctx, m); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ListByState returns all moves of a journal in a state, sequence order.
func (c *Conn) ListByState(ctx context.Context, journalID int64, state ledger.State) ([]*ledger.Move, error) {
	return c.listMoves(ctx,
		`SELECT `+moveColumns+` FROM moves
		WHERE journal_id = ? AND state = ?
		ORDER BY sequence_prefix, sequence_number, id`,
		journalID, string(state))
}

// DueAutoPost returns up to limit draft moves whose auto-post date has
// arrived, oldest first. Moves flagged for review stay out of the batch
// until a human clears the flag.
func (c *Conn) DueAutoPost(ctx context.Context, asOf time.Time, limit int) ([]*ledger.Move, error) {
	return c.listMoves(ctx,
		`SELECT `+moveColumns+` FROM moves
		WHERE state = 'draft' AND auto_post != 'no' AND to_check = 0 AND date <= ?
		ORDER BY date, id LIMIT ?`,
		marshalDate(asOf), limit)
}
