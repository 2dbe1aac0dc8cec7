// Package diffline matches freshly computed derived lines against the
// lines already present on a move and applies the minimal set of create,
// update, and unlink mutations. Matching preserves line identity across
// edits wherever a grouping key still resolves, so user-visible ids do
// not churn on every recomputation.
//
// The same command stream drives both the onchange path (in-memory
// mutation of an unsaved move) and the write path (persisted rows): the
// store replays the command log it gets back from Apply.
package diffline

import (
	"github.com/roach88/bookkeep/internal/ledger"
)

// Op is the kind of mutation a command carries.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpUnlink Op = "unlink"
)

// Field names a line attribute an update command may touch. Updates are
// limited to monetary fields unless the synchronizer forces more.
type Field string

const (
	FieldBalance        Field = "balance"
	FieldAmountCurrency Field = "amount_currency"
	FieldTaxBaseAmount  Field = "tax_base_amount"
	FieldTaxTagIDs      Field = "tax_tag_ids"
	FieldName           Field = "name"
	FieldDateMaturity   Field = "date_maturity"
	FieldDiscountDate   Field = "discount_date"
	FieldAccount        Field = "account_id"
)

// monetaryFields are always written on a key match.
var monetaryFields = []Field{FieldBalance, FieldAmountCurrency}

// Command is one applied mutation. Line points at the affected line
// (the created line for OpCreate). Fields lists what an update wrote.
type Command struct {
	Op     Op
	Line   *ledger.Line
	Fields []Field
}

// Plan is one synchronizer's desired outcome for a display type.
type Plan struct {
	DisplayType ledger.DisplayType

	// Desired lines keyed implicitly by their grouping key. A nil or
	// empty slice unlinks every line of the display type.
	Desired []*ledger.Line

	// ForceUpdate extends the written field set beyond the monetary pair.
	ForceUpdate []Field

	// ByID switches to update-by-id mode: each entry targets a specific
	// existing line regardless of grouping key (biggest-tax rounding).
	ByID map[*ledger.Line]*ledger.Line
}

// Apply reconciles the move's lines of the plan's display type with the
// desired set and returns the command log in application order:
// creates, then updates, then unlinks.
func Apply(m *ledger.Move, p Plan) []Command {
	if len(p.ByID) > 0 {
		return applyByID(m, p)
	}

	candidates := map[ledger.GroupingKey]*ledger.Line{}
	matched := map[*ledger.Line]bool{}
	for _, l := range m.LinesOf(p.DisplayType) {
		candidates[l.Key()] = l
	}

	var creates, updates, unlinks []Command

	for _, want := range p.Desired {
		want.DisplayType = p.DisplayType
		if have, ok := candidates[want.Key()]; ok && !matched[have] {
			matched[have] = true
			fields := writeFields(p.ForceUpdate)
			copyFields(have, want, fields)
			updates = append(updates, Command{Op: OpUpdate, Line: have, Fields: fields})
			continue
		}
		created := want
		creates = append(creates, Command{Op: OpCreate, Line: created})
	}

	for _, l := range m.LinesOf(p.DisplayType) {
		if !matched[l] {
			unlinks = append(unlinks, Command{Op: OpUnlink, Line: l})
		}
	}

	// Creates first so the move never transits through an emptier state
	// than necessary, then updates, then unlinks.
	for _, c := range creates {
		m.Lines = append(m.Lines, c.Line)
	}
	for _, c := range unlinks {
		m.RemoveLine(c.Line)
	}

	out := make([]Command, 0, len(creates)+len(updates)+len(unlinks))
	out = append(out, creates...)
	out = append(out, updates...)
	out = append(out, unlinks...)
	return out
}

func applyByID(m *ledger.Move, p Plan) []Command {
	var out []Command
	for target, want := range p.ByID {
		fields := writeFields(p.ForceUpdate)
		copyFields(target, want, fields)
		out = append(out, Command{Op: OpUpdate, Line: target, Fields: fields})
	}
	return out
}

func writeFields(force []Field) []Field {
	fields := append([]Field(nil), monetaryFields...)
	for _, f := range force {
		dup := false
		for _, existing := range fields {
			if existing == f {
				dup = true
				break
			}
		}
		if !dup {
			fields = append(fields, f)
		}
	}
	return fields
}

func copyFields(dst, src *ledger.Line, fields []Field) {
	for _, f := range fields {
		switch f {
		case FieldBalance:
			dst.Balance = src.Balance
		case FieldAmountCurrency:
			dst.AmountCurrency = src.AmountCurrency
		case FieldTaxBaseAmount:
			dst.TaxBaseAmount = src.TaxBaseAmount
		case FieldTaxTagIDs:
			dst.TaxTagIDs = append([]int64(nil), src.TaxTagIDs...)
		case FieldName:
			dst.Name = src.Name
		case FieldDateMaturity:
			dst.DateMaturity = src.DateMaturity
		case FieldDiscountDate:
			dst.DiscountDate = src.DiscountDate
		case FieldAccount:
			dst.AccountID = src.AccountID
		}
	}
}
