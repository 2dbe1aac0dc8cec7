package chain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/roach88/bookkeep/internal/ledger"
	"github.com/roach88/bookkeep/internal/money"
)

// CurrentVersion is the hash version written on new chains. Four
// versions coexist in stored data:
//
//	v1: hashes (date, journal, company) plus line integrity fields
//	v2: adds the move name
//	v3: formats monetary values to the currency's decimal places
//	v4: stores "$version$hash" so successors recompute independently
const CurrentVersion = 4

var hashPattern = regexp.MustCompile(`^\$(\d+)\$([0-9a-f]+)$`)

// ParseHash splits a stored "$version$hex" hash. Bare hex (pre-v4
// storage) parses as version 3.
func ParseHash(s string) (version int, digest string, err error) {
	if m := hashPattern.FindStringSubmatch(s); m != nil {
		v, convErr := strconv.Atoi(m[1])
		if convErr != nil {
			return 0, "", fmt.Errorf("parse hash %q: %w", s, convErr)
		}
		return v, m[2], nil
	}
	if len(s) == sha256.Size*2 {
		return 3, s, nil
	}
	return 0, "", fmt.Errorf("parse hash: %q is not a chain hash", s)
}

// IntegrityPayload builds the canonical structure hashed for a move:
// the header integrity fields plus each line's account, partner, debit,
// credit, currency, and amount in document currency.
func IntegrityPayload(m *ledger.Move, reg *ledger.Registry, version int) map[string]any {
	companyCur := reg.CompanyCurrency(m)
	moveCur := reg.MoveCurrency(m)

	payload := map[string]any{
		"date":       m.Date.Format("2006-01-02"),
		"journal_id": m.JournalID,
		"company_id": m.CompanyID,
	}
	if version >= 2 {
		payload["name"] = m.Name
	}

	lines := make([]any, 0, len(m.Lines))
	for _, l := range m.Lines {
		if !l.ContributesToTotals() {
			continue
		}
		lines = append(lines, map[string]any{
			"account_id":      l.AccountID,
			"partner_id":      l.PartnerID,
			"currency":        l.CurrencyCode,
			"debit":           formatAmount(l.Debit(), companyCur.Decimals, version),
			"credit":          formatAmount(l.Credit(), companyCur.Decimals, version),
			"amount_currency": formatAmount(l.AmountCurrency, moveCur.Decimals, version),
		})
	}
	payload["line_ids"] = lines
	return payload
}

func formatAmount(v decimal.Decimal, decimals int32, version int) string {
	if version >= 3 {
		return money.FormatRepr(v, decimals)
	}
	return v.String()
}

// ComputeHash chains a move onto prevHash: SHA-256 over the predecessor
// hash concatenated with the canonical JSON of the integrity payload.
// prevHash is the stored form of the predecessor ("" for the first move
// of a chain); the result is formatted per the requested version.
func ComputeHash(m *ledger.Move, reg *ledger.Registry, prevHash string, version int) (string, error) {
	payload := IntegrityPayload(m, reg, version)
	canonical, err := MarshalCanonical(payload)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", m.DisplayName(), err)
	}

	h := sha256.New()
	h.Write([]byte(prevHash))
	h.Write(canonical)
	digest := hex.EncodeToString(h.Sum(nil))

	if version >= 4 {
		return fmt.Sprintf("$%d$%s", version, digest), nil
	}
	return digest, nil
}

// Extend hashes a contiguous run of candidate moves in sequence order,
// chaining each onto its predecessor. Candidates must be posted, not yet
// hashed, and strictly increasing in sequence number with no gap; the
// caller selects and orders them. Hashes are written onto the moves.
func Extend(moves []*ledger.Move, reg *ledger.Registry, journal *ledger.Journal, prevHash string) error {
	for i, m := range moves {
		if m.State != ledger.StatePosted {
			return &ledger.TransitionError{Move: m.DisplayName(), From: m.State, To: ledger.StatePosted}
		}
		if m.IsHashed() {
			return &ledger.IntegrityLockError{Move: m.DisplayName(), Field: "inalterable_hash"}
		}
		if i > 0 {
			prev := moves[i-1]
			if m.SequenceNumber != prev.SequenceNumber+1 {
				return &ledger.SequenceGapError{
					Journal: journal.Code,
					Prefix:  m.SequencePrefix,
					After:   prev.SequenceNumber,
					Next:    m.SequenceNumber,
				}
			}
		}
		hash, err := ComputeHash(m, reg, prevHash, CurrentVersion)
		if err != nil {
			return err
		}
		m.Hash = hash
		prevHash = hash
	}
	return nil
}

// Verify walks an already-hashed run in order and recomputes every hash.
// Returns the index of the first move whose stored hash does not match,
// or -1 when the chain is intact.
func Verify(moves []*ledger.Move, reg *ledger.Registry, prevHash string) (int, error) {
	for i, m := range moves {
		version, _, err := ParseHash(m.Hash)
		if err != nil {
			return i, err
		}
		want, err := ComputeHash(m, reg, prevHash, version)
		if err != nil {
			return i, err
		}
		if want != m.Hash {
			return i, fmt.Errorf("hash mismatch on %s: stored %s, recomputed %s", m.DisplayName(), m.Hash, want)
		}
		prevHash = m.Hash
	}
	return -1, nil
}

// IntegrityFields lists the header fields frozen once a move is hashed.
var IntegrityFields = []string{"name", "date", "journal_id", "company_id"}

// LineIntegrityFields lists the frozen line fields.
var LineIntegrityFields = []string{"account_id", "partner_id", "debit", "credit", "currency", "amount_currency"}
