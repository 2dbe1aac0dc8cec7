package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/bookkeep/internal/money"
)

// Registry is the in-memory master-data directory and identity map for a
// transaction. The synchronizers resolve every cross-record reference
// through it instead of holding back-pointers on lines.
type Registry struct {
	Companies       map[int64]*Company
	Journals        map[int64]*Journal
	Accounts        map[int64]*Account
	Partners        map[int64]*Partner
	Taxes           map[int64]*Tax
	PaymentTerms    map[int64]*PaymentTerm
	CashRoundings   map[int64]*CashRounding
	FiscalPositions map[int64]*FiscalPosition
	Currencies      map[string]money.Currency

	rates map[ratePair]decimal.Decimal
}

type ratePair struct{ from, to string }

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		Companies:       map[int64]*Company{},
		Journals:        map[int64]*Journal{},
		Accounts:        map[int64]*Account{},
		Partners:        map[int64]*Partner{},
		Taxes:           map[int64]*Tax{},
		PaymentTerms:    map[int64]*PaymentTerm{},
		CashRoundings:   map[int64]*CashRounding{},
		FiscalPositions: map[int64]*FiscalPosition{},
		Currencies:      map[string]money.Currency{},
		rates:           map[ratePair]decimal.Decimal{},
	}
}

// Currency resolves a currency code; unknown codes fall back to a
// two-decimal half-up currency so monetary math never divides by zero.
func (r *Registry) Currency(code string) money.Currency {
	if c, ok := r.Currencies[code]; ok {
		return c
	}
	return money.NewCurrency(code, 2, money.RoundHalfUp)
}

// SetRate records a conversion rate between two currencies. The inverse
// is derived on demand; it is not forced to be penny-invertible.
func (r *Registry) SetRate(from, to string, rate decimal.Decimal) {
	r.rates[ratePair{from, to}] = rate
}

// Rate returns the positive from→to scalar for a company and date.
// Same-currency conversion is exactly 1. The date parameter keys dated
// rate tables; the static registry ignores it.
func (r *Registry) Rate(from, to string, companyID int64, date time.Time) decimal.Decimal {
	if from == to {
		return decimal.NewFromInt(1)
	}
	if rate, ok := r.rates[ratePair{from, to}]; ok {
		return rate
	}
	if inv, ok := r.rates[ratePair{to, from}]; ok && !inv.IsZero() {
		return decimal.NewFromInt(1).Div(inv)
	}
	return decimal.NewFromInt(1)
}

// CompanyCurrency returns the company currency for a move.
func (r *Registry) CompanyCurrency(m *Move) money.Currency {
	company := r.Companies[m.CompanyID]
	if company == nil {
		return money.NewCurrency("???", 2, money.RoundHalfUp)
	}
	return r.Currency(company.CurrencyCode)
}

// MoveCurrency returns the document currency for a move.
func (r *Registry) MoveCurrency(m *Move) money.Currency {
	return r.Currency(m.CurrencyCode)
}

// MoveRate returns the document-per-company rate for a move, preferring
// the rate frozen on the move itself.
func (r *Registry) MoveRate(m *Move) decimal.Decimal {
	if !m.CurrencyRate.IsZero() {
		return m.CurrencyRate
	}
	company := r.Companies[m.CompanyID]
	if company == nil || company.CurrencyCode == m.CurrencyCode {
		return decimal.NewFromInt(1)
	}
	date := m.InvoiceDate
	if date.IsZero() {
		date = m.Date
	}
	return r.Rate(company.CurrencyCode, m.CurrencyCode, m.CompanyID, date)
}

// RepartitionLine finds a tax repartition line by id across all taxes.
func (r *Registry) RepartitionLine(id int64) (*Tax, *TaxRepartitionLine) {
	for _, tax := range r.Taxes {
		for i := range tax.InvoiceRepartition {
			if tax.InvoiceRepartition[i].ID == id {
				return tax, &tax.InvoiceRepartition[i]
			}
		}
		for i := range tax.RefundRepartition {
			if tax.RefundRepartition[i].ID == id {
				return tax, &tax.RefundRepartition[i]
			}
		}
	}
	return nil, nil
}

// TaxesByID resolves a list of tax ids, skipping unknown ones.
func (r *Registry) TaxesByID(ids []int64) []*Tax {
	out := make([]*Tax, 0, len(ids))
	for _, id := range ids {
		if t, ok := r.Taxes[id]; ok {
			out = append(out, t)
		}
	}
	return out
}

// PartnerAccount deduces the receivable or payable account for a partner,
// falling back to the company default. Returns 0 when nothing is
// configured; callers surface that as a MissingConfigError.
func (r *Registry) PartnerAccount(partnerID, companyID int64, receivable bool) int64 {
	if p, ok := r.Partners[partnerID]; ok {
		if receivable && p.ReceivableID != 0 {
			return p.ReceivableID
		}
		if !receivable && p.PayableID != 0 {
			return p.PayableID
		}
	}
	if c, ok := r.Companies[companyID]; ok {
		if receivable {
			return c.ReceivableAccountID
		}
		return c.PayableAccountID
	}
	return 0
}
