package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/roach88/bookkeep/internal/ledger"
	"github.com/roach88/bookkeep/internal/money"
)

// The YAML configuration holds the master data the engine resolves
// against: companies, journals, the chart of accounts, partners, taxes,
// payment terms, rounding policies, and currency rates. Moves themselves
// live in the database, never in configuration.

type configFile struct {
	Companies       []companyConfig        `yaml:"companies"`
	Journals        []journalConfig        `yaml:"journals"`
	Accounts        []accountConfig        `yaml:"accounts"`
	Partners        []partnerConfig        `yaml:"partners"`
	Taxes           []taxConfig            `yaml:"taxes"`
	PaymentTerms    []paymentTermConfig    `yaml:"payment_terms"`
	CashRoundings   []cashRoundingConfig   `yaml:"cash_roundings"`
	FiscalPositions []fiscalPositionConfig `yaml:"fiscal_positions"`
	Currencies      []currencyConfig       `yaml:"currencies"`
	Rates           []rateConfig           `yaml:"rates"`
}

type companyConfig struct {
	ID                  int64  `yaml:"id"`
	Name                string `yaml:"name"`
	Currency            string `yaml:"currency"`
	Country             string `yaml:"country"`
	FiscalLockDate      string `yaml:"fiscal_lock_date"`
	TaxLockDate         string `yaml:"tax_lock_date"`
	FiscalYearLastDay   int    `yaml:"fiscal_year_last_day"`
	FiscalYearLastMonth int    `yaml:"fiscal_year_last_month"`
	ReceivableAccount   int64  `yaml:"receivable_account"`
	PayableAccount      int64  `yaml:"payable_account"`
	SuspenseAccount     int64  `yaml:"suspense_account"`
	EPDAccount          int64  `yaml:"epd_account"`
	DiscountAccount     int64  `yaml:"discount_account"`
}

type journalConfig struct {
	ID               int64  `yaml:"id"`
	Code             string `yaml:"code"`
	Name             string `yaml:"name"`
	Type             string `yaml:"type"`
	Company          int64  `yaml:"company"`
	RefundSequence   bool   `yaml:"refund_sequence"`
	PaymentSequence  bool   `yaml:"payment_sequence"`
	HashChain        bool   `yaml:"hash_chain"`
	SequenceOverride string `yaml:"sequence_override"`
}

type accountConfig struct {
	ID         int64  `yaml:"id"`
	Code       string `yaml:"code"`
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Company    int64  `yaml:"company"`
	Deprecated bool   `yaml:"deprecated"`
}

type partnerConfig struct {
	ID         int64  `yaml:"id"`
	Name       string `yaml:"name"`
	Archived   bool   `yaml:"archived"`
	Receivable int64  `yaml:"receivable_account"`
	Payable    int64  `yaml:"payable_account"`
}

type repartitionConfig struct {
	ID      int64   `yaml:"id"`
	Type    string  `yaml:"type"` // base | tax
	Factor  string  `yaml:"factor"`
	Account int64   `yaml:"account"`
	Tags    []int64 `yaml:"tags"`
}

type taxConfig struct {
	ID                 int64               `yaml:"id"`
	Name               string              `yaml:"name"`
	Amount             string              `yaml:"amount"`
	AmountType         string              `yaml:"amount_type"`
	PriceInclude       bool                `yaml:"price_include"`
	Country            string              `yaml:"country"`
	InvoiceRepartition []repartitionConfig `yaml:"invoice_repartition"`
	RefundRepartition  []repartitionConfig `yaml:"refund_repartition"`
}

type paymentTermConfig struct {
	ID    int64 `yaml:"id"`
	Name  string
	Lines []struct {
		Percent string `yaml:"percent"`
		Days    int    `yaml:"days"`
	} `yaml:"lines"`
	EarlyDiscount      bool   `yaml:"early_discount"`
	DiscountPercentage string `yaml:"discount_percentage"`
	DiscountDays       int    `yaml:"discount_days"`
	EPDComputation     string `yaml:"epd_computation"`
}

type cashRoundingConfig struct {
	ID            int64  `yaml:"id"`
	Name          string `yaml:"name"`
	Rounding      string `yaml:"rounding"`
	Strategy      string `yaml:"strategy"`
	ProfitAccount int64  `yaml:"profit_account"`
	LossAccount   int64  `yaml:"loss_account"`
	Mode          string `yaml:"mode"`
}

type fiscalPositionConfig struct {
	ID         int64           `yaml:"id"`
	Name       string          `yaml:"name"`
	AccountMap map[int64]int64 `yaml:"account_map"`
}

type currencyConfig struct {
	Code     string `yaml:"code"`
	Decimals int32  `yaml:"decimals"`
	Mode     string `yaml:"mode"`
}

type rateConfig struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
	Rate string `yaml:"rate"`
}

// LoadRegistry reads a YAML master-data file into a Registry.
func LoadRegistry(path string) (*ledger.Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg configFile
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return buildRegistry(&cfg)
}

func buildRegistry(cfg *configFile) (*ledger.Registry, error) {
	reg := ledger.NewRegistry()

	for _, c := range cfg.Currencies {
		mode := money.RoundHalfUp
		if c.Mode == string(money.RoundHalfEven) {
			mode = money.RoundHalfEven
		}
		reg.Currencies[c.Code] = money.NewCurrency(c.Code, c.Decimals, mode)
	}
	for _, r := range cfg.Rates {
		rate, err := parseDecimal(r.Rate, "rate "+r.From+"/"+r.To)
		if err != nil {
			return nil, err
		}
		reg.SetRate(r.From, r.To, rate)
	}

	for _, c := range cfg.Companies {
		lock, err := parseConfigDate(c.FiscalLockDate, "fiscal_lock_date")
		if err != nil {
			return nil, err
		}
		taxLock, err := parseConfigDate(c.TaxLockDate, "tax_lock_date")
		if err != nil {
			return nil, err
		}
		reg.Companies[c.ID] = &ledger.Company{
			ID:                  c.ID,
			Name:                c.Name,
			CurrencyCode:        c.Currency,
			CountryCode:         c.Country,
			FiscalLockDate:      lock,
			TaxLockDate:         taxLock,
			FiscalYearLastDay:   c.FiscalYearLastDay,
			FiscalYearLastMonth: time.Month(c.FiscalYearLastMonth),
			ReceivableAccountID: c.ReceivableAccount,
			PayableAccountID:    c.PayableAccount,
			SuspenseAccountID:   c.SuspenseAccount,
			EPDAccountID:        c.EPDAccount,
			DiscountAccountID:   c.DiscountAccount,
		}
	}

	for _, j := range cfg.Journals {
		reg.Journals[j.ID] = &ledger.Journal{
			ID:               j.ID,
			Code:             j.Code,
			Name:             j.Name,
			Type:             ledger.JournalType(j.Type),
			CompanyID:        j.Company,
			Active:           true,
			RefundSequence:   j.RefundSequence,
			PaymentSequence:  j.PaymentSequence,
			HashChain:        j.HashChain,
			SequenceOverride: j.SequenceOverride,
		}
	}

	for _, a := range cfg.Accounts {
		reg.Accounts[a.ID] = &ledger.Account{
			ID:         a.ID,
			Code:       a.Code,
			Name:       a.Name,
			Type:       ledger.AccountType(a.Type),
			CompanyID:  a.Company,
			Deprecated: a.Deprecated,
		}
	}

	for _, p := range cfg.Partners {
		reg.Partners[p.ID] = &ledger.Partner{
			ID:           p.ID,
			Name:         p.Name,
			Active:       !p.Archived,
			ReceivableID: p.Receivable,
			PayableID:    p.Payable,
		}
	}

	for _, t := range cfg.Taxes {
		amount, err := parseDecimal(t.Amount, "tax "+t.Name)
		if err != nil {
			return nil, err
		}
		tax := &ledger.Tax{
			ID:           t.ID,
			Name:         t.Name,
			Amount:       amount,
			AmountType:   t.AmountType,
			PriceInclude: t.PriceInclude,
			CountryCode:  t.Country,
		}
		if tax.AmountType == "" {
			tax.AmountType = "percent"
		}
		if tax.InvoiceRepartition, err = buildRepartition(t.InvoiceRepartition, t.ID); err != nil {
			return nil, err
		}
		if tax.RefundRepartition, err = buildRepartition(t.RefundRepartition, t.ID); err != nil {
			return nil, err
		}
		reg.Taxes[t.ID] = tax
	}

	for _, pt := range cfg.PaymentTerms {
		term := &ledger.PaymentTerm{
			ID:             pt.ID,
			Name:           pt.Name,
			EarlyDiscount:  pt.EarlyDiscount,
			DiscountDays:   pt.DiscountDays,
			EPDComputation: ledger.EPDComputation(pt.EPDComputation),
		}
		if pt.DiscountPercentage != "" {
			p, err := parseDecimal(pt.DiscountPercentage, "payment term "+pt.Name)
			if err != nil {
				return nil, err
			}
			term.DiscountPercentage = p
		}
		for _, l := range pt.Lines {
			percent, err := parseDecimal(l.Percent, "payment term "+pt.Name)
			if err != nil {
				return nil, err
			}
			term.Lines = append(term.Lines, ledger.PaymentTermLine{ValuePercent: percent, Days: l.Days})
		}
		reg.PaymentTerms[pt.ID] = term
	}

	for _, cr := range cfg.CashRoundings {
		step, err := parseDecimal(cr.Rounding, "cash rounding "+cr.Name)
		if err != nil {
			return nil, err
		}
		mode := money.RoundHalfUp
		if cr.Mode == string(money.RoundHalfEven) {
			mode = money.RoundHalfEven
		}
		reg.CashRoundings[cr.ID] = &ledger.CashRounding{
			ID:              cr.ID,
			Name:            cr.Name,
			Rounding:        step,
			Strategy:        ledger.CashRoundingStrategy(cr.Strategy),
			ProfitAccountID: cr.ProfitAccount,
			LossAccountID:   cr.LossAccount,
			Mode:            mode,
		}
	}

	for _, fp := range cfg.FiscalPositions {
		reg.FiscalPositions[fp.ID] = &ledger.FiscalPosition{
			ID:         fp.ID,
			Name:       fp.Name,
			AccountMap: fp.AccountMap,
		}
	}

	return reg, nil
}

func buildRepartition(rows []repartitionConfig, taxID int64) ([]ledger.TaxRepartitionLine, error) {
	out := make([]ledger.TaxRepartitionLine, 0, len(rows))
	for _, r := range rows {
		factor := decimal.NewFromInt(1)
		if r.Factor != "" {
			f, err := parseDecimal(r.Factor, fmt.Sprintf("repartition %d", r.ID))
			if err != nil {
				return nil, err
			}
			factor = f
		}
		out = append(out, ledger.TaxRepartitionLine{
			ID:        r.ID,
			TaxID:     taxID,
			Type:      r.Type,
			Factor:    factor,
			AccountID: r.Account,
			TagIDs:    r.Tags,
		})
	}
	return out, nil
}

func parseDecimal(s, where string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: bad decimal %q: %w", where, s, err)
	}
	return d, nil
}

func parseConfigDate(s, where string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: bad date %q: %w", where, s, err)
	}
	return t, nil
}
