package syncer

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/roach88/bookkeep/internal/diffline"
	"github.com/roach88/bookkeep/internal/extern"
	"github.com/roach88/bookkeep/internal/ledger"
)

// syncPaymentTerms produces the receivable/payable side of an invoice:
// either a single line due at the anchor date or the full installment
// schedule from the payment-term evaluator, computed from the now-final
// base and tax totals.
func (p *Pipeline) syncPaymentTerms(m *ledger.Move) error {
	if !m.MoveType.IsInvoice() {
		if len(m.LinesOf(ledger.DisplayPaymentTerm)) > 0 {
			diffline.Apply(m, diffline.Plan{DisplayType: ledger.DisplayPaymentTerm})
		}
		return nil
	}

	docSign := decimal.NewFromInt(int64(m.MoveType.DocumentSign()))
	untaxedCur, untaxed := decimal.Zero, decimal.Zero
	taxCur, tax := decimal.Zero, decimal.Zero
	for _, l := range m.Lines {
		switch l.DisplayType {
		case ledger.DisplayProduct, ledger.DisplayEPD, ledger.DisplayDiscount:
			untaxedCur = untaxedCur.Add(l.AmountCurrency)
			untaxed = untaxed.Add(l.Balance)
		case ledger.DisplayTax, ledger.DisplayRounding:
			taxCur = taxCur.Add(l.AmountCurrency)
			tax = tax.Add(l.Balance)
		}
	}

	// Nothing owed yet: an empty draft gets no receivable side at all.
	if untaxedCur.IsZero() && taxCur.IsZero() && untaxed.IsZero() && tax.IsZero() {
		if len(m.LinesOf(ledger.DisplayPaymentTerm)) > 0 {
			diffline.Apply(m, diffline.Plan{DisplayType: ledger.DisplayPaymentTerm})
		}
		return nil
	}

	anchor := m.InvoiceDate
	if anchor.IsZero() {
		anchor = m.Date
	}

	result, err := p.Terms.ComputeTerms(extern.TermInput{
		Term:            p.Registry.PaymentTerms[m.PaymentTermID],
		Anchor:          anchor,
		Currency:        p.Registry.MoveCurrency(m),
		CompanyCurrency: p.Registry.CompanyCurrency(m),
		Untaxed:         untaxed.Mul(docSign),
		UntaxedCurrency: untaxedCur.Mul(docSign),
		Tax:             tax.Mul(docSign),
		TaxCurrency:     taxCur.Mul(docSign),
		Sign:            m.AmountResidualSign(),
	})
	if err != nil {
		return err
	}

	account, err := p.termAccount(m)
	if err != nil {
		return err
	}

	ref := m.Ref
	if ref == "" {
		ref = m.DisplayName()
	}

	var desired []*ledger.Line
	for _, inst := range result.Installments {
		if inst.CompanyAmount.IsZero() && inst.ForeignAmount.IsZero() {
			continue
		}
		line := &ledger.Line{
			DisplayType:    ledger.DisplayPaymentTerm,
			AccountID:      account,
			PartnerID:      m.PartnerID,
			CurrencyCode:   m.CurrencyCode,
			Balance:        inst.CompanyAmount,
			AmountCurrency: inst.ForeignAmount,
			DateMaturity:   inst.Date,
		}
		if !result.DiscountDate.IsZero() {
			line.DiscountDate = result.DiscountDate
		}
		desired = append(desired, line)
	}
	if len(desired) > 1 {
		for i, line := range desired {
			line.Name = fmt.Sprintf("%s installment #%d", ref, i+1)
		}
	}

	diffline.Apply(m, diffline.Plan{
		DisplayType: ledger.DisplayPaymentTerm,
		Desired:     mergeByKey(desired),
		ForceUpdate: []diffline.Field{diffline.FieldName, diffline.FieldDateMaturity, diffline.FieldDiscountDate},
	})
	return nil
}

// termAccount deduces the receivable or payable account: posting history
// first, then the partner's preference, then the company default, mapped
// through the fiscal position.
func (p *Pipeline) termAccount(m *ledger.Move) (int64, error) {
	receivable := m.MoveType.IsSaleDocument()

	account := p.Suggest.MostFrequentAccount(m.PartnerID, m.MoveType, ledger.DisplayPaymentTerm)
	if account == 0 {
		account = p.Registry.PartnerAccount(m.PartnerID, m.CompanyID, receivable)
	}
	if account == 0 {
		kind := "payable"
		if receivable {
			kind = "receivable"
		}
		return 0, &ledger.MissingConfigError{
			What:  kind + " account",
			Where: "company defaults or partner record",
		}
	}

	fp := p.Registry.FiscalPositions[m.FiscalPositionID]
	return fp.MapAccount(account), nil
}
