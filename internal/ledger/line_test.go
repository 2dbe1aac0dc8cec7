package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDebitCreditProjections(t *testing.T) {
	l := &Line{Balance: decimal.NewFromInt(110)}
	assert.True(t, l.Debit().Equal(decimal.NewFromInt(110)))
	assert.True(t, l.Credit().IsZero())

	l.Balance = decimal.NewFromInt(-110)
	assert.True(t, l.Debit().IsZero())
	assert.True(t, l.Credit().Equal(decimal.NewFromInt(110)))

	l.Balance = decimal.Zero
	assert.True(t, l.Debit().IsZero())
	assert.True(t, l.Credit().IsZero())
}

func TestContributesToTotals(t *testing.T) {
	assert.True(t, (&Line{DisplayType: DisplayProduct}).ContributesToTotals())
	assert.True(t, (&Line{DisplayType: DisplayTax}).ContributesToTotals())
	assert.False(t, (&Line{DisplayType: DisplaySection}).ContributesToTotals())
	assert.False(t, (&Line{DisplayType: DisplayNote}).ContributesToTotals())
}

func TestGroupingKeyTaxIDOrderInsensitive(t *testing.T) {
	a := &Line{DisplayType: DisplayEPD, AccountID: 709, TaxIDs: []int64{2, 1}}
	b := &Line{DisplayType: DisplayEPD, AccountID: 709, TaxIDs: []int64{1, 2}}
	assert.Equal(t, a.Key(), b.Key())

	c := &Line{DisplayType: DisplayEPD, AccountID: 709, TaxIDs: []int64{1}}
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestGroupingKeyNilAndEmptyEquivalent(t *testing.T) {
	a := &Line{DisplayType: DisplayTax, AccountID: 251}
	b := &Line{DisplayType: DisplayTax, AccountID: 251, TaxIDs: []int64{}, TaxTagIDs: []int64{},
		AnalyticDistribution: map[int64]decimal.Decimal{}}
	assert.Equal(t, a.Key(), b.Key())
}

func TestGroupingKeyFieldsPerDisplayType(t *testing.T) {
	// Payment-term keys discriminate on maturity, not taxes.
	early := &Line{DisplayType: DisplayPaymentTerm, AccountID: 121,
		DateMaturity: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)}
	late := &Line{DisplayType: DisplayPaymentTerm, AccountID: 121,
		DateMaturity: time.Date(2026, 5, 14, 0, 0, 0, 0, time.UTC)}
	assert.NotEqual(t, early.Key(), late.Key())

	// Tax keys discriminate on the repartition line.
	repA := &Line{DisplayType: DisplayTax, AccountID: 251, TaxRepartitionLineID: 12}
	repB := &Line{DisplayType: DisplayTax, AccountID: 251, TaxRepartitionLineID: 14}
	assert.NotEqual(t, repA.Key(), repB.Key())

	// Product keys ignore both.
	prodA := &Line{DisplayType: DisplayProduct, AccountID: 400, TaxRepartitionLineID: 12,
		DateMaturity: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)}
	prodB := &Line{DisplayType: DisplayProduct, AccountID: 400}
	assert.Equal(t, prodA.Key(), prodB.Key())
}

func TestGroupingKeyAnalytic(t *testing.T) {
	half := decimal.NewFromInt(50)
	a := &Line{DisplayType: DisplayEPD, AccountID: 709,
		AnalyticDistribution: map[int64]decimal.Decimal{1: half, 2: half}}
	b := &Line{DisplayType: DisplayEPD, AccountID: 709,
		AnalyticDistribution: map[int64]decimal.Decimal{2: half, 1: half}}
	assert.Equal(t, a.Key(), b.Key())

	c := &Line{DisplayType: DisplayEPD, AccountID: 709,
		AnalyticDistribution: map[int64]decimal.Decimal{1: decimal.NewFromInt(100)}}
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestLineCloneIsDeep(t *testing.T) {
	orig := &Line{
		ID: 7, MoveID: 3, Name: "Widget",
		DisplayType: DisplayProduct, AccountID: 400,
		TaxIDs: []int64{1}, TaxTagIDs: []int64{101},
		AnalyticDistribution: map[int64]decimal.Decimal{5: decimal.NewFromInt(100)},
	}
	c := orig.Clone()

	assert.Zero(t, c.ID)
	assert.Zero(t, c.MoveID)
	assert.Equal(t, orig.Name, c.Name)

	c.TaxIDs[0] = 99
	c.AnalyticDistribution[5] = decimal.Zero
	assert.Equal(t, int64(1), orig.TaxIDs[0])
	assert.True(t, orig.AnalyticDistribution[5].Equal(decimal.NewFromInt(100)))
}
