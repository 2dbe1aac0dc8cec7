package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundHalfUp(t *testing.T) {
	eur := NewCurrency("EUR", 2, RoundHalfUp)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no-op", "10.50", "10.5"},
		{"round down", "10.504", "10.5"},
		{"round up", "10.506", "10.51"},
		{"tie away from zero", "10.505", "10.51"},
		{"negative tie away from zero", "-10.505", "-10.51"},
		{"three places", "0.015", "0.02"},
		{"zero", "0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := eur.Round(MustParse(tt.input))
			assert.True(t, got.Equal(MustParse(tt.expected)), "got %s", got)
		})
	}
}

func TestRoundHalfEven(t *testing.T) {
	chf := NewCurrency("CHF", 2, RoundHalfEven)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"tie to even below", "10.505", "10.5"},
		{"tie to even above", "10.515", "10.52"},
		{"negative tie to even", "-10.505", "-10.5"},
		{"non-tie unchanged", "10.506", "10.51"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := chf.Round(MustParse(tt.input))
			assert.True(t, got.Equal(MustParse(tt.expected)), "got %s", got)
		})
	}
}

func TestRoundToIncrement(t *testing.T) {
	eur := NewCurrency("EUR", 2, RoundHalfUp)
	nickel := MustParse("0.05")

	tests := []struct {
		input    string
		expected string
	}{
		{"100.02", "100"},
		{"100.03", "100.05"},
		{"100.025", "100.05"},
		{"-100.03", "-100.05"},
		{"100.00", "100"},
	}

	for _, tt := range tests {
		got := eur.RoundToIncrement(MustParse(tt.input), nickel)
		assert.True(t, got.Equal(MustParse(tt.expected)), "%s -> got %s", tt.input, got)
	}

	// Zero increment falls back to the currency's own rounding.
	got := eur.RoundToIncrement(MustParse("10.505"), decimal.Zero)
	assert.True(t, got.Equal(MustParse("10.51")), "got %s", got)
}

func TestIsZeroAndEqual(t *testing.T) {
	eur := NewCurrency("EUR", 2, RoundHalfUp)

	assert.True(t, eur.IsZero(MustParse("0.004")))
	assert.False(t, eur.IsZero(MustParse("0.006")))
	assert.True(t, eur.Equal(MustParse("10.001"), MustParse("10.004")))
	assert.False(t, eur.Equal(MustParse("10.00"), MustParse("10.01")))
}

func TestCompare(t *testing.T) {
	eur := NewCurrency("EUR", 2, RoundHalfUp)

	assert.Equal(t, 0, eur.Compare(MustParse("10.001"), MustParse("10.002")))
	assert.Equal(t, -1, eur.Compare(MustParse("9.99"), MustParse("10.00")))
	assert.Equal(t, 1, eur.Compare(MustParse("10.01"), MustParse("10.00")))
}

func TestConvertRoundsAtAssignment(t *testing.T) {
	usd := NewCurrency("USD", 2, RoundHalfUp)

	got := usd.Convert(MustParse("100"), MustParse("1.0837"))
	assert.True(t, got.Equal(MustParse("108.37")), "got %s", got)

	// Converting back at the inverse rate does not restore the original:
	// 0.01 at rate 0.5 rounds up to 0.01, which doubles back to 0.02.
	small := usd.Convert(MustParse("0.01"), MustParse("0.5"))
	back := usd.Convert(small, MustParse("2"))
	assert.False(t, back.Equal(MustParse("0.01")), "expected round-trip drift, got %s", back)
}

func TestFormatRepr(t *testing.T) {
	assert.Equal(t, "-205.80", FormatRepr(MustParse("-205.8"), 2))
	assert.Equal(t, "0.00", FormatRepr(decimal.Zero, 2))
	assert.Equal(t, "110", FormatRepr(MustParse("110.4"), 0))
	assert.Equal(t, "12.345", FormatRepr(MustParse("12.345"), 3))
}

func TestMustParsePanics(t *testing.T) {
	require.Panics(t, func() { MustParse("not a number") })
}
