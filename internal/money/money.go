// Package money is the monetary kernel: per-currency rounding, zero tests,
// comparisons, and rate conversion.
//
// All arithmetic uses decimal.Decimal. Floats never enter a money path;
// every assignment into a balance or amount_currency field goes through
// Round first, so a rate conversion never assumes penny-level invertibility.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RoundingMode selects the tie-breaking rule for a currency.
type RoundingMode string

const (
	// RoundHalfUp rounds ties away from zero (the common fiscal default).
	RoundHalfUp RoundingMode = "half-up"

	// RoundHalfEven rounds ties to the even neighbor (banker's rounding).
	RoundHalfEven RoundingMode = "half-even"
)

// Currency carries the rounding policy for one currency.
//
// Rounding is the smallest representable increment (0.01 for most
// currencies, 0.05 for cash-rounded ones such as CHF coinage). Decimals is
// the display precision and also the exponent used by zero tests.
type Currency struct {
	Code     string
	Decimals int32
	Rounding decimal.Decimal // smallest increment, e.g. 0.01
	Mode     RoundingMode
}

// NewCurrency builds a Currency with a 10^-decimals increment.
func NewCurrency(code string, decimals int32, mode RoundingMode) Currency {
	return Currency{
		Code:     code,
		Decimals: decimals,
		Rounding: decimal.New(1, -decimals),
		Mode:     mode,
	}
}

// Round rounds x to the currency's smallest increment using its mode.
func (c Currency) Round(x decimal.Decimal) decimal.Decimal {
	if c.Rounding.IsZero() {
		return x
	}
	steps := x.Div(c.Rounding)
	switch c.Mode {
	case RoundHalfEven:
		steps = steps.RoundBank(0)
	default:
		steps = steps.Round(0)
	}
	return steps.Mul(c.Rounding)
}

// RoundToIncrement rounds x to an arbitrary increment (cash-rounding step),
// ignoring the currency's own increment but keeping its tie-break mode.
func (c Currency) RoundToIncrement(x, increment decimal.Decimal) decimal.Decimal {
	if increment.IsZero() {
		return c.Round(x)
	}
	steps := x.Div(increment)
	switch c.Mode {
	case RoundHalfEven:
		steps = steps.RoundBank(0)
	default:
		steps = steps.Round(0)
	}
	return steps.Mul(increment)
}

// IsZero reports whether x rounds to zero in this currency.
func (c Currency) IsZero(x decimal.Decimal) bool {
	return c.Round(x).IsZero()
}

// Equal reports monetary equality: the difference rounds to zero.
func (c Currency) Equal(a, b decimal.Decimal) bool {
	return c.IsZero(a.Sub(b))
}

// Compare returns -1, 0, or 1 after rounding the difference.
func (c Currency) Compare(a, b decimal.Decimal) int {
	d := c.Round(a.Sub(b))
	switch {
	case d.IsNegative():
		return -1
	case d.IsPositive():
		return 1
	default:
		return 0
	}
}

// Convert applies a positive from→to rate and rounds in the target
// currency. Conversion always rounds at assignment; converting back is not
// guaranteed to return the original value.
func (c Currency) Convert(x, rate decimal.Decimal) decimal.Decimal {
	return c.Round(x.Mul(rate))
}

// FormatRepr renders a monetary value with a fixed number of decimals.
// The output is locale-free ("-205.80") and is the exact byte form used
// inside canonical hash payloads, so the format must never change.
func FormatRepr(x decimal.Decimal, decimals int32) string {
	return x.StringFixed(decimals)
}

// MustParse parses a decimal literal and panics on malformed input.
// Use only in tests and static configuration.
func MustParse(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(fmt.Sprintf("money: bad decimal literal %q: %v", s, err))
	}
	return d
}
