package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an amount in minor currency units (cents, centavos).
// It is serialized as a decimal number with two places, e.g. 1000.50.
type Money int64

// MoneyFromDecimal converts a major-unit decimal into Money, rounding half away from zero.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money(d.Shift(2).Round(0).IntPart())
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// Mul multiplies the amount by a factor and rounds back to whole minor units.
func (m Money) Mul(factor decimal.Decimal) Money {
	return Money(decimal.NewFromInt(int64(m)).Mul(factor).Round(0).IntPart())
}

func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts both JSON numbers and numeric strings.
func (m *Money) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*m = 0
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return fmt.Errorf("invalid money value %s: %w", b, err)
	}
	*m = MoneyFromDecimal(d)
	return nil
}
