package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the number of decimal places kept on final Taka amounts.
const Places = 2

// ErrInvalidAmount is returned when a string does not encode a decimal amount.
var ErrInvalidAmount = errors.New("invalid amount")

// Parse converts a string-encoded decimal such as "1250.50" into a decimal value.
func Parse(value string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return decimal.Zero, fmt.Errorf("empty value: %w", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q: %w", trimmed, ErrInvalidAmount)
	}
	return d, nil
}

// ParseNullable behaves like Parse but maps an empty string to nil.
func ParseNullable(value string) (*decimal.Decimal, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	d, err := Parse(value)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Round rounds half away from zero to two decimal places.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Min returns the smaller of a and b.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// NonNegative clamps negative values to zero.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
