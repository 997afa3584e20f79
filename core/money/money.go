// Package money provides the checked integer arithmetic every won amount goes through.
// Amounts are whole won held in int64; rates are exact decimals. Fractional
// results are floored, never rounded.
package money

import (
	"github.com/shopspring/decimal"

	"reviewpay/internal/errors"
)

// MaxSafeAmount is the largest amount that survives a round trip through a
// JSON number in a browser (2^53 - 1).
const MaxSafeAmount int64 = 1<<53 - 1

var maxSafe = decimal.NewFromInt(MaxSafeAmount)

// Currency represents a currency code
type Currency string

// CurrencyKRW is the only currency the marketplace bills in.
const CurrencyKRW Currency = "KRW"

// String returns the string representation
func (c Currency) String() string {
	return string(c)
}

// Add returns a+b, failing when the sum leaves [0, MaxSafeAmount].
func Add(op string, a, b int64) (int64, error) {
	if a < 0 || b < 0 {
		return 0, errors.Validationf("%s: negative amount", op)
	}
	if a > MaxSafeAmount-b {
		return 0, errors.Overflow(op)
	}
	return a + b, nil
}

// Sub returns a-b for a >= b >= 0.
func Sub(op string, a, b int64) (int64, error) {
	if a < 0 || b < 0 || b > a {
		return 0, errors.Validationf("%s: invalid subtraction %d - %d", op, a, b)
	}
	return a - b, nil
}

// Mul returns a*b, failing when the product leaves [0, MaxSafeAmount].
func Mul(op string, a, b int64) (int64, error) {
	if a < 0 || b < 0 {
		return 0, errors.Validationf("%s: negative factor", op)
	}
	if a == 0 || b == 0 {
		return 0, nil
	}
	if a > MaxSafeAmount/b {
		return 0, errors.Overflow(op)
	}
	return a * b, nil
}

// MulRateFloor returns floor(amount * rate). The multiplication is exact.
func MulRateFloor(op string, amount int64, rate decimal.Decimal) (int64, error) {
	if amount < 0 || rate.IsNegative() {
		return 0, errors.Validationf("%s: negative operand", op)
	}
	product := decimal.NewFromInt(amount).Mul(rate).Floor()
	if product.GreaterThan(maxSafe) {
		return 0, errors.Overflow(op)
	}
	return product.IntPart(), nil
}

// DivRateCeil returns ceil(amount / rate) for a positive rate.
// The quotient is computed at decimal.DivisionPrecision digits, so callers
// that need an exact bound must verify the result against the forward formula.
func DivRateCeil(op string, amount int64, rate decimal.Decimal) (int64, error) {
	if amount < 0 {
		return 0, errors.Validationf("%s: negative amount", op)
	}
	if !rate.IsPositive() {
		return 0, errors.Validationf("%s: rate must be positive", op)
	}
	quotient := decimal.NewFromInt(amount).Div(rate).Ceil()
	if quotient.GreaterThan(maxSafe) {
		return 0, errors.Overflow(op)
	}
	return quotient.IntPart(), nil
}
