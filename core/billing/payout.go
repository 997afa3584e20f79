package billing

import (
	"github.com/shopspring/decimal"

	"reviewpay/core/money"
	"reviewpay/internal/errors"
)

// PayoutInput is a reviewer's gross point-to-cash conversion.
type PayoutInput struct {
	GrossAmount int64 `json:"gross_amount"`
}

// PayoutResult is the payout after statutory withholding.
type PayoutResult struct {
	GrossAmount    int64 `json:"gross_amount"`
	WithholdingTax int64 `json:"withholding_tax"`
	ActualPayout   int64 `json:"actual_payout"`
}

// CalculatePayout applies DefaultRates withholding.
func CalculatePayout(input PayoutInput) (PayoutResult, error) {
	return defaultCalculator.CalculatePayout(input)
}

// CalculateRequiredGrossAmount inverts CalculatePayout under DefaultRates.
func CalculateRequiredGrossAmount(desiredNet int64) (int64, error) {
	return defaultCalculator.CalculateRequiredGrossAmount(desiredNet)
}

// CalculatePayout computes withholdingTax = floor(gross * rate) and
// actualPayout = gross - withholdingTax.
func (c *Calculator) CalculatePayout(input PayoutInput) (PayoutResult, error) {
	if input.GrossAmount < 0 {
		return PayoutResult{}, errors.Validation("gross amount must not be negative")
	}
	tax, err := money.MulRateFloor("withholding tax", input.GrossAmount, c.rates.WithholdingTaxRate)
	if err != nil {
		return PayoutResult{}, err
	}
	net, err := money.Sub("actual payout", input.GrossAmount, tax)
	if err != nil {
		return PayoutResult{}, err
	}
	return PayoutResult{
		GrossAmount:    input.GrossAmount,
		WithholdingTax: tax,
		ActualPayout:   net,
	}, nil
}

// CalculateRequiredGrossAmount returns the smallest gross amount whose
// payout is at least desiredNet.
//
// Payout is non-decreasing in gross and grows by 0 or 1 per won, so the
// analytic ceil(net / (1 - rate)) is corrected by stepping up until the
// forward result reaches net, then down while the previous won still does.
func (c *Calculator) CalculateRequiredGrossAmount(desiredNet int64) (int64, error) {
	if desiredNet < 0 {
		return 0, errors.Validation("desired net amount must not be negative")
	}
	if desiredNet == 0 {
		return 0, nil
	}

	keep := decimal.NewFromInt(1).Sub(c.rates.WithholdingTaxRate)
	gross, err := money.DivRateCeil("required gross amount", desiredNet, keep)
	if err != nil {
		return 0, err
	}
	// The floor in the forward formula hides less than one won of tax, so the
	// answer lies within 1/(1-rate) won of the analytic estimate.
	maxCorrections := int(decimal.NewFromInt(1).Div(keep).Ceil().IntPart()) + 2

	for steps := 0; ; steps++ {
		if steps > maxCorrections {
			return 0, errors.Internal("required gross amount did not converge", nil).WithContext("desired_net", desiredNet)
		}
		net, err := c.netOf(gross)
		if err != nil {
			return 0, err
		}
		if net >= desiredNet {
			break
		}
		gross++
	}
	for steps := 0; gross > 0; steps++ {
		if steps > maxCorrections {
			return 0, errors.Internal("required gross amount did not converge", nil).WithContext("desired_net", desiredNet)
		}
		net, err := c.netOf(gross - 1)
		if err != nil {
			return 0, err
		}
		if net < desiredNet {
			break
		}
		gross--
	}
	return gross, nil
}

func (c *Calculator) netOf(gross int64) (int64, error) {
	r, err := c.CalculatePayout(PayoutInput{GrossAmount: gross})
	if err != nil {
		return 0, err
	}
	return r.ActualPayout, nil
}

// ValidateWithdrawal checks a withdrawal request against the minimum
// withdrawal amount and the reviewer's available balance.
func (c *Calculator) ValidateWithdrawal(amount, available int64) error {
	if amount < 0 || available < 0 {
		return errors.Validation("withdrawal amounts must not be negative")
	}
	if amount < c.rates.MinimumWithdrawal {
		return errors.Validationf("minimum withdrawal is %s", FormatKRW(c.rates.MinimumWithdrawal)).
			WithContext("amount", amount)
	}
	if amount > available {
		return errors.Validationf("withdrawal of %s exceeds available balance %s", FormatKRW(amount), FormatKRW(available))
	}
	return nil
}

// ValidateWithdrawal checks a withdrawal against DefaultRates.
func ValidateWithdrawal(amount, available int64) error {
	return defaultCalculator.ValidateWithdrawal(amount, available)
}
