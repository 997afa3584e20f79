// Package billing computes what a client owes for a review campaign and what a
// reviewer nets from a payout.
//
// Every function is pure: inputs in, won amounts out. Amounts are int64 whole
// won; rates are exact decimals; every fractional step floors.
package billing

import (
	"github.com/shopspring/decimal"

	"reviewpay/internal/errors"
)

// Default rate card values.
const (
	DefaultAgencyFeePerPerson int64 = 3000
	DefaultMinimumWithdrawal  int64 = 10000
)

var (
	DefaultVATRate            = decimal.RequireFromString("0.1")
	DefaultCardSurchargeRate  = decimal.RequireFromString("0.035")
	DefaultWithholdingTaxRate = decimal.RequireFromString("0.033")
)

// Rates is the rate card applied by a Calculator.
type Rates struct {
	// AgencyFeePerPerson is charged per recruited reviewer
	AgencyFeePerPerson int64 `json:"agency_fee_per_person"`

	// VATRate is applied to the supply price
	VATRate decimal.Decimal `json:"vat_rate"`

	// CardSurchargeRate is applied to the base amount for card payments
	CardSurchargeRate decimal.Decimal `json:"card_surcharge_rate"`

	// WithholdingTaxRate is withheld from reviewer payouts
	WithholdingTaxRate decimal.Decimal `json:"withholding_tax_rate"`

	// MinimumWithdrawal is the smallest gross amount a reviewer may withdraw
	MinimumWithdrawal int64 `json:"minimum_withdrawal"`
}

// DefaultRates returns the current rate card.
func DefaultRates() Rates {
	return Rates{
		AgencyFeePerPerson: DefaultAgencyFeePerPerson,
		VATRate:            DefaultVATRate,
		CardSurchargeRate:  DefaultCardSurchargeRate,
		WithholdingTaxRate: DefaultWithholdingTaxRate,
		MinimumWithdrawal:  DefaultMinimumWithdrawal,
	}
}

// Validate checks that the rate card can only produce non-negative amounts.
func (r Rates) Validate() error {
	if r.AgencyFeePerPerson < 0 {
		return errors.Validation("agency fee per person must not be negative")
	}
	if r.VATRate.IsNegative() {
		return errors.Validation("VAT rate must not be negative")
	}
	if r.CardSurchargeRate.IsNegative() {
		return errors.Validation("card surcharge rate must not be negative")
	}
	if r.WithholdingTaxRate.IsNegative() || r.WithholdingTaxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return errors.Validation("withholding tax rate must be in [0, 1)")
	}
	if r.MinimumWithdrawal < 0 {
		return errors.Validation("minimum withdrawal must not be negative")
	}
	return nil
}

// PaymentMethod is how a client pays for a campaign.
type PaymentMethod string

const (
	BankTransfer PaymentMethod = "bank_transfer"
	CreditCard   PaymentMethod = "credit_card"
)

// resolve maps the empty method to BankTransfer and rejects unknown values.
func (m PaymentMethod) resolve() (PaymentMethod, error) {
	switch m {
	case "":
		return BankTransfer, nil
	case BankTransfer, CreditCard:
		return m, nil
	default:
		return "", errors.Validationf("unknown payment method %q", string(m)).WithContext("payment_method", string(m))
	}
}

// Calculator applies a fixed rate card. It is immutable and safe for
// concurrent use.
type Calculator struct {
	rates Rates
}

// NewCalculator validates rates and returns a Calculator bound to them.
func NewCalculator(rates Rates) (*Calculator, error) {
	if err := rates.Validate(); err != nil {
		return nil, err
	}
	return &Calculator{rates: rates}, nil
}

// Rates returns the rate card in use.
func (c *Calculator) Rates() Rates {
	return c.rates
}

var defaultCalculator = &Calculator{rates: DefaultRates()}

// Default returns a Calculator using DefaultRates.
func Default() *Calculator {
	return defaultCalculator
}
