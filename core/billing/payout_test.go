package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewpay/internal/errors"
)

func TestCalculatePayout(t *testing.T) {
	tests := []struct {
		gross, tax, net int64
	}{
		{100000, 3300, 96700},
		{0, 0, 0},
		{1, 0, 1},
		{30, 0, 30},
		{31, 1, 30},
		{10000, 330, 9670},
		{12345, 407, 11938},
	}
	for _, tt := range tests {
		r, err := CalculatePayout(PayoutInput{GrossAmount: tt.gross})
		require.NoError(t, err)
		assert.Equal(t, tt.gross, r.GrossAmount)
		assert.Equal(t, tt.tax, r.WithholdingTax, "tax for %d", tt.gross)
		assert.Equal(t, tt.net, r.ActualPayout, "net for %d", tt.gross)
	}
}

func TestCalculatePayoutRejectsNegative(t *testing.T) {
	_, err := CalculatePayout(PayoutInput{GrossAmount: -1})
	assert.True(t, errors.IsType(err, errors.TypeValidation))
}

func TestCalculateRequiredGrossAmount(t *testing.T) {
	tests := []struct {
		net, gross int64
	}{
		// ceil(96700 / 0.967) is 100000, but payout(99999) is already 96700
		{96700, 99999},
		{0, 0},
		{1, 1},
		{30, 30},
		// payout(31) is 30 and payout(32) is 31
		{31, 32},
		{9670, 9999},
		{96701, 100001},
	}
	for _, tt := range tests {
		gross, err := CalculateRequiredGrossAmount(tt.net)
		require.NoError(t, err)
		assert.Equal(t, tt.gross, gross, "gross for net %d", tt.net)
	}
}

func TestRequiredGrossRoundTrip(t *testing.T) {
	gross, err := CalculateRequiredGrossAmount(96700)
	require.NoError(t, err)

	r, err := CalculatePayout(PayoutInput{GrossAmount: gross})
	require.NoError(t, err)
	assert.Equal(t, int64(96700), r.ActualPayout)

	r, err = CalculatePayout(PayoutInput{GrossAmount: 100000})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, r.ActualPayout, int64(96700))
}

func TestCalculateRequiredGrossAmountErrors(t *testing.T) {
	_, err := CalculateRequiredGrossAmount(-1)
	assert.True(t, errors.IsType(err, errors.TypeValidation))

	_, err = CalculateRequiredGrossAmount(1<<53 - 1)
	assert.True(t, errors.IsType(err, errors.TypeOverflow))
}

func TestRequiredGrossWithZeroWithholding(t *testing.T) {
	rates := DefaultRates()
	rates.WithholdingTaxRate = decimal.Zero
	calc, err := NewCalculator(rates)
	require.NoError(t, err)

	gross, err := calc.CalculateRequiredGrossAmount(54321)
	require.NoError(t, err)
	assert.Equal(t, int64(54321), gross)
}

func TestValidateWithdrawal(t *testing.T) {
	assert.NoError(t, ValidateWithdrawal(10000, 10000))
	assert.NoError(t, ValidateWithdrawal(50000, 120000))

	err := ValidateWithdrawal(9999, 50000)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeValidation))
	assert.Contains(t, err.Error(), "10,000원")

	err = ValidateWithdrawal(60000, 50000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds available balance")

	assert.Error(t, ValidateWithdrawal(-1, 50000))
	assert.Error(t, ValidateWithdrawal(10000, -1))
}
