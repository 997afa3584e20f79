package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewpay/internal/errors"
)

func int64Ptr(v int64) *int64 { return &v }

func TestCampaignBillingBankTransfer(t *testing.T) {
	result, err := CalculateCampaignBilling(CampaignInput{
		RecruitCount:         10,
		RewardPointPerPerson: 30000,
		PaymentMethod:        BankTransfer,
	})
	require.NoError(t, err)

	assert.Equal(t, BankTransfer, result.PaymentMethod)
	assert.Equal(t, int64(10), result.RecruitCount)
	assert.Equal(t, int64(300000), result.RewardPointTotal)
	assert.Equal(t, int64(30000), result.AgencyFeeTotal)
	assert.Equal(t, int64(330000), result.BaseAmount)
	assert.True(t, result.SurchargeRate.IsZero())
	assert.Equal(t, int64(0), result.SurchargeAmount)
	assert.Equal(t, int64(330000), result.SupplyPrice)
	assert.Equal(t, int64(33000), result.VATAmount)
	assert.Equal(t, int64(363000), result.TotalAmount)
	require.NotNil(t, result.DiscountFromCard)
	assert.Equal(t, int64(12705), *result.DiscountFromCard)
}

func TestCampaignBillingCreditCard(t *testing.T) {
	result, err := CalculateCampaignBilling(CampaignInput{
		RecruitCount:         10,
		RewardPointPerPerson: 30000,
		PaymentMethod:        CreditCard,
	})
	require.NoError(t, err)

	assert.True(t, result.SurchargeRate.Equal(decimal.RequireFromString("0.035")))
	assert.Equal(t, int64(330000), result.BaseAmount)
	assert.Equal(t, int64(11550), result.SurchargeAmount)
	assert.Equal(t, int64(341550), result.SupplyPrice)
	assert.Equal(t, int64(34155), result.VATAmount)
	assert.Equal(t, int64(375705), result.TotalAmount)
	assert.Nil(t, result.DiscountFromCard)
}

func TestCampaignBillingDefaultsToBankTransfer(t *testing.T) {
	result, err := CalculateCampaignBilling(CampaignInput{RecruitCount: 1, RewardPointPerPerson: 10000})
	require.NoError(t, err)
	assert.Equal(t, BankTransfer, result.PaymentMethod)
	assert.Equal(t, int64(14300), result.TotalAmount)
}

func TestCampaignBillingZeroRecruits(t *testing.T) {
	for _, method := range []PaymentMethod{BankTransfer, CreditCard} {
		t.Run(string(method), func(t *testing.T) {
			result, err := CalculateCampaignBilling(CampaignInput{
				RecruitCount:         0,
				RewardPointPerPerson: 30000,
				PaymentMethod:        method,
			})
			require.NoError(t, err)
			assert.Zero(t, result.RewardPointTotal)
			assert.Zero(t, result.AgencyFeeTotal)
			assert.Zero(t, result.BaseAmount)
			assert.Zero(t, result.SurchargeAmount)
			assert.Zero(t, result.SupplyPrice)
			assert.Zero(t, result.VATAmount)
			assert.Zero(t, result.TotalAmount)
			if method == BankTransfer {
				require.NotNil(t, result.DiscountFromCard)
				assert.Zero(t, *result.DiscountFromCard)
			}
		})
	}
}

func TestCampaignBillingAgencyFeeOverride(t *testing.T) {
	result, err := CalculateCampaignBilling(CampaignInput{
		RecruitCount:         3,
		RewardPointPerPerson: 15000,
		PaymentMethod:        CreditCard,
		AgencyFeePerPerson:   int64Ptr(0),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.AgencyFeeTotal)
	assert.Equal(t, int64(45000), result.BaseAmount)
	// floor(45000 * 0.035) = 1575, floor(46575 * 0.1) = 4657
	assert.Equal(t, int64(1575), result.SurchargeAmount)
	assert.Equal(t, int64(4657), result.VATAmount)
	assert.Equal(t, int64(51232), result.TotalAmount)
}

func TestCampaignBillingFloorsEachStep(t *testing.T) {
	// base 3001: surcharge floor(105.035) = 105, supply 3106, VAT floor(310.6) = 310
	result, err := CalculateCampaignBilling(CampaignInput{
		RecruitCount:         1,
		RewardPointPerPerson: 1,
		PaymentMethod:        CreditCard,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3001), result.BaseAmount)
	assert.Equal(t, int64(105), result.SurchargeAmount)
	assert.Equal(t, int64(3106), result.SupplyPrice)
	assert.Equal(t, int64(310), result.VATAmount)
	assert.Equal(t, int64(3416), result.TotalAmount)
}

func TestCampaignBillingErrors(t *testing.T) {
	tests := []struct {
		name  string
		input CampaignInput
		want  errors.Type
	}{
		{"negative recruits", CampaignInput{RecruitCount: -1, RewardPointPerPerson: 1000}, errors.TypeValidation},
		{"negative reward", CampaignInput{RecruitCount: 1, RewardPointPerPerson: -1000}, errors.TypeValidation},
		{"negative agency fee", CampaignInput{RecruitCount: 1, AgencyFeePerPerson: int64Ptr(-1)}, errors.TypeValidation},
		{"unknown method", CampaignInput{RecruitCount: 1, PaymentMethod: "paypal"}, errors.TypeValidation},
		{"reward overflow", CampaignInput{RecruitCount: 1 << 30, RewardPointPerPerson: 1 << 30}, errors.TypeOverflow},
		{"vat overflow", CampaignInput{RecruitCount: 1, RewardPointPerPerson: 1<<53 - 10000}, errors.TypeOverflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CalculateCampaignBilling(tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.want, errors.TypeOf(err))
		})
	}
}

func TestCustomRates(t *testing.T) {
	rates := DefaultRates()
	rates.AgencyFeePerPerson = 5000
	rates.CardSurchargeRate = decimal.RequireFromString("0.03")
	calc, err := NewCalculator(rates)
	require.NoError(t, err)

	result, err := calc.CalculateCampaignBilling(CampaignInput{
		RecruitCount:         10,
		RewardPointPerPerson: 30000,
		PaymentMethod:        CreditCard,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(350000), result.BaseAmount)
	assert.Equal(t, int64(10500), result.SurchargeAmount)
	assert.Equal(t, int64(396550), result.TotalAmount)
	assert.Equal(t, int64(5000), calc.Rates().AgencyFeePerPerson)
}

func TestRatesValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Rates)
	}{
		{"negative agency fee", func(r *Rates) { r.AgencyFeePerPerson = -1 }},
		{"negative VAT", func(r *Rates) { r.VATRate = decimal.RequireFromString("-0.1") }},
		{"negative surcharge", func(r *Rates) { r.CardSurchargeRate = decimal.RequireFromString("-0.01") }},
		{"withholding of one", func(r *Rates) { r.WithholdingTaxRate = decimal.NewFromInt(1) }},
		{"negative minimum withdrawal", func(r *Rates) { r.MinimumWithdrawal = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rates := DefaultRates()
			tt.mutate(&rates)
			_, err := NewCalculator(rates)
			assert.True(t, errors.IsType(err, errors.TypeValidation), "got %v", err)
		})
	}

	assert.NoError(t, DefaultRates().Validate())
}
