package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewpay/internal/errors"
)

func TestCalculateCampaignBillingByPlatform(t *testing.T) {
	breakdown, err := CalculateCampaignBillingByPlatform(CreditCard, []PlatformInput{
		{Platform: "blog", RecruitCount: 10, RewardPointPerPerson: 30000},
		{Platform: "instagram", RecruitCount: 5, RewardPointPerPerson: 20000, AgencyFeePerPerson: int64Ptr(2000)},
	})
	require.NoError(t, err)
	require.Len(t, breakdown.Platforms, 2)

	blog := breakdown.Platforms[0]
	assert.Equal(t, "blog", blog.Platform)
	assert.Equal(t, int64(375705), blog.Billing.TotalAmount)

	insta := breakdown.Platforms[1]
	// base 110000, surcharge 3850, supply 113850, VAT 11385
	assert.Equal(t, int64(110000), insta.Billing.BaseAmount)
	assert.Equal(t, int64(125235), insta.Billing.TotalAmount)

	agg := breakdown.Aggregate
	assert.Equal(t, CreditCard, agg.PaymentMethod)
	assert.Equal(t, int64(15), agg.RecruitCount)
	assert.Equal(t, int64(440000), agg.BaseAmount)
	assert.Equal(t, blog.Billing.VATAmount+insta.Billing.VATAmount, agg.VATAmount)
	assert.Equal(t, int64(375705+125235), agg.TotalAmount)
	assert.True(t, agg.SurchargeRate.Equal(DefaultCardSurchargeRate))
	assert.Nil(t, agg.DiscountFromCard)
}

func TestPlatformBreakdownBankTransferDiscount(t *testing.T) {
	breakdown, err := CalculateCampaignBillingByPlatform("", []PlatformInput{
		{Platform: "blog", RecruitCount: 10, RewardPointPerPerson: 30000},
		{Platform: "youtube", RecruitCount: 0, RewardPointPerPerson: 100000},
	})
	require.NoError(t, err)

	agg := breakdown.Aggregate
	assert.Equal(t, BankTransfer, agg.PaymentMethod)
	assert.Equal(t, int64(363000), agg.TotalAmount)
	require.NotNil(t, agg.DiscountFromCard)
	assert.Equal(t, int64(12705), *agg.DiscountFromCard)
}

func TestPlatformBreakdownErrors(t *testing.T) {
	tests := []struct {
		name      string
		method    PaymentMethod
		platforms []PlatformInput
	}{
		{"no platforms", BankTransfer, nil},
		{"blank name", BankTransfer, []PlatformInput{{Platform: "  ", RecruitCount: 1}}},
		{"duplicate name", BankTransfer, []PlatformInput{{Platform: "blog"}, {Platform: " blog"}}},
		{"unknown method", "cash", []PlatformInput{{Platform: "blog"}}},
		{"invalid platform input", CreditCard, []PlatformInput{{Platform: "blog", RecruitCount: -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CalculateCampaignBillingByPlatform(tt.method, tt.platforms)
			require.Error(t, err)
			assert.Equal(t, errors.TypeValidation, errors.TypeOf(err))
		})
	}
}
