package billing

import (
	"github.com/shopspring/decimal"

	"reviewpay/core/money"
	"reviewpay/internal/errors"
)

// CampaignInput describes a recruiting campaign to be billed.
type CampaignInput struct {
	RecruitCount         int64         `json:"recruit_count"`
	RewardPointPerPerson int64         `json:"reward_point_per_person"`
	PaymentMethod        PaymentMethod `json:"payment_method,omitempty"`

	// AgencyFeePerPerson overrides the rate card when set
	AgencyFeePerPerson *int64 `json:"agency_fee_per_person,omitempty"`
}

// CampaignResult is the full breakdown of a campaign bill.
type CampaignResult struct {
	PaymentMethod    PaymentMethod   `json:"payment_method"`
	RecruitCount     int64           `json:"recruit_count"`
	RewardPointTotal int64           `json:"reward_point_total"`
	AgencyFeeTotal   int64           `json:"agency_fee_total"`
	BaseAmount       int64           `json:"base_amount"`
	SurchargeRate    decimal.Decimal `json:"surcharge_rate"`
	SurchargeAmount  int64           `json:"surcharge_amount"`
	SupplyPrice      int64           `json:"supply_price"`
	VATAmount        int64           `json:"vat_amount"`
	TotalAmount      int64           `json:"total_amount"`

	// DiscountFromCard is what the same booking would have cost extra by card.
	// Only set on bank transfer results.
	DiscountFromCard *int64 `json:"discount_from_card,omitempty"`
}

// CalculateCampaignBilling bills a campaign using DefaultRates.
func CalculateCampaignBilling(input CampaignInput) (CampaignResult, error) {
	return defaultCalculator.CalculateCampaignBilling(input)
}

// CalculateCampaignBilling bills a campaign:
//
//	rewardPointTotal = recruitCount * rewardPointPerPerson
//	agencyFeeTotal   = recruitCount * agencyFeePerPerson
//	baseAmount       = rewardPointTotal + agencyFeeTotal
//	surchargeAmount  = floor(baseAmount * cardSurchargeRate)   (card only)
//	supplyPrice      = baseAmount + surchargeAmount
//	vatAmount        = floor(supplyPrice * vatRate)
//	totalAmount      = supplyPrice + vatAmount
func (c *Calculator) CalculateCampaignBilling(input CampaignInput) (CampaignResult, error) {
	method, err := input.PaymentMethod.resolve()
	if err != nil {
		return CampaignResult{}, err
	}
	if input.RecruitCount < 0 {
		return CampaignResult{}, errors.Validation("recruit count must not be negative")
	}
	if input.RewardPointPerPerson < 0 {
		return CampaignResult{}, errors.Validation("reward point per person must not be negative")
	}
	agencyFee := c.rates.AgencyFeePerPerson
	if input.AgencyFeePerPerson != nil {
		if *input.AgencyFeePerPerson < 0 {
			return CampaignResult{}, errors.Validation("agency fee per person must not be negative")
		}
		agencyFee = *input.AgencyFeePerPerson
	}

	rewardTotal, err := money.Mul("reward point total", input.RecruitCount, input.RewardPointPerPerson)
	if err != nil {
		return CampaignResult{}, err
	}
	feeTotal, err := money.Mul("agency fee total", input.RecruitCount, agencyFee)
	if err != nil {
		return CampaignResult{}, err
	}
	base, err := money.Add("base amount", rewardTotal, feeTotal)
	if err != nil {
		return CampaignResult{}, err
	}

	result, err := c.price(base, method)
	if err != nil {
		return CampaignResult{}, err
	}
	result.RecruitCount = input.RecruitCount
	result.RewardPointTotal = rewardTotal
	result.AgencyFeeTotal = feeTotal

	if method == BankTransfer {
		card, err := c.price(base, CreditCard)
		if err != nil {
			return CampaignResult{}, err
		}
		discount := card.TotalAmount - result.TotalAmount
		result.DiscountFromCard = &discount
	}
	return result, nil
}

// price runs the surcharge, supply and VAT steps on a base amount.
func (c *Calculator) price(base int64, method PaymentMethod) (CampaignResult, error) {
	rate := decimal.Zero
	var surcharge int64
	if method == CreditCard {
		rate = c.rates.CardSurchargeRate
		var err error
		surcharge, err = money.MulRateFloor("card surcharge", base, rate)
		if err != nil {
			return CampaignResult{}, err
		}
	}
	supply, err := money.Add("supply price", base, surcharge)
	if err != nil {
		return CampaignResult{}, err
	}
	vat, err := money.MulRateFloor("VAT", supply, c.rates.VATRate)
	if err != nil {
		return CampaignResult{}, err
	}
	total, err := money.Add("total amount", supply, vat)
	if err != nil {
		return CampaignResult{}, err
	}
	return CampaignResult{
		PaymentMethod:   method,
		BaseAmount:      base,
		SurchargeRate:   rate,
		SurchargeAmount: surcharge,
		SupplyPrice:     supply,
		VATAmount:       vat,
		TotalAmount:     total,
	}, nil
}
