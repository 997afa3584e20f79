package billing

import (
	"strings"

	"reviewpay/core/money"
	"reviewpay/internal/errors"
)

// PlatformInput is one distribution track of a campaign (e.g. blog, Instagram).
type PlatformInput struct {
	Platform             string `json:"platform"`
	RecruitCount         int64  `json:"recruit_count"`
	RewardPointPerPerson int64  `json:"reward_point_per_person"`
	AgencyFeePerPerson   *int64 `json:"agency_fee_per_person,omitempty"`
}

// PlatformResult is the bill for a single platform.
type PlatformResult struct {
	Platform string         `json:"platform"`
	Billing  CampaignResult `json:"billing"`
}

// PlatformBreakdown holds per-platform bills and their sum.
type PlatformBreakdown struct {
	Platforms []PlatformResult `json:"platforms"`
	Aggregate CampaignResult   `json:"aggregate"`
}

// CalculateCampaignBillingByPlatform bills each platform with DefaultRates.
func CalculateCampaignBillingByPlatform(method PaymentMethod, platforms []PlatformInput) (PlatformBreakdown, error) {
	return defaultCalculator.CalculateCampaignBillingByPlatform(method, platforms)
}

// CalculateCampaignBillingByPlatform bills every platform independently and
// sums the results. The aggregate is a sum of already-floored amounts, not a
// re-billing of the combined base, so it always equals what the client sees
// line by line.
func (c *Calculator) CalculateCampaignBillingByPlatform(method PaymentMethod, platforms []PlatformInput) (PlatformBreakdown, error) {
	if len(platforms) == 0 {
		return PlatformBreakdown{}, errors.Validation("at least one platform is required")
	}
	method, err := method.resolve()
	if err != nil {
		return PlatformBreakdown{}, err
	}

	seen := make(map[string]bool, len(platforms))
	breakdown := PlatformBreakdown{Platforms: make([]PlatformResult, 0, len(platforms))}
	for _, p := range platforms {
		name := strings.TrimSpace(p.Platform)
		if name == "" {
			return PlatformBreakdown{}, errors.Validation("platform name is required")
		}
		if seen[name] {
			return PlatformBreakdown{}, errors.Validationf("duplicate platform %q", name)
		}
		seen[name] = true

		result, err := c.CalculateCampaignBilling(CampaignInput{
			RecruitCount:         p.RecruitCount,
			RewardPointPerPerson: p.RewardPointPerPerson,
			PaymentMethod:        method,
			AgencyFeePerPerson:   p.AgencyFeePerPerson,
		})
		if err != nil {
			return PlatformBreakdown{}, errors.Wrap(errors.TypeOf(err), "platform "+name, err)
		}
		breakdown.Platforms = append(breakdown.Platforms, PlatformResult{Platform: name, Billing: result})
	}

	aggregate, err := sumResults(method, breakdown.Platforms)
	if err != nil {
		return PlatformBreakdown{}, err
	}
	breakdown.Aggregate = aggregate
	return breakdown, nil
}

func sumResults(method PaymentMethod, platforms []PlatformResult) (CampaignResult, error) {
	agg := CampaignResult{PaymentMethod: method}
	var discount int64
	for i, p := range platforms {
		r := p.Billing
		if i == 0 {
			agg.SurchargeRate = r.SurchargeRate
		}
		fields := []struct {
			dst *int64
			src int64
			op  string
		}{
			{&agg.RecruitCount, r.RecruitCount, "aggregate recruit count"},
			{&agg.RewardPointTotal, r.RewardPointTotal, "aggregate reward point total"},
			{&agg.AgencyFeeTotal, r.AgencyFeeTotal, "aggregate agency fee total"},
			{&agg.BaseAmount, r.BaseAmount, "aggregate base amount"},
			{&agg.SurchargeAmount, r.SurchargeAmount, "aggregate surcharge amount"},
			{&agg.SupplyPrice, r.SupplyPrice, "aggregate supply price"},
			{&agg.VATAmount, r.VATAmount, "aggregate VAT amount"},
			{&agg.TotalAmount, r.TotalAmount, "aggregate total amount"},
		}
		for _, f := range fields {
			sum, err := money.Add(f.op, *f.dst, f.src)
			if err != nil {
				return CampaignResult{}, err
			}
			*f.dst = sum
		}
		if r.DiscountFromCard != nil {
			sum, err := money.Add("aggregate card discount", discount, *r.DiscountFromCard)
			if err != nil {
				return CampaignResult{}, err
			}
			discount = sum
		}
	}
	if method == BankTransfer {
		agg.DiscountFromCard = &discount
	}
	return agg, nil
}
