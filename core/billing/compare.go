package billing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Comparison shows the same campaign priced under both payment methods.
type Comparison struct {
	BankTransfer   CampaignResult  `json:"bank_transfer"`
	CreditCard     CampaignResult  `json:"credit_card"`
	Savings        int64           `json:"savings"`
	SavingsPercent decimal.Decimal `json:"savings_percent"`
	Message        string          `json:"message"`
}

// CompareBillingByPaymentMethod compares payment methods using DefaultRates.
func CompareBillingByPaymentMethod(recruitCount, rewardPointPerPerson int64, agencyFeePerPerson *int64) (Comparison, error) {
	return defaultCalculator.CompareBillingByPaymentMethod(recruitCount, rewardPointPerPerson, agencyFeePerPerson)
}

// CompareBillingByPaymentMethod bills the campaign once per payment method.
// SavingsPercent is (card - bank) / card * 100 truncated to two places.
func (c *Calculator) CompareBillingByPaymentMethod(recruitCount, rewardPointPerPerson int64, agencyFeePerPerson *int64) (Comparison, error) {
	input := CampaignInput{
		RecruitCount:         recruitCount,
		RewardPointPerPerson: rewardPointPerPerson,
		AgencyFeePerPerson:   agencyFeePerPerson,
	}

	input.PaymentMethod = BankTransfer
	bank, err := c.CalculateCampaignBilling(input)
	if err != nil {
		return Comparison{}, err
	}
	input.PaymentMethod = CreditCard
	card, err := c.CalculateCampaignBilling(input)
	if err != nil {
		return Comparison{}, err
	}

	savings := card.TotalAmount - bank.TotalAmount
	percent := decimal.Zero
	if card.TotalAmount > 0 {
		percent = decimal.NewFromInt(savings).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(card.TotalAmount)).
			Truncate(2)
	}

	return Comparison{
		BankTransfer:   bank,
		CreditCard:     card,
		Savings:        savings,
		SavingsPercent: percent,
		Message:        savingsMessage(savings, percent),
	}, nil
}

func savingsMessage(savings int64, percent decimal.Decimal) string {
	if savings <= 0 {
		return "결제 수단에 따른 금액 차이가 없습니다"
	}
	return fmt.Sprintf("계좌이체로 결제하면 %s(%s)를 절약할 수 있습니다", FormatKRW(savings), FormatPercent(percent, 2))
}
