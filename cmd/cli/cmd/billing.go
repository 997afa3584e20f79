// Package cmd - billing commands
package cmd

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"reviewpay/core/billing"
	"reviewpay/internal/errors"
)

var (
	recruitCount  int64
	rewardPoint   int64
	agencyFee     int64
	paymentMethod string
	platformSpecs []string
)

var billingCmd = &cobra.Command{
	Use:   "billing",
	Short: "Bill review campaigns",
}

var billingCampaignCmd = &cobra.Command{
	Use:   "campaign",
	Short: "Bill a campaign for one payment method",
	Long: `Bill a campaign. Every fractional step (card surcharge, VAT) is rounded
down to whole won.

Examples:
  reviewpay billing campaign --recruits 10 --reward 30000
  reviewpay billing campaign --recruits 10 --reward 30000 --method credit_card`,
	RunE: func(cmd *cobra.Command, args []string) error {
		calc, err := calculator()
		if err != nil {
			return err
		}
		result, err := calc.CalculateCampaignBilling(billing.CampaignInput{
			RecruitCount:         recruitCount,
			RewardPointPerPerson: rewardPoint,
			PaymentMethod:        billing.PaymentMethod(paymentMethod),
			AgencyFeePerPerson:   feeOverride(cmd),
		})
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), result)
	},
}

var billingCompareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare bank transfer and credit card totals",
	RunE: func(cmd *cobra.Command, args []string) error {
		calc, err := calculator()
		if err != nil {
			return err
		}
		result, err := calc.CompareBillingByPaymentMethod(recruitCount, rewardPoint, feeOverride(cmd))
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), result)
	},
}

var billingPlatformsCmd = &cobra.Command{
	Use:   "platforms",
	Short: "Bill a campaign split across platforms",
	Long: `Bill each platform separately and sum the results.

Each --platform is name:recruits:reward[:fee].

Examples:
  reviewpay billing platforms --platform blog:10:30000 --platform instagram:5:20000:2000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		platforms := make([]billing.PlatformInput, 0, len(platformSpecs))
		for _, spec := range platformSpecs {
			p, err := parsePlatform(spec)
			if err != nil {
				return err
			}
			platforms = append(platforms, p)
		}
		calc, err := calculator()
		if err != nil {
			return err
		}
		result, err := calc.CalculateCampaignBillingByPlatform(billing.PaymentMethod(paymentMethod), platforms)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), result)
	},
}

func init() {
	for _, c := range []*cobra.Command{billingCampaignCmd, billingCompareCmd} {
		c.Flags().Int64VarP(&recruitCount, "recruits", "n", 0, "number of reviewers to recruit")
		c.Flags().Int64VarP(&rewardPoint, "reward", "r", 0, "reward points per reviewer")
		c.Flags().Int64Var(&agencyFee, "fee", 0, "agency fee per reviewer (default from rate card)")
	}
	for _, c := range []*cobra.Command{billingCampaignCmd, billingPlatformsCmd} {
		c.Flags().StringVarP(&paymentMethod, "method", "m", string(billing.BankTransfer), "payment method (bank_transfer, credit_card)")
	}
	billingPlatformsCmd.Flags().StringArrayVarP(&platformSpecs, "platform", "p", nil, "platform as name:recruits:reward[:fee] (repeatable)")

	billingCmd.AddCommand(billingCampaignCmd)
	billingCmd.AddCommand(billingCompareCmd)
	billingCmd.AddCommand(billingPlatformsCmd)
}

// feeOverride returns the --fee value only when the flag was given.
func feeOverride(cmd *cobra.Command) *int64 {
	if !cmd.Flags().Changed("fee") {
		return nil
	}
	fee := agencyFee
	return &fee
}

func parsePlatform(spec string) (billing.PlatformInput, error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 3 || len(parts) > 4 {
		return billing.PlatformInput{}, errors.Validationf("platform %q must be name:recruits:reward[:fee]", spec)
	}
	numbers := make([]int64, 0, 3)
	for _, part := range parts[1:] {
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return billing.PlatformInput{}, errors.Validationf("platform %q: %s is not a whole number", spec, part)
		}
		numbers = append(numbers, n)
	}
	p := billing.PlatformInput{
		Platform:             parts[0],
		RecruitCount:         numbers[0],
		RewardPointPerPerson: numbers[1],
	}
	if len(numbers) == 3 {
		p.AgencyFeePerPerson = &numbers[2]
	}
	return p, nil
}

