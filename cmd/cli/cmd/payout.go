// Package cmd - payout commands
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"reviewpay/core/billing"
	"reviewpay/core/output"
)

var (
	grossAmount      int64
	desiredNet       int64
	withdrawAmount   int64
	availableBalance int64
)

var payoutCmd = &cobra.Command{
	Use:   "payout",
	Short: "Reviewer payouts after withholding tax",
}

var payoutCalcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Compute the payout for a gross amount",
	Example: `  reviewpay payout calc --gross 100000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		calc, err := calculator()
		if err != nil {
			return err
		}
		result, err := calc.CalculatePayout(billing.PayoutInput{GrossAmount: grossAmount})
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), result)
	},
}

var payoutGrossCmd = &cobra.Command{
	Use:   "gross",
	Short: "Find the smallest gross amount that pays at least a net amount",
	Example: `  reviewpay payout gross --net 96700`,
	RunE: func(cmd *cobra.Command, args []string) error {
		calc, err := calculator()
		if err != nil {
			return err
		}
		gross, err := calc.CalculateRequiredGrossAmount(desiredNet)
		if err != nil {
			return err
		}
		result, err := calc.CalculatePayout(billing.PayoutInput{GrossAmount: gross})
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), result)
	},
}

var payoutWithdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Check a withdrawal request against the minimum and the balance",
	Example: `  reviewpay payout withdraw --amount 50000 --balance 80000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		calc, err := calculator()
		if err != nil {
			return err
		}
		if err := calc.ValidateWithdrawal(withdrawAmount, availableBalance); err != nil {
			return err
		}
		result, err := calc.CalculatePayout(billing.PayoutInput{GrossAmount: withdrawAmount})
		if err != nil {
			return err
		}
		if selectedFormat() == output.FormatCLI {
			fmt.Fprintln(cmd.OutOrStdout(), "Withdrawal allowed.")
		}
		return render(cmd.OutOrStdout(), result)
	},
}

func init() {
	payoutCalcCmd.Flags().Int64Var(&grossAmount, "gross", 0, "gross amount in won")
	payoutCalcCmd.MarkFlagRequired("gross")
	payoutGrossCmd.Flags().Int64Var(&desiredNet, "net", 0, "desired net payout in won")
	payoutGrossCmd.MarkFlagRequired("net")
	payoutWithdrawCmd.Flags().Int64Var(&withdrawAmount, "amount", 0, "requested withdrawal in won")
	payoutWithdrawCmd.Flags().Int64Var(&availableBalance, "balance", 0, "available balance in won")
	payoutWithdrawCmd.MarkFlagRequired("amount")
	payoutWithdrawCmd.MarkFlagRequired("balance")

	payoutCmd.AddCommand(payoutCalcCmd)
	payoutCmd.AddCommand(payoutGrossCmd)
	payoutCmd.AddCommand(payoutWithdrawCmd)
}
