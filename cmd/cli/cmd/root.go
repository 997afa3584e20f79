// Package cmd provides the CLI commands for reviewpay.
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"reviewpay/core/billing"
	"reviewpay/core/output"
	"reviewpay/internal/config"
	"reviewpay/internal/logging"
)

// Version is set at build time.
var Version = "0.1.0"

var (
	cfgFile      string
	verbose      bool
	outputFormat string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "reviewpay",
	Short: "Campaign billing, reviewer payouts and tax information",
	Long: `reviewpay bills review campaigns, computes reviewer payouts after
withholding tax and manages encrypted resident registration numbers.

Examples:
  reviewpay billing campaign --recruits 10 --reward 30000 --method credit_card
  reviewpay billing compare --recruits 10 --reward 30000
  reviewpay payout gross --net 96700
  reviewpay taxinfo mask 900101-1234567`,
	SilenceUsage: true,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.reviewpay/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "", "output format (cli, json)")

	// Add subcommands
	rootCmd.AddCommand(billingCmd)
	rootCmd.AddCommand(payoutCmd)
	rootCmd.AddCommand(taxinfoCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

func initConfig() {
	path := cfgFile
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	config.Set(cfg)

	// Initialize logging
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
}

// calculator builds a calculator from the configured rate card.
func calculator() (*billing.Calculator, error) {
	rates, err := config.Get().Rates()
	if err != nil {
		return nil, err
	}
	return billing.NewCalculator(rates)
}

// render writes result in the --format chosen, falling back to the
// configured default.
func render(w io.Writer, result interface{}) error {
	f, err := output.NewRegistry().Get(selectedFormat())
	if err != nil {
		return err
	}
	return f.Render(w, result)
}

func selectedFormat() output.Format {
	if outputFormat != "" {
		return output.Format(outputFormat)
	}
	return output.Format(config.Get().Output.DefaultFormat)
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "reviewpay version %s\n", Version)
	},
}

// configCmd manages configuration
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = config.DefaultPath()
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists: %s", path)
		}
		if err := config.Default().Save(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration (secrets omitted)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return output.JSONFormatter{Indent: "  "}.Render(cmd.OutOrStdout(), config.Get())
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
