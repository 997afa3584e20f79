// Package cmd - tax information commands
// Commands that need a key read it from REVIEWPAY_TAXINFO_KEY; keys are
// never accepted as flags.
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"reviewpay/core/taxinfo"
	"reviewpay/db"
	"reviewpay/internal/config"
	"reviewpay/internal/errors"
	"reviewpay/internal/logging"
)

var (
	revealReason string
	legalName    string
	rotateAll    bool
)

var taxinfoCmd = &cobra.Command{
	Use:   "taxinfo",
	Short: "Resident registration number tools",
	Long: `Tools for reviewer tax information.

Values passed as an argument end up in shell history; omit the argument to
read the value from standard input instead.`,
}

var taxinfoKeygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a new base64 encryption key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := taxinfo.GenerateEncryptionKey()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}

var taxinfoValidateCmd = &cobra.Command{
	Use:   "validate [rrn]",
	Short: "Check the format of a resident registration number",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rrn, err := argOrStdin(cmd, args)
		if err != nil {
			return err
		}
		if !taxinfo.ValidateRRNFormat(rrn) {
			return errors.Validation("invalid resident registration number format")
		}
		fmt.Fprintln(cmd.OutOrStdout(), "valid")
		return nil
	},
}

var taxinfoMaskCmd = &cobra.Command{
	Use:   "mask [rrn]",
	Short: "Print the masked form YYMMDD-*******",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rrn, err := argOrStdin(cmd, args)
		if err != nil {
			return err
		}
		masked, err := taxinfo.MaskRRN(rrn)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), masked)
		return nil
	},
}

var taxinfoHashCmd = &cobra.Command{
	Use:   "hash [rrn]",
	Short: "Print the lookup hash of a resident registration number",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rrn, err := argOrStdin(cmd, args)
		if err != nil {
			return err
		}
		if !taxinfo.ValidateRRNFormat(rrn) {
			return errors.Validation("invalid resident registration number format")
		}
		fmt.Fprintln(cmd.OutOrStdout(), taxinfo.HashRRN(rrn))
		return nil
	},
}

var taxinfoEncryptCmd = &cobra.Command{
	Use:   "encrypt [rrn]",
	Short: "Validate, encrypt, hash and mask a registration",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rrn, err := argOrStdin(cmd, args)
		if err != nil {
			return err
		}
		svc, err := newTaxInfoService()
		if err != nil {
			return err
		}
		result, err := svc.ProcessTaxInfo(taxinfo.Input{RRN: rrn, LegalName: legalName})
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), result)
	},
}

var taxinfoDecryptCmd = &cobra.Command{
	Use:   "decrypt [envelope]",
	Short: "Decrypt a stored envelope (audit logged)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		envelope, err := argOrStdin(cmd, args)
		if err != nil {
			return err
		}
		svc, err := newTaxInfoService()
		if err != nil {
			return err
		}
		plaintext, err := svc.Reveal(envelope, revealReason)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), plaintext)
		return nil
	},
}

var taxinfoRotateCmd = &cobra.Command{
	Use:   "rotate [envelope]",
	Short: "Re-encrypt envelopes under the primary key",
	Long: `Re-encrypt an envelope under the primary key. Retired keys are read from
REVIEWPAY_TAXINFO_RETIRED_KEYS as id=key pairs separated by commas.

With --all every record in the database at DATABASE_URL is rotated.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newTaxInfoService()
		if err != nil {
			return err
		}
		if rotateAll {
			return rotateStore(cmd.Context(), cmd.OutOrStdout(), svc.Cipher())
		}
		envelope, err := argOrStdin(cmd, args)
		if err != nil {
			return err
		}
		rotated, err := svc.Cipher().Rotate(envelope)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), rotated)
		return nil
	},
}

func init() {
	taxinfoEncryptCmd.Flags().StringVar(&legalName, "name", "", "legal name of the reviewer")
	taxinfoEncryptCmd.MarkFlagRequired("name")
	taxinfoDecryptCmd.Flags().StringVar(&revealReason, "reason", "", "why the value is being revealed (recorded in the audit log)")
	taxinfoDecryptCmd.MarkFlagRequired("reason")
	taxinfoRotateCmd.Flags().BoolVar(&rotateAll, "all", false, "rotate every stored record")

	taxinfoCmd.AddCommand(taxinfoKeygenCmd)
	taxinfoCmd.AddCommand(taxinfoValidateCmd)
	taxinfoCmd.AddCommand(taxinfoMaskCmd)
	taxinfoCmd.AddCommand(taxinfoHashCmd)
	taxinfoCmd.AddCommand(taxinfoEncryptCmd)
	taxinfoCmd.AddCommand(taxinfoDecryptCmd)
	taxinfoCmd.AddCommand(taxinfoRotateCmd)
}

func newTaxInfoService() (*taxinfo.Service, error) {
	keys, err := config.Get().KeyConfig()
	if err != nil {
		return nil, err
	}
	cipher, err := taxinfo.NewCipher(keys)
	if err != nil {
		return nil, err
	}
	return taxinfo.NewService(cipher, logging.Logger)
}

func rotateStore(ctx context.Context, w io.Writer, cipher *taxinfo.Cipher) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := config.Get().Database
	if cfg.URL == "" {
		return errors.Config("--all needs "+config.EnvDatabaseURL, nil)
	}
	conn, err := db.Open(ctx, cfg.URL, cfg.MaxOpenConns)
	if err != nil {
		return err
	}
	defer conn.Close()

	rotated, err := db.RotateAll(ctx, db.NewPostgresStore(conn), cipher)
	fmt.Fprintf(w, "Rotated %d record(s) to key %s\n", rotated, cipher.PrimaryKeyID())
	return err
}

// argOrStdin returns the single argument, or the first line of stdin.
func argOrStdin(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", errors.Internal("failed to read stdin", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.Validation("no value given on the command line or stdin")
	}
	return line, nil
}
