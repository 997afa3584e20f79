package cmd

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewpay/core/billing"
	"reviewpay/internal/config"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestBillingCampaignCommand(t *testing.T) {
	out, err := execute(t, "", "billing", "campaign", "-f", "json", "--recruits", "10", "--reward", "30000", "--method", "credit_card")
	require.NoError(t, err)

	var result billing.CampaignResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, int64(375705), result.TotalAmount)
}

func TestBillingCompareCommand(t *testing.T) {
	out, err := execute(t, "", "billing", "compare", "-f", "cli", "--recruits", "10", "--reward", "30000")
	require.NoError(t, err)
	assert.Contains(t, out, "12,705원 (3.38%)")
}

func TestBillingPlatformsCommand(t *testing.T) {
	out, err := execute(t, "", "billing", "platforms", "-f", "cli", "--method", "bank_transfer",
		"--platform", "blog:10:30000", "--platform", "instagram:1:7000")
	require.NoError(t, err)
	assert.Contains(t, out, "374,000원")

	_, err = execute(t, "", "billing", "platforms", "--platform", "blog:ten:30000")
	assert.Error(t, err)
}

func TestPayoutCommands(t *testing.T) {
	out, err := execute(t, "", "payout", "gross", "-f", "json", "--net", "96701")
	require.NoError(t, err)
	var payout billing.PayoutResult
	require.NoError(t, json.Unmarshal([]byte(out), &payout))
	assert.Equal(t, int64(100001), payout.GrossAmount)

	_, err = execute(t, "", "payout", "withdraw", "-f", "cli", "--amount", "5000", "--balance", "80000")
	assert.Error(t, err)
}

func TestTaxInfoCommands(t *testing.T) {
	out, err := execute(t, "900101-1234567\n", "taxinfo", "mask")
	require.NoError(t, err)
	assert.Equal(t, "900101-*******\n", out)

	_, err = execute(t, "", "taxinfo", "validate", "901301-1234567")
	assert.Error(t, err)

	t.Setenv(config.EnvTaxInfoKey, base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{3}, 32)))
	out, err = execute(t, "9001011234567\n", "taxinfo", "encrypt", "-f", "json", "--name", "Hong Gildong")
	require.NoError(t, err)
	var result struct {
		EncryptedRRN string `json:"encrypted_rrn"`
		MaskedRRN    string `json:"masked_rrn"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "900101-*******", result.MaskedRRN)
	assert.True(t, strings.HasPrefix(result.EncryptedRRN, "v1."))

	out, err = execute(t, result.EncryptedRRN+"\n", "taxinfo", "decrypt", "--reason", "annual filing")
	require.NoError(t, err)
	assert.Equal(t, "9001011234567\n", out)
}

func TestTaxInfoCommandsRequireKey(t *testing.T) {
	t.Setenv(config.EnvTaxInfoKey, "")
	_, err := execute(t, "", "taxinfo", "encrypt", "900101-1234567", "--name", "Hong")
	assert.Error(t, err)
}

func TestKeygen(t *testing.T) {
	out, err := execute(t, "", "taxinfo", "keygen")
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Len(t, raw, 32)
}
