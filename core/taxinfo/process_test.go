package taxinfo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"reviewpay/internal/errors"
)

func newObservedService(t *testing.T) (*Service, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	svc, err := NewService(newTestCipher(t), zap.New(core))
	require.NoError(t, err)
	return svc, logs
}

func assertNoPlainRRN(t *testing.T, logs *observer.ObservedLogs, digits string) {
	t.Helper()
	for _, entry := range logs.All() {
		assert.NotContains(t, entry.Message, digits)
		for k, v := range entry.ContextMap() {
			s, _ := v.(string)
			assert.NotContains(t, s, digits, "field %s", k)
			assert.NotContains(t, s, digits[:6]+"-"+digits[6:], "field %s", k)
		}
	}
}

func TestProcessTaxInfo(t *testing.T) {
	svc, logs := newObservedService(t)

	result, err := svc.ProcessTaxInfo(Input{RRN: "900101-1234567", LegalName: "  Hong   Gildong "})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result.MaskedRRN, "900101"))
	assert.NotContains(t, result.MaskedRRN, "1234567")
	assert.Equal(t, "Hong Gildong", result.LegalName)
	assert.Equal(t, HashRRN("9001011234567"), result.RRNHash)
	assert.Equal(t, HashRRN("900101-1234567"), result.RRNHash)

	plaintext, err := svc.Cipher().Decrypt(result.EncryptedRRN)
	require.NoError(t, err)
	assert.Equal(t, "9001011234567", plaintext)

	require.Equal(t, 1, logs.Len())
	assertNoPlainRRN(t, logs, "9001011234567")
	assert.NotContains(t, logs.All()[0].ContextMap()["legal_name"], "Gildong")
}

func TestProcessTaxInfoEnvelopeDiffersPerCall(t *testing.T) {
	svc, _ := newObservedService(t)
	a, err := svc.ProcessTaxInfo(Input{RRN: "900101-1234567", LegalName: "홍길동"})
	require.NoError(t, err)
	b, err := svc.ProcessTaxInfo(Input{RRN: "9001011234567", LegalName: "홍길동"})
	require.NoError(t, err)

	assert.NotEqual(t, a.EncryptedRRN, b.EncryptedRRN)
	assert.Equal(t, a.RRNHash, b.RRNHash)
	assert.Equal(t, a.MaskedRRN, b.MaskedRRN)
}

func TestProcessTaxInfoValidation(t *testing.T) {
	svc, logs := newObservedService(t)
	tests := []struct {
		name  string
		input Input
	}{
		{"bad rrn", Input{RRN: "900101-12345", LegalName: "Hong"}},
		{"impossible birth date", Input{RRN: "901332-1234567", LegalName: "Hong"}},
		{"blank name", Input{RRN: "900101-1234567", LegalName: "   "}},
		{"long name", Input{RRN: "900101-1234567", LegalName: strings.Repeat("가", MaxLegalNameLength+1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ProcessTaxInfo(tt.input)
			require.Error(t, err)
			assert.Equal(t, errors.TypeValidation, errors.TypeOf(err))
			assert.NotContains(t, err.Error(), tt.input.RRN)
		})
	}
	assert.Zero(t, logs.Len())
}

func TestNewServiceRequiresCipher(t *testing.T) {
	_, err := NewService(nil, nil)
	assert.Equal(t, errors.TypeConfig, errors.TypeOf(err))
}

func TestReveal(t *testing.T) {
	svc, logs := newObservedService(t)
	result, err := svc.ProcessTaxInfo(Input{RRN: "900101-1234567", LegalName: "Hong Gildong"})
	require.NoError(t, err)

	_, err = svc.Reveal(result.EncryptedRRN, " ")
	assert.Equal(t, errors.TypeValidation, errors.TypeOf(err))

	plaintext, err := svc.Reveal(result.EncryptedRRN, "2025 withholding statement")
	require.NoError(t, err)
	assert.Equal(t, "9001011234567", plaintext)

	audit := logs.FilterMessage("tax info revealed").All()
	require.Len(t, audit, 1)
	fields := audit[0].ContextMap()
	assert.Equal(t, "900101-*******", fields["masked_rrn"])
	assert.Equal(t, "2025 withholding statement", fields["reason"])
	assert.Equal(t, "k1", fields["key_id"])
	assertNoPlainRRN(t, logs, "9001011234567")

	_, err = svc.Reveal("k1.tampered", "audit")
	assert.Equal(t, errors.TypeDecryption, errors.TypeOf(err))
	assert.Equal(t, 1, logs.FilterMessage("tax info reveal failed").Len())
}
