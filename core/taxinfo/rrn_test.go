package taxinfo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"reviewpay/internal/errors"
)

func TestNormalizeRRN(t *testing.T) {
	assert.Equal(t, "9001011234567", NormalizeRRN("900101-1234567"))
	assert.Equal(t, "9001011234567", NormalizeRRN("  900101 1234567\n"))
	assert.Equal(t, "9001011234567", NormalizeRRN("9001011234567"))
	assert.Equal(t, "", NormalizeRRN(" - "))
}

func TestValidateRRNFormat(t *testing.T) {
	tests := []struct {
		rrn  string
		want bool
	}{
		{"900101-1234567", true},
		{"9001011234567", true},
		{" 900101-1234567 ", true},
		{"900101 1234567", true},
		{"000229-3234567", true},  // 2000 is a leap year
		{"991231-9234567", true},  // born 1899
		{"200315-7234567", true},  // foreign resident born 2020
		{"010229-3234567", false}, // 2001 is not
		{"900231-1234567", false},
		{"901301-1234567", false},
		{"900100-1234567", false},
		{"900101-123456", false},
		{"900101-12345678", false},
		{"90010-11234567", false},
		{"900101--234567", false},
		{"900101-1234567-", false},
		{"abcdef-1234567", false},
		{"９00101-1234567", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidateRRNFormat(tt.rrn), "ValidateRRNFormat(%q)", tt.rrn)
	}
}

func TestHashRRN(t *testing.T) {
	withDash := HashRRN("900101-1234567")
	without := HashRRN("9001011234567")
	assert.Equal(t, withDash, without)
	assert.Len(t, withDash, 64)
	assert.NotEqual(t, withDash, HashRRN("900101-1234568"))
	assert.NotContains(t, withDash, "9001011234567")
}

func TestMaskRRN(t *testing.T) {
	masked, err := MaskRRN("900101-1234567")
	require.NoError(t, err)
	assert.Equal(t, "900101-*******", masked)

	masked, err = MaskRRN("9001011234567")
	require.NoError(t, err)
	assert.Equal(t, "900101-*******", masked)
}

func TestMaskRRNRejectsMalformed(t *testing.T) {
	for _, rrn := range []string{"", "900101", "900101-123456", "900101-12345678", "ABCDEF-GHIJKLM"} {
		_, err := MaskRRN(rrn)
		assert.Equal(t, errors.TypeValidation, errors.TypeOf(err), "MaskRRN(%q)", rrn)
	}
}

func TestPropertyMaskHidesIdentifier(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rrn := rapid.StringMatching(`[0-9]{6}-?[0-9]{7}`).Draw(t, "rrn")
		masked, err := MaskRRN(rrn)
		require.NoError(t, err)
		require.False(t, strings.Contains(masked, NormalizeRRN(rrn)))
		require.False(t, strings.Contains(masked, rrn))
		require.Equal(t, NormalizeRRN(rrn)[:6], masked[:6])
	})
}

func TestPropertyHashIgnoresFormatting(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		front := rapid.StringMatching(`[0-9]{6}`).Draw(t, "front")
		back := rapid.StringMatching(`[0-9]{7}`).Draw(t, "back")
		require.Equal(t, HashRRN(front+back), HashRRN(front+"-"+back))
		require.Equal(t, HashRRN(front+back), HashRRN(" "+front+" "+back+" "))
	})
}
