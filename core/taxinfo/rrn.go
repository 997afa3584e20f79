package taxinfo

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
	"unicode"

	"reviewpay/internal/errors"
)

const (
	rrnLength  = 13
	rrnDashAt  = 6
	maskSuffix = "-*******"
)

// NormalizeRRN trims rrn and drops dashes and whitespace. It does not
// validate; "900101-1234567" and " 9001011234567" normalize to the same value.
func NormalizeRRN(rrn string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(rrn))
}

// ValidateRRNFormat reports whether rrn is structurally a resident
// registration number: 13 digits, an optional dash after the sixth, and a
// real calendar birth date whose century comes from the seventh digit.
// The legacy check digit is not verified since numbers issued from
// October 2020 no longer carry one.
func ValidateRRNFormat(rrn string) bool {
	trimmed := strings.TrimSpace(rrn)
	if dash := strings.IndexByte(trimmed, '-'); dash >= 0 {
		if dash != rrnDashAt || strings.Count(trimmed, "-") != 1 {
			return false
		}
	}
	digits := NormalizeRRN(trimmed)
	if !isRRNDigits(digits) {
		return false
	}
	_, ok := birthDate(digits)
	return ok
}

func isRRNDigits(s string) bool {
	if len(s) != rrnLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// birthDate decodes YYMMDD and the gender/century digit of a normalized RRN.
func birthDate(digits string) (time.Time, bool) {
	var century int
	switch digits[6] {
	case '9', '0':
		century = 1800
	case '1', '2', '5', '6':
		century = 1900
	case '3', '4', '7', '8':
		century = 2000
	default:
		return time.Time{}, false
	}
	year := century + atoi2(digits[0:2])
	month := atoi2(digits[2:4])
	day := atoi2(digits[4:6])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func atoi2(s string) int {
	return int(s[0]-'0')*10 + int(s[1]-'0')
}

// HashRRN returns the hex SHA-256 digest of the normalized rrn. Equal
// identifiers hash equally regardless of dashes or spacing.
func HashRRN(rrn string) string {
	buf := []byte(NormalizeRRN(rrn))
	defer clear(buf)
	return hashDigits(buf)
}

func hashDigits(digits []byte) string {
	sum := sha256.Sum256(digits)
	return hex.EncodeToString(sum[:])
}

// MaskRRN returns the birth-date part followed by a fixed placeholder,
// e.g. 900101-*******. Input that does not normalize to 13 digits is
// rejected with a validation error rather than partially masked.
func MaskRRN(rrn string) (string, error) {
	digits := NormalizeRRN(rrn)
	if !isRRNDigits(digits) {
		return "", errors.Validation("resident registration number must have 13 digits")
	}
	return maskDigits([]byte(digits)), nil
}

func maskDigits(digits []byte) string {
	return string(digits[:rrnDashAt]) + maskSuffix
}
