package taxinfo

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"reviewpay/internal/errors"
	"reviewpay/internal/logging"
)

// MaxLegalNameLength bounds the legal name in runes.
const MaxLegalNameLength = 100

// Input is a reviewer's tax registration as submitted.
type Input struct {
	RRN       string `json:"rrn"`
	LegalName string `json:"legal_name"`
}

// Result is what may be persisted and shown. It never holds the plain RRN.
type Result struct {
	EncryptedRRN string `json:"encrypted_rrn"`
	RRNHash      string `json:"rrn_hash"`
	MaskedRRN    string `json:"masked_rrn"`
	LegalName    string `json:"legal_name"`
}

// Service is the entry point request handlers use for tax information.
type Service struct {
	cipher *Cipher
	logger *zap.Logger
}

// NewService returns a Service backed by cipher. A nil cipher is a
// configuration error; a nil logger discards logs.
func NewService(cipher *Cipher, logger *zap.Logger) (*Service, error) {
	if cipher == nil {
		return nil, errors.Config("tax info cipher is not initialized", nil)
	}
	return &Service{cipher: cipher, logger: logging.OrNop(logger).Named("taxinfo")}, nil
}

// Cipher returns the cipher the service seals with.
func (s *Service) Cipher() *Cipher {
	return s.cipher
}

// ProcessTaxInfo validates the registration, then encrypts, hashes and masks
// the RRN and normalizes the legal name. The normalized RRN buffer is zeroed
// before returning and only the masked form is ever logged.
func (s *Service) ProcessTaxInfo(in Input) (Result, error) {
	if !ValidateRRNFormat(in.RRN) {
		return Result{}, errors.Validation("invalid resident registration number format")
	}
	name, err := normalizeLegalName(in.LegalName)
	if err != nil {
		return Result{}, err
	}

	digits := []byte(NormalizeRRN(in.RRN))
	defer clear(digits)

	envelope, err := s.cipher.seal(digits)
	if err != nil {
		return Result{}, err
	}
	result := Result{
		EncryptedRRN: envelope,
		RRNHash:      hashDigits(digits),
		MaskedRRN:    maskDigits(digits),
		LegalName:    name,
	}

	s.logger.Debug("tax info processed",
		zap.String("masked_rrn", result.MaskedRRN),
		logging.Redact("legal_name", name, 1),
		zap.String("key_id", s.cipher.PrimaryKeyID()),
	)
	return result, nil
}

// Reveal decrypts a stored envelope for tax reporting. Every call is audit
// logged with the masked value and the stated reason.
func (s *Service) Reveal(envelope, reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "", errors.Validation("a reason is required to reveal tax information")
	}
	plaintext, err := s.cipher.Decrypt(envelope)
	if err != nil {
		s.logger.Warn("tax info reveal failed", zap.String("reason", reason), zap.Error(err))
		return "", err
	}

	masked, err := MaskRRN(plaintext)
	if err != nil {
		masked = "unrecognized"
	}
	keyID, _ := KeyID(envelope)
	s.logger.Info("tax info revealed",
		zap.String("masked_rrn", masked),
		zap.String("key_id", keyID),
		zap.String("reason", reason),
	)
	return plaintext, nil
}

// normalizeLegalName trims the name and collapses inner whitespace.
func normalizeLegalName(name string) (string, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return "", errors.Validation("legal name is required")
	}
	if utf8.RuneCountInString(name) > MaxLegalNameLength {
		return "", errors.Validationf("legal name must be at most %d characters", MaxLegalNameLength)
	}
	return name, nil
}
