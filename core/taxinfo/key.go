package taxinfo

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"io"
	"regexp"

	"golang.org/x/crypto/hkdf"

	"reviewpay/internal/errors"
)

// KeySize is the length of an AES-256 key and of every configured secret.
const KeySize = 32

const hkdfInfoPrefix = "reviewpay/taxinfo/"

var keyIDPattern = regexp.MustCompile(`^[a-z0-9_-]{1,16}$`)

// KeyConfig is the key ring a Cipher is built from. Keys maps a key id to a
// base64 or hex encoded 32-byte secret. PrimaryID names the key used for
// new envelopes; the others are kept only to decrypt and rotate old data.
type KeyConfig struct {
	PrimaryID string
	Keys      map[string]string
}

// GenerateEncryptionKey returns a fresh random 256-bit secret encoded as
// standard base64, suitable for REVIEWPAY_TAXINFO_KEY.
func GenerateEncryptionKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", errors.Wrap(errors.TypeEncryption, "generate encryption key", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// decodeSecret accepts 64 hex characters or standard base64.
func decodeSecret(id, encoded string) ([]byte, error) {
	var (
		secret []byte
		err    error
	)
	if len(encoded) == hex.EncodedLen(KeySize) {
		secret, err = hex.DecodeString(encoded)
	} else {
		secret, err = base64.StdEncoding.DecodeString(encoded)
	}
	if err != nil {
		return nil, errors.Config("encryption key "+id+" is not valid base64 or hex", nil)
	}
	if len(secret) != KeySize {
		return nil, errors.Config("encryption key "+id+" must decode to 32 bytes", nil).
			WithContext("length", len(secret))
	}
	return secret, nil
}

// deriveKey binds the AES key to its id so that a secret reused under two
// ids still yields two unrelated keys.
func deriveKey(id string, secret []byte) ([]byte, error) {
	key := make([]byte, KeySize)
	r := hkdf.New(sha256.New, secret, nil, []byte(hkdfInfoPrefix+id))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, errors.Config("derive encryption key "+id, err)
	}
	return key, nil
}
