// Package taxinfo protects resident registration numbers (RRNs) collected for
// withholding-tax reporting.
//
// An RRN is stored three ways: an AES-256-GCM envelope for authorized
// decryption, a SHA-256 digest for duplicate detection, and a masked form for
// display. Only the envelope can be turned back into the identifier.
package taxinfo

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"io"
	"sort"
	"strings"

	"reviewpay/internal/errors"
)

const (
	nonceSize     = 12
	tagSize       = 16
	envelopeSep   = "."
	decryptFailed = "tax info envelope could not be decrypted"
)

var envelopeEncoding = base64.StdEncoding.Strict()

// Cipher seals and opens tax-info envelopes:
//
//	<keyID>.<base64(nonce || ciphertext || tag)>
//
// The key id is authenticated as associated data. A Cipher is read-only
// after construction and safe for concurrent use.
type Cipher struct {
	primary string
	aeads   map[string]cipher.AEAD
	rand    io.Reader
}

// NewCipher validates the key ring and derives one AEAD per key id.
// Every failure is a configuration error and should stop the process.
func NewCipher(cfg KeyConfig) (*Cipher, error) {
	if cfg.PrimaryID == "" {
		return nil, errors.Config("primary encryption key id is not set", nil)
	}
	if len(cfg.Keys) == 0 {
		return nil, errors.Config("no encryption key configured", nil)
	}
	if _, ok := cfg.Keys[cfg.PrimaryID]; !ok {
		return nil, errors.Config("primary encryption key "+cfg.PrimaryID+" is not configured", nil)
	}

	c := &Cipher{
		primary: cfg.PrimaryID,
		aeads:   make(map[string]cipher.AEAD, len(cfg.Keys)),
		rand:    rand.Reader,
	}
	for id, encoded := range cfg.Keys {
		if !keyIDPattern.MatchString(id) {
			return nil, errors.Config("encryption key id must match [a-z0-9_-]{1,16}", nil).WithContext("key_id", id)
		}
		secret, err := decodeSecret(id, encoded)
		if err != nil {
			return nil, err
		}
		key, err := deriveKey(id, secret)
		if err != nil {
			return nil, err
		}
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, errors.Config("encryption key "+id, err)
		}
		aead, err := cipher.NewGCM(block)
		if err != nil {
			return nil, errors.Config("encryption key "+id, err)
		}
		c.aeads[id] = aead
	}
	return c, nil
}

// PrimaryKeyID returns the id new envelopes are sealed with.
func (c *Cipher) PrimaryKeyID() string {
	return c.primary
}

// KeyIDs returns the configured key ids in sorted order.
func (c *Cipher) KeyIDs() []string {
	ids := make([]string, 0, len(c.aeads))
	for id := range c.aeads {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Encrypt seals plaintext under the primary key with a fresh random nonce,
// so two calls never return the same envelope.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	return c.seal([]byte(plaintext))
}

// EncryptRRN seals the normalized form of rrn.
func (c *Cipher) EncryptRRN(rrn string) (string, error) {
	buf := []byte(NormalizeRRN(rrn))
	defer clear(buf)
	return c.seal(buf)
}

func (c *Cipher) seal(plaintext []byte) (string, error) {
	if c == nil || c.aeads[c.primary] == nil {
		return "", errors.Config("tax info cipher is not initialized", nil)
	}
	aead := c.aeads[c.primary]

	payload := make([]byte, nonceSize, nonceSize+len(plaintext)+tagSize)
	if _, err := io.ReadFull(c.rand, payload); err != nil {
		return "", errors.Encryption("generate nonce", err)
	}
	payload = aead.Seal(payload, payload[:nonceSize], plaintext, []byte(c.primary))
	return c.primary + envelopeSep + envelopeEncoding.EncodeToString(payload), nil
}

// Decrypt opens an envelope sealed by any configured key. A malformed,
// truncated or tampered envelope and an unknown key id all fail with a
// decryption error; no partial plaintext is ever returned.
func (c *Cipher) Decrypt(envelope string) (string, error) {
	if c == nil || len(c.aeads) == 0 {
		return "", errors.Config("tax info cipher is not initialized", nil)
	}
	_, plaintext, err := c.open(envelope)
	if err != nil {
		return "", err
	}
	defer clear(plaintext)
	return string(plaintext), nil
}

// KeyID reports which key sealed envelope without decrypting it.
func KeyID(envelope string) (string, error) {
	id, _, ok := strings.Cut(envelope, envelopeSep)
	if !ok || !keyIDPattern.MatchString(id) {
		return "", errors.Decryption(decryptFailed, nil).WithContext("reason", "malformed envelope")
	}
	return id, nil
}

func (c *Cipher) open(envelope string) (string, []byte, error) {
	id, err := KeyID(envelope)
	if err != nil {
		return "", nil, err
	}
	encoded := envelope[len(id)+len(envelopeSep):]
	aead, ok := c.aeads[id]
	if !ok {
		return "", nil, errors.Decryption(decryptFailed, nil).WithContext("reason", "unknown key id")
	}
	// the base64 decoder skips line breaks even in strict mode
	if strings.ContainsAny(encoded, "\r\n") {
		return "", nil, errors.Decryption(decryptFailed, nil).WithContext("reason", "malformed envelope")
	}
	payload, err := envelopeEncoding.DecodeString(encoded)
	if err != nil {
		return "", nil, errors.Decryption(decryptFailed, err).WithContext("reason", "malformed envelope")
	}
	if len(payload) < nonceSize+tagSize {
		return "", nil, errors.Decryption(decryptFailed, nil).WithContext("reason", "envelope too short")
	}
	plaintext, err := aead.Open(nil, payload[:nonceSize], payload[nonceSize:], []byte(id))
	if err != nil {
		return "", nil, errors.Decryption(decryptFailed, err).WithContext("reason", "authentication failed")
	}
	return id, plaintext, nil
}

// Rotate re-seals envelope under the primary key. Envelopes already on the
// primary key are returned unchanged after they authenticate.
func (c *Cipher) Rotate(envelope string) (string, error) {
	if c == nil || len(c.aeads) == 0 {
		return "", errors.Config("tax info cipher is not initialized", nil)
	}
	id, plaintext, err := c.open(envelope)
	if err != nil {
		return "", err
	}
	defer clear(plaintext)
	if id == c.primary {
		return envelope, nil
	}
	return c.seal(plaintext)
}
