// Package db persists processed tax information.
//
// Only the outputs of taxinfo.ProcessTaxInfo are stored; the plain RRN never
// reaches this package. The PostgreSQL store expects:
//
//	CREATE TABLE tax_info (
//	    id            UUID PRIMARY KEY,
//	    user_id       TEXT NOT NULL UNIQUE,
//	    encrypted_rrn TEXT NOT NULL,
//	    rrn_hash      CHAR(64) NOT NULL UNIQUE,
//	    masked_rrn    TEXT NOT NULL,
//	    legal_name    TEXT NOT NULL,
//	    created_at    TIMESTAMPTZ NOT NULL,
//	    updated_at    TIMESTAMPTZ NOT NULL
//	);
package db

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	"reviewpay/core/taxinfo"
	"reviewpay/internal/errors"
)

var (
	// ErrDuplicate is returned when the user or the RRN hash is already registered
	ErrDuplicate = stderrors.New("tax info already registered")

	// ErrNotFound is returned when no record matches
	ErrNotFound = stderrors.New("tax info not found")
)

// TaxInfoRecord is a stored registration.
type TaxInfoRecord struct {
	ID           uuid.UUID `json:"id"`
	UserID       string    `json:"user_id"`
	EncryptedRRN string    `json:"-"`
	RRNHash      string    `json:"-"`
	MaskedRRN    string    `json:"masked_rrn"`
	LegalName    string    `json:"legal_name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewRecord builds a record for userID from a processed result.
func NewRecord(userID string, result taxinfo.Result, now time.Time) TaxInfoRecord {
	now = now.UTC()
	return TaxInfoRecord{
		ID:           uuid.New(),
		UserID:       userID,
		EncryptedRRN: result.EncryptedRRN,
		RRNHash:      result.RRNHash,
		MaskedRRN:    result.MaskedRRN,
		LegalName:    result.LegalName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// TaxInfoStore provides tax-info storage
type TaxInfoStore interface {
	// Save inserts a record. A second registration for the same user or
	// the same RRN hash fails with a CONFLICT error wrapping ErrDuplicate.
	Save(ctx context.Context, record TaxInfoRecord) error

	// Get retrieves a record by ID
	Get(ctx context.Context, id uuid.UUID) (TaxInfoRecord, error)

	// FindByHash retrieves the record registered for an RRN hash
	FindByHash(ctx context.Context, hash string) (TaxInfoRecord, error)

	// List returns all records ordered by creation time
	List(ctx context.Context) ([]TaxInfoRecord, error)

	// UpdateEncryptedRRN replaces the envelope of a record, e.g. after key rotation
	UpdateEncryptedRRN(ctx context.Context, id uuid.UUID, envelope string) error
}

func duplicate(field string) error {
	return errors.Conflict("tax information is already registered", ErrDuplicate).WithContext("field", field)
}

func notFound(key string) error {
	return errors.Wrap(errors.TypeNotFound, "tax info not found: "+key, ErrNotFound)
}

// RotateAll re-seals every stored envelope with the cipher's primary key and
// returns how many records changed.
func RotateAll(ctx context.Context, store TaxInfoStore, cipher *taxinfo.Cipher) (int, error) {
	records, err := store.List(ctx)
	if err != nil {
		return 0, err
	}
	rotated := 0
	for _, r := range records {
		envelope, err := cipher.Rotate(r.EncryptedRRN)
		if err != nil {
			return rotated, errors.Wrap(errors.TypeOf(err), "rotate tax info "+r.ID.String(), err)
		}
		if envelope == r.EncryptedRRN {
			continue
		}
		if err := store.UpdateEncryptedRRN(ctx, r.ID, envelope); err != nil {
			return rotated, err
		}
		rotated++
	}
	return rotated, nil
}
