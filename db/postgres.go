package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"reviewpay/internal/errors"
)

const uniqueViolation = "23505"

const selectColumns = `id, user_id, encrypted_rrn, rrn_hash, masked_rrn, legal_name, created_at, updated_at`

// PostgresStore is a TaxInfoStore backed by PostgreSQL.
type PostgresStore struct {
	db     *sql.DB
	tracer trace.Tracer
}

// Open connects to url with the lib/pq driver and verifies the connection.
func Open(ctx context.Context, url string, maxOpenConns int) (*sql.DB, error) {
	conn, err := sql.Open("postgres", url)
	if err != nil {
		return nil, errors.Config("open database", err)
	}
	if maxOpenConns > 0 {
		conn.SetMaxOpenConns(maxOpenConns)
		conn.SetMaxIdleConns(maxOpenConns)
	}
	conn.SetConnMaxLifetime(30 * time.Minute)
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, errors.Config("connect to database", err)
	}
	return conn, nil
}

// NewPostgresStore wraps an open connection pool.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db:     db,
		tracer: otel.Tracer("reviewpay/db"),
	}
}

// Save inserts a record
func (s *PostgresStore) Save(ctx context.Context, record TaxInfoRecord) error {
	ctx, span := s.tracer.Start(ctx, "taxinfo.save",
		trace.WithAttributes(attribute.String("taxinfo.id", record.ID.String())),
	)
	defer span.End()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tax_info (id, user_id, encrypted_rrn, rrn_hash, masked_rrn, legal_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, record.ID, record.UserID, record.EncryptedRRN, record.RRNHash, record.MaskedRRN,
		record.LegalName, record.CreatedAt, record.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if stderrors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			span.SetAttributes(attribute.Bool("conflict.detected", true))
			return duplicate(pqErr.Constraint)
		}
		span.SetStatus(codes.Error, "insert failed")
		return errors.Internal("insert tax info", err)
	}
	return nil
}

// Get retrieves a record by ID
func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (TaxInfoRecord, error) {
	ctx, span := s.tracer.Start(ctx, "taxinfo.get",
		trace.WithAttributes(attribute.String("taxinfo.id", id.String())),
	)
	defer span.End()

	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM tax_info WHERE id = $1`, id)
	return scanRecord(row, id.String())
}

// FindByHash retrieves a record by RRN hash
func (s *PostgresStore) FindByHash(ctx context.Context, hash string) (TaxInfoRecord, error) {
	ctx, span := s.tracer.Start(ctx, "taxinfo.find_by_hash")
	defer span.End()

	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM tax_info WHERE rrn_hash = $1`, hash)
	return scanRecord(row, "hash")
}

// List returns all records ordered by creation time
func (s *PostgresStore) List(ctx context.Context) ([]TaxInfoRecord, error) {
	ctx, span := s.tracer.Start(ctx, "taxinfo.list")
	defer span.End()

	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM tax_info ORDER BY created_at, id`)
	if err != nil {
		return nil, errors.Internal("query tax info", err)
	}
	defer rows.Close()

	var records []TaxInfoRecord
	for rows.Next() {
		r, err := scanRecord(rows, "")
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Internal("iterate tax info", err)
	}
	span.SetAttributes(attribute.Int("taxinfo.count", len(records)))
	return records, nil
}

// UpdateEncryptedRRN replaces the envelope of a record
func (s *PostgresStore) UpdateEncryptedRRN(ctx context.Context, id uuid.UUID, envelope string) error {
	ctx, span := s.tracer.Start(ctx, "taxinfo.update_envelope",
		trace.WithAttributes(attribute.String("taxinfo.id", id.String())),
	)
	defer span.End()

	res, err := s.db.ExecContext(ctx,
		`UPDATE tax_info SET encrypted_rrn = $2, updated_at = $3 WHERE id = $1`,
		id, envelope, time.Now().UTC())
	if err != nil {
		return errors.Internal("update tax info", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Internal("update tax info", err)
	}
	if n == 0 {
		return notFound(id.String())
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner, key string) (TaxInfoRecord, error) {
	var r TaxInfoRecord
	err := row.Scan(&r.ID, &r.UserID, &r.EncryptedRRN, &r.RRNHash, &r.MaskedRRN, &r.LegalName, &r.CreatedAt, &r.UpdatedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return TaxInfoRecord{}, notFound(key)
	}
	if err != nil {
		return TaxInfoRecord{}, errors.Internal("scan tax info", err)
	}
	return r, nil
}
