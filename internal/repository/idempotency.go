package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// IdempotencyRecord is one reserved (merchant, request-hash) slot.
// ResponseStatus is nil while the original request is still executing.
type IdempotencyRecord struct {
	MerchantID     uuid.UUID
	RequestHash    string
	ResponseStatus *int
	ResponseBody   []byte
	CreatedAt      time.Time
}

type IdempotencyRepository struct {
	db *sql.DB
}

func NewIdempotencyRepository(db *sql.DB) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

// Reserve atomically claims (merchantID, requestHash). When the claim
// wins it returns (true, nil): the caller may execute the operation
// and must Complete afterwards. When a record already exists it
// returns (false, record); a nil ResponseStatus on that record means
// the original request has not finished yet.
//
// A single conditional insert, not check-then-insert, so two
// concurrent identical requests cannot both win.
func (r *IdempotencyRepository) Reserve(ctx context.Context, merchantID uuid.UUID, requestHash string) (bool, *IdempotencyRecord, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO idempotency_keys (merchant_id, request_hash, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (merchant_id, request_hash) DO NOTHING`,
		merchantID, requestHash,
	)
	if err != nil {
		return false, nil, fmt.Errorf("Reserve: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, nil, fmt.Errorf("Reserve: rows affected: %w", err)
	}
	if rows == 1 {
		return true, nil, nil
	}

	rec, err := r.get(ctx, merchantID, requestHash)
	if err != nil {
		return false, nil, fmt.Errorf("Reserve: %w", err)
	}
	return false, rec, nil
}

// Complete stores the response for a reserved slot so later identical
// requests replay it verbatim.
func (r *IdempotencyRepository) Complete(ctx context.Context, merchantID uuid.UUID, requestHash string, statusCode int, body []byte) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE idempotency_keys SET response_status_code = $1, response_body = $2
		WHERE merchant_id = $3 AND request_hash = $4`,
		statusCode, body, merchantID, requestHash,
	)
	if err != nil {
		return fmt.Errorf("Complete: %w", err)
	}
	return nil
}

// Release drops a reservation whose operation never produced a
// response, letting a retry re-execute instead of stalling on an
// in-progress record forever.
func (r *IdempotencyRepository) Release(ctx context.Context, merchantID uuid.UUID, requestHash string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM idempotency_keys
		WHERE merchant_id = $1 AND request_hash = $2 AND response_status_code IS NULL`,
		merchantID, requestHash,
	)
	if err != nil {
		return fmt.Errorf("Release: %w", err)
	}
	return nil
}

func (r *IdempotencyRepository) get(ctx context.Context, merchantID uuid.UUID, requestHash string) (*IdempotencyRecord, error) {
	var rec IdempotencyRecord
	err := r.db.QueryRowContext(ctx,
		`SELECT merchant_id, request_hash, response_status_code, response_body, created_at
		FROM idempotency_keys WHERE merchant_id = $1 AND request_hash = $2`,
		merchantID, requestHash,
	).Scan(&rec.MerchantID, &rec.RequestHash, &rec.ResponseStatus, &rec.ResponseBody, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get: %w", err)
	}
	return &rec, nil
}
