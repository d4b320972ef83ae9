package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/zestpay/gateway/internal/domain"
)

const refundColumns = `id, payment_id, order_id, merchant_id, amount, currency, reason, status, created_at`

type RefundRepository struct {
	db *sql.DB
}

func NewRefundRepository(db *sql.DB) *RefundRepository {
	return &RefundRepository{db: db}
}

func (r *RefundRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("BeginTx: %w", err)
	}
	return tx, nil
}

// SumNonFailed totals the refund amounts already booked against a
// payment, excluding failed refunds. Callers must hold the payment
// row lock in tx so the total cannot move before the insert commits.
func (r *RefundRepository) SumNonFailed(ctx context.Context, tx *sql.Tx, paymentID string) (int64, error) {
	var total int64
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM refunds
		WHERE payment_id = $1 AND status != $2`,
		paymentID, domain.RefundStatusFailed,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("SumNonFailed: %w", err)
	}
	return total, nil
}

func (r *RefundRepository) Create(ctx context.Context, tx *sql.Tx, refund *domain.Refund) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO refunds (id, payment_id, order_id, merchant_id, amount, currency, reason, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		refund.ID, refund.PaymentID, refund.OrderID, refund.MerchantID,
		refund.Amount, refund.Currency, refund.Reason, refund.Status, refund.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *RefundRepository) GetByID(ctx context.Context, id string, merchantID uuid.UUID) (*domain.Refund, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+refundColumns+` FROM refunds WHERE id = $1 AND merchant_id = $2`,
		id, merchantID,
	)
	ref, err := scanRefund(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return ref, nil
}

// Get looks a refund up without merchant scoping, for webhook payload
// construction.
func (r *RefundRepository) Get(ctx context.Context, id string) (*domain.Refund, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+refundColumns+` FROM refunds WHERE id = $1`, id,
	)
	ref, err := scanRefund(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("Get: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("Get: %w", err)
	}
	return ref, nil
}

func (r *RefundRepository) List(ctx context.Context, merchantID uuid.UUID, paymentID *string, limit, offset int) ([]domain.Refund, error) {
	query := `SELECT ` + refundColumns + ` FROM refunds WHERE merchant_id = $1`
	args := []any{merchantID}
	if paymentID != nil {
		query += ` AND payment_id = $2`
		args = append(args, *paymentID)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var refunds []domain.Refund
	for rows.Next() {
		ref, err := scanRefund(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		refunds = append(refunds, *ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return refunds, nil
}

func (r *RefundRepository) Count(ctx context.Context, merchantID uuid.UUID, paymentID *string) (int, error) {
	query := `SELECT COUNT(*) FROM refunds WHERE merchant_id = $1`
	args := []any{merchantID}
	if paymentID != nil {
		query += ` AND payment_id = $2`
		args = append(args, *paymentID)
	}

	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return n, nil
}

func scanRefund(s scanner) (*domain.Refund, error) {
	var ref domain.Refund
	err := s.Scan(
		&ref.ID, &ref.PaymentID, &ref.OrderID, &ref.MerchantID,
		&ref.Amount, &ref.Currency, &ref.Reason, &ref.Status, &ref.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ref, nil
}
