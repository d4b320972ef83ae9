package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/zestpay/gateway/internal/domain"
)

const paymentColumns = `id, order_id, merchant_id, amount, currency, method,
	vpa, card_network, card_last4, status, error_code, error_description,
	created_at, updated_at`

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payments (
			id, order_id, merchant_id, amount, currency, method,
			vpa, card_network, card_last4, status, error_code, error_description,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		p.ID, p.OrderID, p.MerchantID, p.Amount, p.Currency, p.Method,
		p.VPA, p.CardNetwork, p.CardLast4, p.Status, p.ErrorCode, p.ErrorDescription,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string, merchantID uuid.UUID) (*domain.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1 AND merchant_id = $2`,
		id, merchantID,
	)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return p, nil
}

// Get looks a payment up without merchant scoping. Used by the webhook
// dispatcher, which rebuilds payloads from entity state at delivery
// time.
func (r *PaymentRepository) Get(ctx context.Context, id string) (*domain.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id,
	)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("Get: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("Get: %w", err)
	}
	return p, nil
}

// GetForUpdate locks the payment row for the duration of tx. The
// refund ledger uses this as the per-payment serialization boundary
// for its balance check.
func (r *PaymentRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id string, merchantID uuid.UUID) (*domain.Payment, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1 AND merchant_id = $2 FOR UPDATE`,
		id, merchantID,
	)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return p, nil
}

// MarkSucceeded applies the success transition. The status guard in
// the WHERE clause makes the terminal transition single-shot even
// under concurrent authorizers.
func (r *PaymentRepository) MarkSucceeded(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payments SET status = $1, error_code = NULL, error_description = NULL, updated_at = now()
		WHERE id = $2 AND status = $3`,
		domain.PaymentStatusSuccess, id, domain.PaymentStatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("MarkSucceeded: %w", err)
	}
	return checkTransition(res, "MarkSucceeded")
}

func (r *PaymentRepository) MarkFailed(ctx context.Context, id, errorCode, errorDescription string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payments SET status = $1, error_code = $2, error_description = $3, updated_at = now()
		WHERE id = $4 AND status = $5`,
		domain.PaymentStatusFailed, errorCode, errorDescription, id, domain.PaymentStatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("MarkFailed: %w", err)
	}
	return checkTransition(res, "MarkFailed")
}

func checkTransition(res sql.Result, op string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrPaymentTerminal)
	}
	return nil
}

func scanPayment(s scanner) (*domain.Payment, error) {
	var p domain.Payment
	err := s.Scan(
		&p.ID, &p.OrderID, &p.MerchantID, &p.Amount, &p.Currency, &p.Method,
		&p.VPA, &p.CardNetwork, &p.CardLast4, &p.Status, &p.ErrorCode, &p.ErrorDescription,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
