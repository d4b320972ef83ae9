package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/zestpay/gateway/internal/domain"
)

const merchantColumns = `id, name, email, api_key, api_secret, webhook_url, is_active, created_at`

// MerchantRepository is the read model for the merchant directory.
// The core never inserts merchants; it resolves credentials and
// webhook configuration, and the only write it owns is the webhook
// URL update exposed on the API.
type MerchantRepository struct {
	db *sql.DB
}

func NewMerchantRepository(db *sql.DB) *MerchantRepository {
	return &MerchantRepository{db: db}
}

func (r *MerchantRepository) GetByCredentials(ctx context.Context, apiKey, apiSecret string) (*domain.Merchant, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+merchantColumns+` FROM merchants WHERE api_key = $1 AND api_secret = $2`,
		apiKey, apiSecret,
	)
	m, err := scanMerchant(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByCredentials: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByCredentials: %w", err)
	}
	return m, nil
}

func (r *MerchantRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+merchantColumns+` FROM merchants WHERE id = $1`, id,
	)
	m, err := scanMerchant(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return m, nil
}

func (r *MerchantRepository) UpdateWebhookURL(ctx context.Context, id uuid.UUID, webhookURL string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE merchants SET webhook_url = $1 WHERE id = $2`,
		webhookURL, id,
	)
	if err != nil {
		return fmt.Errorf("UpdateWebhookURL: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateWebhookURL: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateWebhookURL: %w", domain.ErrNotFound)
	}
	return nil
}

func scanMerchant(s scanner) (*domain.Merchant, error) {
	var m domain.Merchant
	err := s.Scan(
		&m.ID, &m.Name, &m.Email, &m.APIKey, &m.APISecret,
		&m.WebhookURL, &m.IsActive, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
