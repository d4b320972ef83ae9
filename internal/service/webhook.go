package service

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/zestpay/gateway/internal/domain"
	"github.com/zestpay/gateway/internal/logging"
)

type webhookMerchantRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error)
	UpdateWebhookURL(ctx context.Context, id uuid.UUID, webhookURL string) error
}

type webhookLogRepo interface {
	ListByMerchant(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]domain.WebhookJob, error)
	CountByMerchant(ctx context.Context, merchantID uuid.UUID) (int, error)
}

// WebhookService owns the merchant-facing webhook surface: the
// configured endpoint URL and the delivery log.
type WebhookService struct {
	merchants webhookMerchantRepo
	logs      webhookLogRepo
}

func NewWebhookService(merchants webhookMerchantRepo, logs webhookLogRepo) *WebhookService {
	return &WebhookService{merchants: merchants, logs: logs}
}

func (s *WebhookService) GetConfig(ctx context.Context, merchantID uuid.UUID) (*string, error) {
	merchant, err := s.merchants.GetByID(ctx, merchantID)
	if err != nil {
		return nil, fmt.Errorf("GetConfig: %w", err)
	}
	return merchant.WebhookURL, nil
}

// UpdateConfig sets the merchant's webhook endpoint. Only absolute
// http/https URLs are accepted.
func (s *WebhookService) UpdateConfig(ctx context.Context, merchantID uuid.UUID, webhookURL string) error {
	u, err := url.Parse(webhookURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("UpdateConfig: %w", domain.ErrInvalidWebhookURL)
	}
	if err := s.merchants.UpdateWebhookURL(ctx, merchantID, webhookURL); err != nil {
		return fmt.Errorf("UpdateConfig: %w", err)
	}
	logging.FromContext(ctx).Info("webhook url updated", "merchant_id", merchantID)
	return nil
}

func (s *WebhookService) ListLogs(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]domain.WebhookJob, int, error) {
	jobs, err := s.logs.ListByMerchant(ctx, merchantID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("ListLogs: %w", err)
	}
	total, err := s.logs.CountByMerchant(ctx, merchantID)
	if err != nil {
		return nil, 0, fmt.Errorf("ListLogs: %w", err)
	}
	return jobs, total, nil
}
