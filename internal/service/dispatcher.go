package service

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/zestpay/gateway/internal/config"
	"github.com/zestpay/gateway/internal/domain"
	"github.com/zestpay/gateway/internal/logging"
)

type dispatcherMerchantRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error)
}

type dispatcherPaymentRepo interface {
	Get(ctx context.Context, id string) (*domain.Payment, error)
}

type dispatcherRefundRepo interface {
	Get(ctx context.Context, id string) (*domain.Refund, error)
}

type webhookJobRepo interface {
	Create(ctx context.Context, job *domain.WebhookJob) error
	ClaimDue(ctx context.Context, limit int, lease time.Duration) ([]domain.WebhookJob, error)
	MarkDelivered(ctx context.Context, id string, responseStatus int) error
	MarkFailed(ctx context.Context, id string, responseStatus *int, errorMessage string) error
	ScheduleRetry(ctx context.Context, id string, responseStatus *int, errorMessage string, nextAttemptAt time.Time) error
}

// Dispatcher turns domain events into durable webhook jobs and delivers
// them with HMAC-signed POSTs. Delivery is at-least-once: a job only
// leaves pending through MarkDelivered or MarkFailed, and a crashed
// worker's claim lease expires back into the queue.
type Dispatcher struct {
	cfg       config.DispatcherConfig
	merchants dispatcherMerchantRepo
	payments  dispatcherPaymentRepo
	refunds   dispatcherRefundRepo
	jobs      webhookJobRepo
	client    *http.Client
}

func NewDispatcher(cfg config.DispatcherConfig, merchants dispatcherMerchantRepo, payments dispatcherPaymentRepo, refunds dispatcherRefundRepo, jobs webhookJobRepo) *Dispatcher {
	return &Dispatcher{
		cfg:       cfg,
		merchants: merchants,
		payments:  payments,
		refunds:   refunds,
		jobs:      jobs,
		client:    &http.Client{Timeout: cfg.Timeout},
	}
}

// EnqueuePaymentEvent records a payment.created delivery job for the
// merchant. Merchants without a configured webhook URL get no job at
// all rather than a row that can never deliver.
func (d *Dispatcher) EnqueuePaymentEvent(ctx context.Context, merchantID uuid.UUID, paymentID, orderID string) error {
	return d.enqueue(ctx, merchantID, domain.EventPaymentCreated, &paymentID, nil, &orderID)
}

func (d *Dispatcher) EnqueueRefundEvent(ctx context.Context, merchantID uuid.UUID, refundID, orderID string) error {
	return d.enqueue(ctx, merchantID, domain.EventRefundCreated, nil, &refundID, &orderID)
}

func (d *Dispatcher) enqueue(ctx context.Context, merchantID uuid.UUID, event domain.WebhookEventType, paymentID, refundID, orderID *string) error {
	merchant, err := d.merchants.GetByID(ctx, merchantID)
	if err != nil {
		return fmt.Errorf("enqueue: %w", err)
	}
	if merchant.WebhookURL == nil || *merchant.WebhookURL == "" {
		logging.FromContext(ctx).Debug("merchant has no webhook url, skipping", "merchant_id", merchantID, "event", event)
		return nil
	}

	now := time.Now().UTC()
	job := &domain.WebhookJob{
		ID:            domain.NewWebhookID(),
		MerchantID:    merchantID,
		EventType:     event,
		PaymentID:     paymentID,
		RefundID:      refundID,
		OrderID:       orderID,
		Status:        domain.WebhookStatusPending,
		AttemptCount:  0,
		MaxAttempts:   d.cfg.MaxAttempts,
		NextAttemptAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := d.jobs.Create(ctx, job); err != nil {
		return fmt.Errorf("enqueue: %w", err)
	}

	logging.FromContext(ctx).Info("webhook job enqueued", "webhook_id", job.ID, "event", event)
	return nil
}

// ClaimDue hands the worker pool a batch of deliverable jobs.
func (d *Dispatcher) ClaimDue(ctx context.Context, limit int) ([]domain.WebhookJob, error) {
	return d.jobs.ClaimDue(ctx, limit, d.cfg.ClaimLease)
}

// Deliver attempts one claimed job. The payload is rebuilt from the
// entity's current row so late deliveries carry final state, not the
// state at enqueue time. Non-2xx and transport errors count against
// MaxAttempts; once exhausted the job is marked failed permanently.
func (d *Dispatcher) Deliver(ctx context.Context, job domain.WebhookJob) error {
	log := logging.FromContext(ctx).With("webhook_id", job.ID, "event", job.EventType, "attempt", job.AttemptCount)

	merchant, err := d.merchants.GetByID(ctx, job.MerchantID)
	if err != nil {
		return fmt.Errorf("Deliver: %w", err)
	}
	if merchant.WebhookURL == nil || *merchant.WebhookURL == "" {
		// URL was cleared after enqueue. Nothing left to deliver to.
		return d.jobs.MarkFailed(ctx, job.ID, nil, "webhook url removed")
	}

	body, err := d.buildPayload(ctx, job)
	if err != nil {
		return fmt.Errorf("Deliver: %w", err)
	}

	status, deliveryErr := d.post(ctx, *merchant.WebhookURL, merchant.APISecret, body)
	if deliveryErr == nil {
		log.Info("webhook delivered", "response_status", status)
		return d.jobs.MarkDelivered(ctx, job.ID, status)
	}

	var respStatus *int
	if status != 0 {
		respStatus = &status
	}

	if job.AttemptCount >= job.MaxAttempts {
		log.Warn("webhook delivery exhausted", "error", deliveryErr)
		return d.jobs.MarkFailed(ctx, job.ID, respStatus, deliveryErr.Error())
	}

	next := time.Now().UTC().Add(d.backoff(job.AttemptCount))
	log.Info("webhook delivery failed, retry scheduled", "error", deliveryErr, "next_attempt_at", next)
	return d.jobs.ScheduleRetry(ctx, job.ID, respStatus, deliveryErr.Error(), next)
}

func (d *Dispatcher) buildPayload(ctx context.Context, job domain.WebhookJob) ([]byte, error) {
	ts := time.Now().UTC().Format(time.RFC3339)

	switch job.EventType {
	case domain.EventPaymentCreated:
		if job.PaymentID == nil {
			return nil, errors.New("buildPayload: payment job without payment_id")
		}
		p, err := d.payments.Get(ctx, *job.PaymentID)
		if err != nil {
			return nil, fmt.Errorf("buildPayload: %w", err)
		}
		return json.Marshal(domain.PaymentEventPayload{
			ID:               p.ID,
			Event:            job.EventType,
			Timestamp:        ts,
			OrderID:          p.OrderID,
			Amount:           p.Amount,
			Currency:         p.Currency,
			Method:           p.Method,
			Status:           p.Status,
			VPA:              p.VPA,
			CardNetwork:      p.CardNetwork,
			CardLast4:        p.CardLast4,
			ErrorCode:        p.ErrorCode,
			ErrorDescription: p.ErrorDescription,
		})
	case domain.EventRefundCreated:
		if job.RefundID == nil {
			return nil, errors.New("buildPayload: refund job without refund_id")
		}
		ref, err := d.refunds.Get(ctx, *job.RefundID)
		if err != nil {
			return nil, fmt.Errorf("buildPayload: %w", err)
		}
		return json.Marshal(domain.RefundEventPayload{
			ID:        ref.ID,
			Event:     job.EventType,
			Timestamp: ts,
			PaymentID: ref.PaymentID,
			OrderID:   ref.OrderID,
			Amount:    ref.Amount,
			Currency:  ref.Currency,
			Reason:    ref.Reason,
			Status:    ref.Status,
		})
	default:
		return nil, fmt.Errorf("buildPayload: unknown event type %q", job.EventType)
	}
}

// post returns the HTTP status and a nil error only for 2xx responses.
// A zero status means the request never produced a response.
func (d *Dispatcher) post(ctx context.Context, url, secret string, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("post: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", Sign(secret, body))

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, fmt.Errorf("post: endpoint returned %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

// backoff returns the wait before the next attempt after the given
// attempt number has failed: base, 2·base, 4·base, ...
func (d *Dispatcher) backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return d.cfg.BackoffBase << (attempt - 1)
}

// Sign computes the hex HMAC-SHA256 of the payload under the
// merchant's API secret. Receivers recompute it over the raw request
// body to authenticate the sender.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature matches payload under
// secret, in constant time.
func VerifySignature(secret string, payload []byte, signature string) bool {
	expected := Sign(secret, payload)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
