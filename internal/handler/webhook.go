package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/zestpay/gateway/internal/auth"
	"github.com/zestpay/gateway/internal/domain"
	"github.com/zestpay/gateway/internal/service"
)

type WebhookHandler struct {
	webhooks *service.WebhookService
}

func NewWebhookHandler(webhooks *service.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks}
}

type webhookConfigRequest struct {
	WebhookURL string `json:"webhook_url"`
}

type webhookConfigResponse struct {
	WebhookURL *string `json:"webhook_url"`
}

type webhookLogResponse struct {
	ID             string    `json:"id"`
	EventType      string    `json:"event_type"`
	PaymentID      *string   `json:"payment_id,omitempty"`
	RefundID       *string   `json:"refund_id,omitempty"`
	OrderID        *string   `json:"order_id,omitempty"`
	Status         string    `json:"status"`
	AttemptCount   int       `json:"attempt_count"`
	MaxAttempts    int       `json:"max_attempts"`
	NextAttemptAt  time.Time `json:"next_attempt_at"`
	ResponseStatus *int      `json:"response_status,omitempty"`
	ErrorMessage   *string   `json:"error_message,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toWebhookLogResponse(job *domain.WebhookJob) webhookLogResponse {
	return webhookLogResponse{
		ID:             job.ID,
		EventType:      string(job.EventType),
		PaymentID:      job.PaymentID,
		RefundID:       job.RefundID,
		OrderID:        job.OrderID,
		Status:         string(job.Status),
		AttemptCount:   job.AttemptCount,
		MaxAttempts:    job.MaxAttempts,
		NextAttemptAt:  job.NextAttemptAt,
		ResponseStatus: job.ResponseStatus,
		ErrorMessage:   job.ErrorMessage,
		CreatedAt:      job.CreatedAt,
		UpdatedAt:      job.UpdatedAt,
	}
}

func (h *WebhookHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	merchant, ok := auth.MerchantFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrAuthentication, nil)
		return
	}

	url, err := h.webhooks.GetConfig(r.Context(), merchant.ID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, webhookConfigResponse{WebhookURL: url})
}

func (h *WebhookHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	merchant, ok := auth.MerchantFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrAuthentication, nil)
		return
	}

	var req webhookConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if err := h.webhooks.UpdateConfig(r.Context(), merchant.ID, req.WebhookURL); err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, webhookConfigResponse{WebhookURL: &req.WebhookURL})
}

func (h *WebhookHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	merchant, ok := auth.MerchantFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrAuthentication, nil)
		return
	}

	limit, skip := pageParams(r)
	jobs, total, err := h.webhooks.ListLogs(r.Context(), merchant.ID, limit, skip)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	items := make([]webhookLogResponse, 0, len(jobs))
	for i := range jobs {
		items = append(items, toWebhookLogResponse(&jobs[i]))
	}
	RespondSuccess(w, http.StatusOK, listEnvelope{Items: items, Total: total, Limit: limit, Skip: skip})
}
