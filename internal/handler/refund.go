package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/zestpay/gateway/internal/auth"
	"github.com/zestpay/gateway/internal/domain"
	"github.com/zestpay/gateway/internal/service"
)

type RefundHandler struct {
	refunds *service.RefundService
}

func NewRefundHandler(refunds *service.RefundService) *RefundHandler {
	return &RefundHandler{refunds: refunds}
}

type createRefundRequest struct {
	PaymentID string `json:"payment_id"`
	Amount    *int64 `json:"amount"`
	Reason    string `json:"reason"`
}

type refundResponse struct {
	ID        string    `json:"id"`
	PaymentID string    `json:"payment_id"`
	OrderID   string    `json:"order_id"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	Reason    string    `json:"reason"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func toRefundResponse(ref *domain.Refund) refundResponse {
	return refundResponse{
		ID:        ref.ID,
		PaymentID: ref.PaymentID,
		OrderID:   ref.OrderID,
		Amount:    ref.Amount,
		Currency:  ref.Currency,
		Reason:    ref.Reason,
		Status:    string(ref.Status),
		CreatedAt: ref.CreatedAt,
	}
}

func (h *RefundHandler) Create(w http.ResponseWriter, r *http.Request) {
	merchant, ok := auth.MerchantFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrAuthentication, nil)
		return
	}

	var req createRefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if req.PaymentID == "" {
		RespondValidationError(w, []FieldError{{Field: "payment_id", Message: "payment_id is required"}})
		return
	}

	refund, err := h.refunds.CreateRefund(r.Context(), service.CreateRefundRequest{
		MerchantID: merchant.ID,
		PaymentID:  req.PaymentID,
		Amount:     req.Amount,
		Reason:     req.Reason,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toRefundResponse(refund))
}

func (h *RefundHandler) Get(w http.ResponseWriter, r *http.Request) {
	merchant, ok := auth.MerchantFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrAuthentication, nil)
		return
	}

	refund, err := h.refunds.GetRefund(r.Context(), r.PathValue("id"), merchant.ID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toRefundResponse(refund))
}

func (h *RefundHandler) List(w http.ResponseWriter, r *http.Request) {
	merchant, ok := auth.MerchantFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrAuthentication, nil)
		return
	}

	var paymentID *string
	if raw := r.URL.Query().Get("payment_id"); raw != "" {
		paymentID = &raw
	}

	limit, skip := pageParams(r)
	refunds, total, err := h.refunds.ListRefunds(r.Context(), merchant.ID, paymentID, limit, skip)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	items := make([]refundResponse, 0, len(refunds))
	for i := range refunds {
		items = append(items, toRefundResponse(&refunds[i]))
	}
	RespondSuccess(w, http.StatusOK, listEnvelope{Items: items, Total: total, Limit: limit, Skip: skip})
}
