package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/zestpay/gateway/internal/auth"
	"github.com/zestpay/gateway/internal/domain"
	"github.com/zestpay/gateway/internal/service"
)

type PaymentHandler struct {
	payments *service.PaymentService
}

func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type cardRequest struct {
	Number      string `json:"number"`
	ExpiryMonth string `json:"expiry_month"`
	ExpiryYear  string `json:"expiry_year"`
	CVV         string `json:"cvv"`
	HolderName  string `json:"holder_name"`
}

type createPaymentRequest struct {
	OrderID string       `json:"order_id"`
	Method  string       `json:"method"`
	VPA     string       `json:"vpa"`
	Card    *cardRequest `json:"card"`
}

type paymentResponse struct {
	ID               string    `json:"id"`
	OrderID          string    `json:"order_id"`
	Amount           int64     `json:"amount"`
	Currency         string    `json:"currency"`
	Method           string    `json:"method"`
	Status           string    `json:"status"`
	VPA              *string   `json:"vpa,omitempty"`
	CardNetwork      *string   `json:"card_network,omitempty"`
	CardLast4        *string   `json:"card_last4,omitempty"`
	ErrorCode        *string   `json:"error_code,omitempty"`
	ErrorDescription *string   `json:"error_description,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toPaymentResponse(p *domain.Payment) paymentResponse {
	return paymentResponse{
		ID:               p.ID,
		OrderID:          p.OrderID,
		Amount:           p.Amount,
		Currency:         p.Currency,
		Method:           string(p.Method),
		Status:           string(p.Status),
		VPA:              p.VPA,
		CardNetwork:      p.CardNetwork,
		CardLast4:        p.CardLast4,
		ErrorCode:        p.ErrorCode,
		ErrorDescription: p.ErrorDescription,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	merchant, ok := auth.MerchantFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrAuthentication, nil)
		return
	}

	var req createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if req.OrderID == "" {
		RespondValidationError(w, []FieldError{{Field: "order_id", Message: "order_id is required"}})
		return
	}

	svcReq := service.CreatePaymentRequest{
		MerchantID: merchant.ID,
		OrderID:    req.OrderID,
		Method:     req.Method,
		VPA:        req.VPA,
	}
	if req.Card != nil {
		svcReq.Card = &service.CardDetails{
			Number:      req.Card.Number,
			ExpiryMonth: req.Card.ExpiryMonth,
			ExpiryYear:  req.Card.ExpiryYear,
			CVV:         req.Card.CVV,
			HolderName:  req.Card.HolderName,
		}
	}

	payment, err := h.payments.CreatePayment(r.Context(), svcReq)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toPaymentResponse(payment))
}

func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	merchant, ok := auth.MerchantFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrAuthentication, nil)
		return
	}

	payment, err := h.payments.GetPayment(r.Context(), r.PathValue("id"), merchant.ID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toPaymentResponse(payment))
}
