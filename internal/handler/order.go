package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/zestpay/gateway/internal/auth"
	"github.com/zestpay/gateway/internal/domain"
	"github.com/zestpay/gateway/internal/service"
)

type OrderHandler struct {
	orders *service.OrderService
}

func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type createOrderRequest struct {
	Amount   int64           `json:"amount"`
	Currency string          `json:"currency"`
	Receipt  *string         `json:"receipt"`
	Notes    json.RawMessage `json:"notes"`
}

type orderResponse struct {
	ID        string          `json:"id"`
	Amount    int64           `json:"amount"`
	Currency  string          `json:"currency"`
	Receipt   *string         `json:"receipt"`
	Notes     json.RawMessage `json:"notes"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

func toOrderResponse(o *domain.Order) orderResponse {
	return orderResponse{
		ID:        o.ID,
		Amount:    o.Amount,
		Currency:  o.Currency,
		Receipt:   o.Receipt,
		Notes:     o.Notes,
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt,
	}
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	merchant, ok := auth.MerchantFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrAuthentication, nil)
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	order, err := h.orders.CreateOrder(r.Context(), service.CreateOrderRequest{
		MerchantID: merchant.ID,
		Amount:     req.Amount,
		Currency:   req.Currency,
		Receipt:    req.Receipt,
		Notes:      req.Notes,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toOrderResponse(order))
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	merchant, ok := auth.MerchantFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrAuthentication, nil)
		return
	}

	order, err := h.orders.GetOrder(r.Context(), r.PathValue("id"), merchant.ID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	merchant, ok := auth.MerchantFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrAuthentication, nil)
		return
	}

	limit, skip := pageParams(r)
	orders, total, err := h.orders.ListOrders(r.Context(), merchant.ID, limit, skip)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	items := make([]orderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, toOrderResponse(&orders[i]))
	}
	RespondSuccess(w, http.StatusOK, listEnvelope{Items: items, Total: total, Limit: limit, Skip: skip})
}
