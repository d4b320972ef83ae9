package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zestpay/gateway/internal/domain"
	"github.com/zestpay/gateway/internal/logging"
)

type orderRepo interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string, merchantID uuid.UUID) (*domain.Order, error)
	List(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]domain.Order, error)
	Count(ctx context.Context, merchantID uuid.UUID) (int, error)
}

type OrderService struct {
	orders    orderRepo
	minAmount int64
}

func NewOrderService(orders orderRepo, minAmount int64) *OrderService {
	return &OrderService{orders: orders, minAmount: minAmount}
}

type CreateOrderRequest struct {
	MerchantID uuid.UUID
	Amount     int64
	Currency   string
	Receipt    *string
	Notes      json.RawMessage
}

func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*domain.Order, error) {
	if req.Amount < s.minAmount {
		return nil, fmt.Errorf("CreateOrder: %w", domain.ErrAmountTooLow)
	}

	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:         domain.NewOrderID(),
		MerchantID: req.MerchantID,
		Amount:     req.Amount,
		Currency:   currency,
		Receipt:    req.Receipt,
		Notes:      req.Notes,
		Status:     domain.OrderStatusCreated,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("CreateOrder: %w", err)
	}

	logging.FromContext(ctx).Info("order created",
		"order_id", order.ID,
		"amount", order.Amount,
		"currency", order.Currency,
	)
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id string, merchantID uuid.UUID) (*domain.Order, error) {
	o, err := s.orders.GetByID(ctx, id, merchantID)
	if err != nil {
		return nil, fmt.Errorf("GetOrder: %w", err)
	}
	return o, nil
}

func (s *OrderService) ListOrders(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]domain.Order, int, error) {
	orders, err := s.orders.List(ctx, merchantID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("ListOrders: %w", err)
	}
	total, err := s.orders.Count(ctx, merchantID)
	if err != nil {
		return nil, 0, fmt.Errorf("ListOrders: %w", err)
	}
	return orders, total, nil
}
