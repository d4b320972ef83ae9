package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zestpay/gateway/internal/domain"
	"github.com/zestpay/gateway/internal/logging"
	"github.com/zestpay/gateway/internal/validate"
)

type paymentOrderRepo interface {
	GetByID(ctx context.Context, id string, merchantID uuid.UUID) (*domain.Order, error)
}

type paymentRepo interface {
	Create(ctx context.Context, p *domain.Payment) error
	GetByID(ctx context.Context, id string, merchantID uuid.UUID) (*domain.Payment, error)
	MarkSucceeded(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, errorCode, errorDescription string) error
}

type paymentEnqueuer interface {
	EnqueuePaymentEvent(ctx context.Context, merchantID uuid.UUID, paymentID, orderID string) error
}

// PaymentService creates payments in processing state and drives each
// through its single terminal transition via the authorizer.
type PaymentService struct {
	orders     paymentOrderRepo
	payments   paymentRepo
	dispatcher paymentEnqueuer
	authorizer *Authorizer
	wg         sync.WaitGroup
}

func NewPaymentService(orders paymentOrderRepo, payments paymentRepo, dispatcher paymentEnqueuer, authorizer *Authorizer) *PaymentService {
	return &PaymentService{
		orders:     orders,
		payments:   payments,
		dispatcher: dispatcher,
		authorizer: authorizer,
	}
}

type CardDetails struct {
	Number      string
	ExpiryMonth string
	ExpiryYear  string
	CVV         string
	HolderName  string
}

type CreatePaymentRequest struct {
	MerchantID uuid.UUID
	OrderID    string
	Method     string
	VPA        string
	Card       *CardDetails
}

// CreatePayment validates the instrument, books the payment in
// processing state, and starts authorization in the background. The
// authorization outcome is data, not a request error: callers poll
// GetPayment for the terminal status.
func (s *PaymentService) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*domain.Payment, error) {
	order, err := s.orders.GetByID(ctx, req.OrderID, req.MerchantID)
	if err != nil {
		return nil, fmt.Errorf("CreatePayment: %w", err)
	}

	now := time.Now().UTC()
	p := &domain.Payment{
		ID:         domain.NewPaymentID(),
		OrderID:    order.ID,
		MerchantID: req.MerchantID,
		Amount:     order.Amount,
		Currency:   order.Currency,
		Status:     domain.PaymentStatusProcessing,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	switch domain.PaymentMethod(req.Method) {
	case domain.PaymentMethodUPI:
		if !validate.VPA(req.VPA) {
			return nil, fmt.Errorf("CreatePayment: %w", domain.ErrInvalidVPA)
		}
		p.Method = domain.PaymentMethodUPI
		vpa := req.VPA
		p.VPA = &vpa
	case domain.PaymentMethodCard:
		card := req.Card
		if card == nil || card.Number == "" || card.ExpiryMonth == "" || card.ExpiryYear == "" || card.CVV == "" || card.HolderName == "" {
			return nil, fmt.Errorf("CreatePayment: %w", domain.ErrMissingCardFields)
		}
		if !validate.CardNumber(card.Number) {
			return nil, fmt.Errorf("CreatePayment: %w", domain.ErrInvalidCard)
		}
		if !validate.Expiry(card.ExpiryMonth, card.ExpiryYear) {
			return nil, fmt.Errorf("CreatePayment: %w", domain.ErrExpiredCard)
		}
		p.Method = domain.PaymentMethodCard
		network := string(validate.DetectNetwork(card.Number))
		last4 := validate.Last4(card.Number)
		p.CardNetwork = &network
		p.CardLast4 = &last4
	default:
		return nil, fmt.Errorf("CreatePayment: %w", domain.ErrInvalidMethod)
	}

	if err := s.payments.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("CreatePayment: %w", err)
	}

	logging.FromContext(ctx).Info("payment created",
		"payment_id", p.ID,
		"order_id", p.OrderID,
		"method", p.Method,
		"amount", p.Amount,
	)

	// Authorization outlives the request; WithoutCancel keeps the
	// request-scoped logger while detaching from its deadline.
	s.wg.Add(1)
	go s.authorize(context.WithoutCancel(ctx), p.ID, p.MerchantID, p.OrderID, p.Method)

	return p, nil
}

func (s *PaymentService) authorize(ctx context.Context, paymentID string, merchantID uuid.UUID, orderID string, method domain.PaymentMethod) {
	defer s.wg.Done()
	log := logging.FromContext(ctx)

	time.Sleep(s.authorizer.Delay())

	var err error
	if s.authorizer.Outcome(method) {
		err = s.payments.MarkSucceeded(ctx, paymentID)
	} else {
		err = s.payments.MarkFailed(ctx, paymentID, domain.ErrCodePaymentFailed, "Payment processing failed")
	}
	if err != nil {
		if errors.Is(err, domain.ErrPaymentTerminal) {
			log.Info("payment already terminal, skipping transition", "payment_id", paymentID)
			return
		}
		log.Error("payment transition failed", "payment_id", paymentID, "error", err)
		return
	}

	log.Info("payment authorized", "payment_id", paymentID)

	if err := s.dispatcher.EnqueuePaymentEvent(ctx, merchantID, paymentID, orderID); err != nil {
		log.Error("failed to enqueue payment webhook", "payment_id", paymentID, "error", err)
	}
}

func (s *PaymentService) GetPayment(ctx context.Context, id string, merchantID uuid.UUID) (*domain.Payment, error) {
	p, err := s.payments.GetByID(ctx, id, merchantID)
	if err != nil {
		return nil, fmt.Errorf("GetPayment: %w", err)
	}
	return p, nil
}

// Drain blocks until in-flight authorizations finish. Called during
// graceful shutdown.
func (s *PaymentService) Drain() {
	s.wg.Wait()
}
