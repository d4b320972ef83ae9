package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zestpay/gateway/internal/domain"
	"github.com/zestpay/gateway/internal/logging"
)

type refundPaymentRepo interface {
	GetForUpdate(ctx context.Context, tx *sql.Tx, id string, merchantID uuid.UUID) (*domain.Payment, error)
}

type refundRepo interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)
	SumNonFailed(ctx context.Context, tx *sql.Tx, paymentID string) (int64, error)
	Create(ctx context.Context, tx *sql.Tx, refund *domain.Refund) error
	GetByID(ctx context.Context, id string, merchantID uuid.UUID) (*domain.Refund, error)
	List(ctx context.Context, merchantID uuid.UUID, paymentID *string, limit, offset int) ([]domain.Refund, error)
	Count(ctx context.Context, merchantID uuid.UUID, paymentID *string) (int, error)
}

type refundEnqueuer interface {
	EnqueueRefundEvent(ctx context.Context, merchantID uuid.UUID, refundID, orderID string) error
}

type RefundService struct {
	payments   refundPaymentRepo
	refunds    refundRepo
	dispatcher refundEnqueuer
}

func NewRefundService(payments refundPaymentRepo, refunds refundRepo, dispatcher refundEnqueuer) *RefundService {
	return &RefundService{payments: payments, refunds: refunds, dispatcher: dispatcher}
}

type CreateRefundRequest struct {
	MerchantID uuid.UUID
	PaymentID  string
	Amount     *int64
	Reason     string
}

// CreateRefund books a refund against a successful payment. The
// payment row lock taken for the duration of the transaction
// serializes the balance check against the insert: two concurrent
// refunds on one payment cannot both pass the check.
func (s *RefundService) CreateRefund(ctx context.Context, req CreateRefundRequest) (*domain.Refund, error) {
	tx, err := s.refunds.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("CreateRefund: %w", err)
	}
	defer tx.Rollback()

	payment, err := s.payments.GetForUpdate(ctx, tx, req.PaymentID, req.MerchantID)
	if err != nil {
		return nil, fmt.Errorf("CreateRefund: %w", err)
	}

	if payment.Status != domain.PaymentStatusSuccess {
		return nil, fmt.Errorf("CreateRefund: %w", domain.ErrPaymentNotRefundable)
	}

	amount := payment.Amount
	if req.Amount != nil {
		amount = *req.Amount
	}
	if amount <= 0 {
		return nil, fmt.Errorf("CreateRefund: %w", domain.ErrInvalidAmount)
	}

	alreadyRefunded, err := s.refunds.SumNonFailed(ctx, tx, payment.ID)
	if err != nil {
		return nil, fmt.Errorf("CreateRefund: %w", err)
	}
	if amount > payment.Amount-alreadyRefunded {
		return nil, fmt.Errorf("CreateRefund: %w", domain.ErrExceedsBalance)
	}

	reason := req.Reason
	if reason == "" {
		reason = "Customer request"
	}

	refund := &domain.Refund{
		ID:         domain.NewRefundID(),
		PaymentID:  payment.ID,
		OrderID:    payment.OrderID,
		MerchantID: req.MerchantID,
		Amount:     amount,
		Currency:   payment.Currency,
		Reason:     reason,
		Status:     domain.RefundStatusCreated,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.refunds.Create(ctx, tx, refund); err != nil {
		return nil, fmt.Errorf("CreateRefund: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("CreateRefund: commit: %w", err)
	}

	log := logging.FromContext(ctx)
	log.Info("refund created",
		"refund_id", refund.ID,
		"payment_id", refund.PaymentID,
		"amount", refund.Amount,
	)

	// The refund is committed; a lost enqueue is a missed notification,
	// not a broken ledger.
	if err := s.dispatcher.EnqueueRefundEvent(ctx, req.MerchantID, refund.ID, refund.OrderID); err != nil {
		log.Error("failed to enqueue refund webhook", "refund_id", refund.ID, "error", err)
	}

	return refund, nil
}

func (s *RefundService) GetRefund(ctx context.Context, id string, merchantID uuid.UUID) (*domain.Refund, error) {
	ref, err := s.refunds.GetByID(ctx, id, merchantID)
	if err != nil {
		return nil, fmt.Errorf("GetRefund: %w", err)
	}
	return ref, nil
}

func (s *RefundService) ListRefunds(ctx context.Context, merchantID uuid.UUID, paymentID *string, limit, offset int) ([]domain.Refund, int, error) {
	refunds, err := s.refunds.List(ctx, merchantID, paymentID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("ListRefunds: %w", err)
	}
	total, err := s.refunds.Count(ctx, merchantID, paymentID)
	if err != nil {
		return nil, 0, fmt.Errorf("ListRefunds: %w", err)
	}
	return refunds, total, nil
}
