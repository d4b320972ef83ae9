package domain

import (
	"time"

	"github.com/google/uuid"
)

type RefundStatus string

const (
	RefundStatusCreated   RefundStatus = "created"
	RefundStatusProcessed RefundStatus = "processed"
	RefundStatusFailed    RefundStatus = "failed"
)

// Refund is created against a successful payment. The invariant held
// by the refund ledger: the sum of non-failed refund amounts on a
// payment never exceeds the payment amount.
type Refund struct {
	ID         string
	PaymentID  string
	OrderID    string
	MerchantID uuid.UUID
	Amount     int64
	Currency   string
	Reason     string
	Status     RefundStatus
	CreatedAt  time.Time
}
