package domain

import (
	"time"

	"github.com/google/uuid"
)

type PaymentMethod string

const (
	PaymentMethodUPI  PaymentMethod = "upi"
	PaymentMethodCard PaymentMethod = "card"
)

type PaymentStatus string

const (
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusSuccess    PaymentStatus = "success"
	PaymentStatusFailed     PaymentStatus = "failed"
)

// ErrCodePaymentFailed is the error_code recorded on a failed
// authorization.
const ErrCodePaymentFailed = "PAYMENT_FAILED"

type Payment struct {
	ID               string
	OrderID          string
	MerchantID       uuid.UUID
	Amount           int64
	Currency         string
	Method           PaymentMethod
	VPA              *string
	CardNetwork      *string
	CardLast4        *string
	Status           PaymentStatus
	ErrorCode        *string
	ErrorDescription *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Terminal reports whether the payment has taken its one allowed
// transition out of processing.
func (p *Payment) Terminal() bool {
	return p.Status == PaymentStatusSuccess || p.Status == PaymentStatusFailed
}
