package domain

import (
	"time"

	"github.com/google/uuid"
)

type WebhookEventType string

const (
	// EventPaymentCreated is emitted when a payment reaches its
	// terminal state. The name is part of the wire contract and
	// predates the status-change semantics, so it stays.
	EventPaymentCreated WebhookEventType = "payment.created"
	EventRefundCreated  WebhookEventType = "refund.created"
)

type WebhookJobStatus string

const (
	WebhookStatusPending   WebhookJobStatus = "pending"
	WebhookStatusDelivered WebhookJobStatus = "delivered"
	WebhookStatusFailed    WebhookJobStatus = "failed"
)

// WebhookJob is one durable outbound delivery. Rows double as the
// delivery audit trail and are never deleted.
type WebhookJob struct {
	ID             string
	MerchantID     uuid.UUID
	EventType      WebhookEventType
	PaymentID      *string
	RefundID       *string
	OrderID        *string
	Status         WebhookJobStatus
	AttemptCount   int
	MaxAttempts    int
	NextAttemptAt  time.Time
	ResponseStatus *int
	ErrorMessage   *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PaymentEventPayload is the wire body for payment.created. The field
// set is fixed; the entity is re-read at delivery time so the payload
// carries the payment's final state.
type PaymentEventPayload struct {
	ID               string           `json:"id"`
	Event            WebhookEventType `json:"event"`
	Timestamp        string           `json:"timestamp"`
	OrderID          string           `json:"order_id"`
	Amount           int64            `json:"amount"`
	Currency         string           `json:"currency"`
	Method           PaymentMethod    `json:"method"`
	Status           PaymentStatus    `json:"status"`
	VPA              *string          `json:"vpa,omitempty"`
	CardNetwork      *string          `json:"card_network,omitempty"`
	CardLast4        *string          `json:"card_last4,omitempty"`
	ErrorCode        *string          `json:"error_code,omitempty"`
	ErrorDescription *string          `json:"error_description,omitempty"`
}

// RefundEventPayload is the wire body for refund.created.
type RefundEventPayload struct {
	ID        string           `json:"id"`
	Event     WebhookEventType `json:"event"`
	Timestamp string           `json:"timestamp"`
	PaymentID string           `json:"payment_id"`
	OrderID   string           `json:"order_id"`
	Amount    int64            `json:"amount"`
	Currency  string           `json:"currency"`
	Reason    string           `json:"reason"`
	Status    RefundStatus     `json:"status"`
}
