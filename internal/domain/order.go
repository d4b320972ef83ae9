package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const OrderStatusCreated OrderStatus = "created"

type Order struct {
	ID         string
	MerchantID uuid.UUID
	Amount     int64
	Currency   string
	Receipt    *string
	Notes      json.RawMessage
	Status     OrderStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
