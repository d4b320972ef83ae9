package domain

import (
	"time"

	"github.com/google/uuid"
)

// Merchant is the directory entry the core reads for credential checks
// and webhook delivery. The core never writes merchants; registration
// belongs to a separate surface.
type Merchant struct {
	ID         uuid.UUID
	Name       string
	Email      string
	APIKey     string
	APISecret  string
	WebhookURL *string
	IsActive   bool
	CreatedAt  time.Time
}
