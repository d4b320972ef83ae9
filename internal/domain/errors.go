package domain

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidAmount        = errors.New("amount must be greater than zero")
	ErrAmountTooLow         = errors.New("amount below minimum")
	ErrInvalidMethod        = errors.New("invalid payment method")
	ErrInvalidVPA           = errors.New("invalid vpa format")
	ErrInvalidCard          = errors.New("invalid card number")
	ErrExpiredCard          = errors.New("card expired or invalid expiry date")
	ErrMissingCardFields    = errors.New("missing required card fields")
	ErrPaymentNotRefundable = errors.New("only successful payments can be refunded")
	ErrExceedsBalance       = errors.New("refund amount exceeds remaining refundable balance")
	ErrPaymentTerminal      = errors.New("payment already in terminal state")
	ErrWebhookJobDone       = errors.New("webhook job already in terminal state")
	ErrDuplicateKey         = errors.New("duplicate unique key")
	ErrIdempotencyInFlight  = errors.New("identical request currently in progress")
	ErrInvalidWebhookURL    = errors.New("webhook url must be http or https")
	ErrInvalidRequest       = errors.New("invalid request")
)
