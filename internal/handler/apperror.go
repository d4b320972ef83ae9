package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrAuthentication        = &AppError{http.StatusUnauthorized, "AUTHENTICATION_ERROR", "Invalid API credentials"}
	ErrInvalidRequest        = &AppError{http.StatusBadRequest, "BAD_REQUEST_ERROR", "Invalid request body"}
	ErrValidationFailed      = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrNotFound              = &AppError{http.StatusNotFound, "NOT_FOUND_ERROR", "Resource not found"}
	ErrInternal              = &AppError{http.StatusInternalServerError, "SERVER_ERROR", "Internal server error"}
	ErrAmountTooLow          = &AppError{http.StatusBadRequest, "BAD_REQUEST_ERROR", "Amount below the minimum order amount"}
	ErrInvalidAmount         = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero"}
	ErrInvalidMethod         = &AppError{http.StatusBadRequest, "BAD_REQUEST_ERROR", "Invalid payment method"}
	ErrMissingCardFields     = &AppError{http.StatusBadRequest, "BAD_REQUEST_ERROR", "Missing required card fields"}
	ErrInvalidVPA            = &AppError{http.StatusBadRequest, "INVALID_VPA", "Invalid VPA format"}
	ErrInvalidCard           = &AppError{http.StatusBadRequest, "INVALID_CARD", "Invalid card number"}
	ErrExpiredCard           = &AppError{http.StatusBadRequest, "EXPIRED_CARD", "Card has expired or invalid expiry date"}
	ErrPaymentNotRefundable  = &AppError{http.StatusBadRequest, "INVALID_STATE", "Only successful payments can be refunded"}
	ErrExceedsBalance        = &AppError{http.StatusBadRequest, "EXCEEDS_BALANCE", "Refund amount exceeds remaining refundable balance"}
	ErrIdempotencyInProgress = &AppError{http.StatusConflict, "IDEMPOTENCY_IN_PROGRESS", "An identical request is currently being processed"}
	ErrInvalidWebhookURL     = &AppError{http.StatusBadRequest, "BAD_REQUEST_ERROR", "Valid webhook_url (http/https) is required"}
)
