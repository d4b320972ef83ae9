package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zestpay/gateway/internal/domain"
)

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
}

type APIError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Details     any    `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondSuccess(w http.ResponseWriter, status int, data any) {
	RespondJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Error:   nil,
	})
}

func RespondAppError(w http.ResponseWriter, appErr *AppError, details any) {
	RespondJSON(w, appErr.Status, APIResponse{
		Success: false,
		Data:    nil,
		Error: &APIError{
			Code:        appErr.Code,
			Description: appErr.Message,
			Details:     details,
		},
	})
}

func RespondValidationError(w http.ResponseWriter, fields []FieldError) {
	RespondAppError(w, ErrValidationFailed, fields)
}

func RespondDomainError(w http.ResponseWriter, err error) {
	var appErr *AppError

	switch {
	case errors.Is(err, domain.ErrNotFound):
		appErr = ErrNotFound
	case errors.Is(err, domain.ErrAmountTooLow):
		appErr = ErrAmountTooLow
	case errors.Is(err, domain.ErrInvalidAmount):
		appErr = ErrInvalidAmount
	case errors.Is(err, domain.ErrInvalidMethod):
		appErr = ErrInvalidMethod
	case errors.Is(err, domain.ErrMissingCardFields):
		appErr = ErrMissingCardFields
	case errors.Is(err, domain.ErrInvalidVPA):
		appErr = ErrInvalidVPA
	case errors.Is(err, domain.ErrInvalidCard):
		appErr = ErrInvalidCard
	case errors.Is(err, domain.ErrExpiredCard):
		appErr = ErrExpiredCard
	case errors.Is(err, domain.ErrPaymentNotRefundable):
		appErr = ErrPaymentNotRefundable
	case errors.Is(err, domain.ErrExceedsBalance):
		appErr = ErrExceedsBalance
	case errors.Is(err, domain.ErrIdempotencyInFlight):
		appErr = ErrIdempotencyInProgress
	case errors.Is(err, domain.ErrInvalidWebhookURL):
		appErr = ErrInvalidWebhookURL
	case errors.Is(err, domain.ErrInvalidRequest):
		appErr = ErrInvalidRequest
	default:
		slog.Error("unhandled domain error", "error", err)
		appErr = ErrInternal
	}

	RespondAppError(w, appErr, nil)
}
