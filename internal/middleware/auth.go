package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/zestpay/gateway/internal/auth"
	"github.com/zestpay/gateway/internal/domain"
	"github.com/zestpay/gateway/internal/handler"
	"github.com/zestpay/gateway/internal/logging"
)

type merchantDirectory interface {
	GetByCredentials(ctx context.Context, apiKey, apiSecret string) (*domain.Merchant, error)
}

// APIKeyAuth resolves the X-Api-Key / X-Api-Secret header pair against
// the merchant directory and rejects unknown or deactivated merchants.
func APIKeyAuth(merchants merchantDirectory) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := r.Header.Get("X-Api-Key")
			apiSecret := r.Header.Get("X-Api-Secret")

			if apiKey == "" || apiSecret == "" {
				handler.RespondAppError(w, handler.ErrAuthentication, nil)
				return
			}

			m, err := merchants.GetByCredentials(r.Context(), apiKey, apiSecret)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					handler.RespondAppError(w, handler.ErrAuthentication, nil)
					return
				}
				logging.FromContext(r.Context()).Error("merchant lookup failed", "error", err)
				handler.RespondAppError(w, handler.ErrInternal, nil)
				return
			}
			if !m.IsActive {
				handler.RespondAppError(w, handler.ErrAuthentication, nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithMerchant(r.Context(), m)))
		})
	}
}
