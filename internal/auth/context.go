package auth

import (
	"context"

	"github.com/zestpay/gateway/internal/domain"
)

type merchantKey struct{}

func WithMerchant(ctx context.Context, m *domain.Merchant) context.Context {
	return context.WithValue(ctx, merchantKey{}, m)
}

func MerchantFromContext(ctx context.Context) (*domain.Merchant, bool) {
	m, ok := ctx.Value(merchantKey{}).(*domain.Merchant)
	return m, ok
}
