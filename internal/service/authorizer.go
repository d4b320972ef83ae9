package service

import (
	"math/rand/v2"
	"time"

	"github.com/zestpay/gateway/internal/config"
	"github.com/zestpay/gateway/internal/domain"
)

// Authorizer simulates the acquirer leg of a payment: a processing
// delay followed by a success or failure draw. In deterministic mode
// both are fixed by configuration so tests can steer the outcome.
type Authorizer struct {
	cfg config.EngineConfig
}

func NewAuthorizer(cfg config.EngineConfig) *Authorizer {
	return &Authorizer{cfg: cfg}
}

func (a *Authorizer) Delay() time.Duration {
	if a.cfg.TestMode {
		return a.cfg.TestProcessingDelay
	}
	window := a.cfg.ProcessingDelayMax - a.cfg.ProcessingDelayMin
	if window <= 0 {
		return a.cfg.ProcessingDelayMin
	}
	return a.cfg.ProcessingDelayMin + rand.N(window)
}

func (a *Authorizer) Outcome(method domain.PaymentMethod) bool {
	if a.cfg.TestMode {
		return a.cfg.TestPaymentSuccess
	}
	rate := a.cfg.CardSuccessRate
	if method == domain.PaymentMethodUPI {
		rate = a.cfg.UPISuccessRate
	}
	return rand.Float64() < rate
}
