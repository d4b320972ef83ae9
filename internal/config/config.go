package config

import (
	"fmt"
	"time"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	Port        int    `env:"PORT" envDefault:"8000"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`

	MinOrderAmount int64 `env:"MIN_ORDER_AMOUNT" envDefault:"100"`

	TestMode            bool `env:"TEST_MODE" envDefault:"false"`
	TestPaymentSuccess  bool `env:"TEST_PAYMENT_SUCCESS" envDefault:"true"`
	TestProcessingDelay int  `env:"TEST_PROCESSING_DELAY_MS" envDefault:"1000"`

	UPISuccessRate     float64 `env:"UPI_SUCCESS_RATE" envDefault:"0.90"`
	CardSuccessRate    float64 `env:"CARD_SUCCESS_RATE" envDefault:"0.95"`
	ProcessingDelayMin int     `env:"PROCESSING_DELAY_MIN_MS" envDefault:"5000"`
	ProcessingDelayMax int     `env:"PROCESSING_DELAY_MAX_MS" envDefault:"10000"`

	WebhookMaxAttempts  int `env:"WEBHOOK_MAX_ATTEMPTS" envDefault:"5"`
	WebhookBackoffBase  int `env:"WEBHOOK_BACKOFF_BASE_MS" envDefault:"2000"`
	WebhookTimeoutMS    int `env:"WEBHOOK_TIMEOUT_MS" envDefault:"5000"`
	WebhookWorkers      int `env:"WEBHOOK_WORKERS" envDefault:"4"`
	WebhookPollInterval int `env:"WEBHOOK_POLL_INTERVAL_MS" envDefault:"1000"`
	WebhookClaimLease   int `env:"WEBHOOK_CLAIM_LEASE_MS" envDefault:"30000"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// EngineConfig is the slice of configuration the payment engine needs.
// It is injected at construction so authorization logic never reads the
// environment directly.
type EngineConfig struct {
	TestMode            bool
	TestPaymentSuccess  bool
	TestProcessingDelay time.Duration
	UPISuccessRate      float64
	CardSuccessRate     float64
	ProcessingDelayMin  time.Duration
	ProcessingDelayMax  time.Duration
}

// DispatcherConfig bounds webhook delivery: attempt cap, backoff base,
// outbound timeout, and the claim lease that re-exposes jobs whose
// worker died mid-delivery.
type DispatcherConfig struct {
	MaxAttempts  int
	BackoffBase  time.Duration
	Timeout      time.Duration
	ClaimLease   time.Duration
	PollInterval time.Duration
	Workers      int
}

func (c *Config) Engine() EngineConfig {
	return EngineConfig{
		TestMode:            c.TestMode,
		TestPaymentSuccess:  c.TestPaymentSuccess,
		TestProcessingDelay: time.Duration(c.TestProcessingDelay) * time.Millisecond,
		UPISuccessRate:      c.UPISuccessRate,
		CardSuccessRate:     c.CardSuccessRate,
		ProcessingDelayMin:  time.Duration(c.ProcessingDelayMin) * time.Millisecond,
		ProcessingDelayMax:  time.Duration(c.ProcessingDelayMax) * time.Millisecond,
	}
}

func (c *Config) Dispatcher() DispatcherConfig {
	return DispatcherConfig{
		MaxAttempts:  c.WebhookMaxAttempts,
		BackoffBase:  time.Duration(c.WebhookBackoffBase) * time.Millisecond,
		Timeout:      time.Duration(c.WebhookTimeoutMS) * time.Millisecond,
		ClaimLease:   time.Duration(c.WebhookClaimLease) * time.Millisecond,
		PollInterval: time.Duration(c.WebhookPollInterval) * time.Millisecond,
		Workers:      c.WebhookWorkers,
	}
}
