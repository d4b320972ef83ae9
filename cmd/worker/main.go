package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zestpay/gateway/internal/config"
	"github.com/zestpay/gateway/internal/logging"
	"github.com/zestpay/gateway/internal/repository"
	"github.com/zestpay/gateway/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.Init("gateway-worker", cfg.LogLevel, cfg.AppEnv)

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := repository.NewPostgresDB(connectCtx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
	})
	cancelConnect()
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	merchants := repository.NewMerchantRepository(db)
	payments := repository.NewPaymentRepository(db)
	refunds := repository.NewRefundRepository(db)
	webhooks := repository.NewWebhookRepository(db)

	dispatcher := service.NewDispatcher(cfg.Dispatcher(), merchants, payments, refunds, webhooks)
	pool := service.NewPool(dispatcher, cfg.Dispatcher())

	ctx := logging.WithLogger(context.Background(), log)
	pool.Start(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	pool.Stop()
	log.Info("worker stopped")
}
