package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zestpay/gateway/internal/config"
	"github.com/zestpay/gateway/internal/handler"
	"github.com/zestpay/gateway/internal/logging"
	"github.com/zestpay/gateway/internal/middleware"
	"github.com/zestpay/gateway/internal/repository"
	"github.com/zestpay/gateway/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.Init("gateway-api", cfg.LogLevel, cfg.AppEnv)

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
	orders := repository.NewOrderRepository(db)
	payments := repository.NewPaymentRepository(db)
	refunds := repository.NewRefundRepository(db)
	webhooks := repository.NewWebhookRepository(db)
	idempotency := repository.NewIdempotencyRepository(db)

	dispatcher := service.NewDispatcher(cfg.Dispatcher(), merchants, payments, refunds, webhooks)
	authorizer := service.NewAuthorizer(cfg.Engine())

	orderSvc := service.NewOrderService(orders, cfg.MinOrderAmount)
	paymentSvc := service.NewPaymentService(orders, payments, dispatcher, authorizer)
	refundSvc := service.NewRefundService(payments, refunds, dispatcher)
	webhookSvc := service.NewWebhookService(merchants, webhooks)

	orderHandler := handler.NewOrderHandler(orderSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc)
	refundHandler := handler.NewRefundHandler(refundSvc)
	webhookHandler := handler.NewWebhookHandler(webhookSvc)
	healthHandler := handler.NewHealthHandler(db)

	api := http.NewServeMux()
	api.HandleFunc("POST /api/v1/orders", orderHandler.Create)
	api.HandleFunc("GET /api/v1/orders", orderHandler.List)
	api.HandleFunc("GET /api/v1/orders/{id}", orderHandler.Get)
	api.HandleFunc("POST /api/v1/payments", paymentHandler.Create)
	api.HandleFunc("GET /api/v1/payments/{id}", paymentHandler.Get)
	api.HandleFunc("POST /api/v1/refunds", refundHandler.Create)
	api.HandleFunc("GET /api/v1/refunds", refundHandler.List)
	api.HandleFunc("GET /api/v1/refunds/{id}", refundHandler.Get)
	api.HandleFunc("GET /api/v1/webhooks/config", webhookHandler.GetConfig)
	api.HandleFunc("PUT /api/v1/webhooks/config", webhookHandler.UpdateConfig)
	api.HandleFunc("GET /api/v1/webhooks/logs", webhookHandler.ListLogs)

	var protected http.Handler = api
	protected = middleware.Idempotency(idempotency)(protected)
	protected = middleware.APIKeyAuth(merchants)(protected)

	root := http.NewServeMux()
	root.HandleFunc("GET /health", healthHandler.Check)
	root.Handle("/api/v1/", protected)

	var h http.Handler = root
	h = middleware.Recovery(h)
	h = middleware.Logging(h)
	h = middleware.Tracing(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", "error", err)
	}

	// In-flight authorizations finish their terminal transitions and
	// enqueues before the process exits.
	paymentSvc.Drain()
	log.Info("server stopped")
}
