package handler_test

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zestpay/gateway/internal/config"
	"github.com/zestpay/gateway/internal/domain"
	"github.com/zestpay/gateway/internal/handler"
	"github.com/zestpay/gateway/internal/middleware"
	"github.com/zestpay/gateway/internal/repository"
	"github.com/zestpay/gateway/internal/service"
	"github.com/zestpay/gateway/internal/testutil"
)

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// newTestAPI wires the handlers and middleware the same way cmd/api does.
func newTestAPI(t *testing.T, db *sql.DB) http.Handler {
	t.Helper()

	merchants := repository.NewMerchantRepository(db)
	orders := repository.NewOrderRepository(db)
	payments := repository.NewPaymentRepository(db)
	refunds := repository.NewRefundRepository(db)
	webhooks := repository.NewWebhookRepository(db)
	idempotency := repository.NewIdempotencyRepository(db)

	engineCfg := config.EngineConfig{
		TestMode:            true,
		TestPaymentSuccess:  true,
		TestProcessingDelay: 10 * time.Millisecond,
	}
	dispatcherCfg := config.DispatcherConfig{
		MaxAttempts: 3, BackoffBase: 10 * time.Millisecond,
		Timeout: time.Second, ClaimLease: 5 * time.Second,
		PollInterval: 20 * time.Millisecond, Workers: 2,
	}

	dispatcher := service.NewDispatcher(dispatcherCfg, merchants, payments, refunds, webhooks)
	paymentSvc := service.NewPaymentService(orders, payments, dispatcher, service.NewAuthorizer(engineCfg))
	t.Cleanup(paymentSvc.Drain)

	orderHandler := handler.NewOrderHandler(service.NewOrderService(orders, 100))
	paymentHandler := handler.NewPaymentHandler(paymentSvc)
	refundHandler := handler.NewRefundHandler(service.NewRefundService(payments, refunds, dispatcher))
	webhookHandler := handler.NewWebhookHandler(service.NewWebhookService(merchants, webhooks))

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

	var h http.Handler = api
	h = middleware.Idempotency(idempotency)(h)
	h = middleware.APIKeyAuth(merchants)(h)
	h = middleware.Recovery(h)
	h = middleware.Tracing(h)
	return h
}

func doJSON(t *testing.T, h http.Handler, m *domain.Merchant, method, path, body string) (*httptest.ResponseRecorder, apiEnvelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if m != nil {
		req.Header.Set("X-Api-Key", m.APIKey)
		req.Header.Set("X-Api-Secret", m.APISecret)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env apiEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "body: %s", rec.Body.String())
	return rec, env
}

func TestAPI_Authentication(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTestAPI(t, db)

	rec, env := doJSON(t, h, nil, http.MethodPost, "/api/v1/orders", `{"amount":50000}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "AUTHENTICATION_ERROR", env.Error.Code)

	wrong := &domain.Merchant{APIKey: "nope", APISecret: "nope"}
	rec, _ = doJSON(t, h, wrong, http.MethodPost, "/api/v1/orders", `{"amount":50000}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPI_OrderLifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTestAPI(t, db)
	merchant := testutil.SeedMerchant(t, db)

	rec, env := doJSON(t, h, merchant, http.MethodPost, "/api/v1/orders",
		`{"amount":50000,"currency":"INR","receipt":"rcpt-42"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.True(t, env.Success)

	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Regexp(t, `^order_[a-zA-Z0-9]{16}$`, created.ID)
	assert.Equal(t, "created", created.Status)

	rec, _ = doJSON(t, h, merchant, http.MethodGet, "/api/v1/orders/"+created.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = doJSON(t, h, merchant, http.MethodGet, "/api/v1/orders/order_missing12345", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND_ERROR", env.Error.Code)

	rec, env = doJSON(t, h, merchant, http.MethodPost, "/api/v1/orders", `{"amount":50}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "BAD_REQUEST_ERROR", env.Error.Code)
}

func TestAPI_PaymentAndRefundFlow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTestAPI(t, db)
	merchant := testutil.SeedMerchant(t, db)

	_, env := doJSON(t, h, merchant, http.MethodPost, "/api/v1/orders", `{"amount":50000}`)
	var order struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &order))

	rec, env := doJSON(t, h, merchant, http.MethodPost, "/api/v1/payments",
		fmt.Sprintf(`{"order_id":%q,"method":"upi","vpa":"customer@okbank"}`, order.ID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var payment struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &payment))
	assert.Equal(t, "processing", payment.Status)

	require.Eventually(t, func() bool {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/"+payment.ID, nil)
		req.Header.Set("X-Api-Key", merchant.APIKey)
		req.Header.Set("X-Api-Secret", merchant.APISecret)
		poll := httptest.NewRecorder()
		h.ServeHTTP(poll, req)

		var got struct {
			Data struct {
				Status string `json:"status"`
			} `json:"data"`
		}
		if err := json.Unmarshal(poll.Body.Bytes(), &got); err != nil {
			return false
		}
		return got.Data.Status == "success"
	}, 2*time.Second, 20*time.Millisecond)

	rec, env = doJSON(t, h, merchant, http.MethodPost, "/api/v1/refunds",
		fmt.Sprintf(`{"payment_id":%q,"amount":20000,"reason":"Damaged item"}`, payment.ID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var refund struct {
		ID     string `json:"id"`
		Amount int64  `json:"amount"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &refund))
	assert.Regexp(t, `^refund_[a-zA-Z0-9]{16}$`, refund.ID)
	assert.Equal(t, int64(20000), refund.Amount)

	rec, env = doJSON(t, h, merchant, http.MethodPost, "/api/v1/refunds",
		fmt.Sprintf(`{"payment_id":%q,"amount":40000}`, payment.ID))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "EXCEEDS_BALANCE", env.Error.Code)
}

func TestAPI_WebhookConfig(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTestAPI(t, db)
	merchant := testutil.SeedMerchant(t, db)

	rec, env := doJSON(t, h, merchant, http.MethodPut, "/api/v1/webhooks/config",
		`{"webhook_url":"https://merchant.example.com/hooks"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.True(t, env.Success)

	rec, env = doJSON(t, h, merchant, http.MethodGet, "/api/v1/webhooks/config", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var cfg struct {
		WebhookURL *string `json:"webhook_url"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &cfg))
	require.NotNil(t, cfg.WebhookURL)
	assert.Equal(t, "https://merchant.example.com/hooks", *cfg.WebhookURL)

	rec, env = doJSON(t, h, merchant, http.MethodPut, "/api/v1/webhooks/config",
		`{"webhook_url":"ftp://bad.example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "BAD_REQUEST_ERROR", env.Error.Code)
}
