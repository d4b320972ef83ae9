package service_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zestpay/gateway/internal/config"
	"github.com/zestpay/gateway/internal/domain"
	"github.com/zestpay/gateway/internal/repository"
	"github.com/zestpay/gateway/internal/service"
	"github.com/zestpay/gateway/internal/testutil"
)

func testEngineConfig(success bool) config.EngineConfig {
	return config.EngineConfig{
		TestMode:            true,
		TestPaymentSuccess:  success,
		TestProcessingDelay: 10 * time.Millisecond,
	}
}

func testDispatcherConfig() config.DispatcherConfig {
	return config.DispatcherConfig{
		MaxAttempts:  3,
		BackoffBase:  10 * time.Millisecond,
		Timeout:      2 * time.Second,
		ClaimLease:   5 * time.Second,
		PollInterval: 20 * time.Millisecond,
		Workers:      2,
	}
}

func setupPaymentService(t *testing.T, db *sql.DB, success bool) *service.PaymentService {
	t.Helper()
	dispatcher := service.NewDispatcher(
		testDispatcherConfig(),
		repository.NewMerchantRepository(db),
		repository.NewPaymentRepository(db),
		repository.NewRefundRepository(db),
		repository.NewWebhookRepository(db),
	)
	svc := service.NewPaymentService(
		repository.NewOrderRepository(db),
		repository.NewPaymentRepository(db),
		dispatcher,
		service.NewAuthorizer(testEngineConfig(success)),
	)
	t.Cleanup(svc.Drain)
	return svc
}

func TestCreatePayment_UPISuccess(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupPaymentService(t, db, true)
	ctx := context.Background()

	merchant := testutil.SeedMerchant(t, db)
	order := testutil.SeedOrder(t, db, merchant.ID, 50000)

	p, err := svc.CreatePayment(ctx, service.CreatePaymentRequest{
		MerchantID: merchant.ID,
		OrderID:    order.ID,
		Method:     "upi",
		VPA:        "customer@okbank",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusProcessing, p.Status)
	assert.Equal(t, order.Amount, p.Amount)
	assert.Equal(t, order.Currency, p.Currency)
	require.NotNil(t, p.VPA)
	assert.Equal(t, "customer@okbank", *p.VPA)

	require.Eventually(t, func() bool {
		return testutil.GetPaymentStatus(t, db, p.ID) == domain.PaymentStatusSuccess
	}, 2*time.Second, 20*time.Millisecond)

	got, err := svc.GetPayment(ctx, p.ID, merchant.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ErrorCode)
}

func TestCreatePayment_UPIFailure(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupPaymentService(t, db, false)
	ctx := context.Background()

	merchant := testutil.SeedMerchant(t, db)
	order := testutil.SeedOrder(t, db, merchant.ID, 50000)

	p, err := svc.CreatePayment(ctx, service.CreatePaymentRequest{
		MerchantID: merchant.ID,
		OrderID:    order.ID,
		Method:     "upi",
		VPA:        "customer@okbank",
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return testutil.GetPaymentStatus(t, db, p.ID) == domain.PaymentStatusFailed
	}, 2*time.Second, 20*time.Millisecond)

	got, err := svc.GetPayment(ctx, p.ID, merchant.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ErrorCode)
	assert.Equal(t, domain.ErrCodePaymentFailed, *got.ErrorCode)
	require.NotNil(t, got.ErrorDescription)
}

func TestCreatePayment_CardSuccess(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupPaymentService(t, db, true)
	ctx := context.Background()

	merchant := testutil.SeedMerchant(t, db)
	order := testutil.SeedOrder(t, db, merchant.ID, 120000)

	p, err := svc.CreatePayment(ctx, service.CreatePaymentRequest{
		MerchantID: merchant.ID,
		OrderID:    order.ID,
		Method:     "card",
		Card: &service.CardDetails{
			Number:      "4242 4242 4242 4242",
			ExpiryMonth: "12",
			ExpiryYear:  "30",
			CVV:         "123",
			HolderName:  "A Customer",
		},
	})

	require.NoError(t, err)
	require.NotNil(t, p.CardNetwork)
	assert.Equal(t, "visa", *p.CardNetwork)
	require.NotNil(t, p.CardLast4)
	assert.Equal(t, "4242", *p.CardLast4)
	assert.Nil(t, p.VPA)

	require.Eventually(t, func() bool {
		return testutil.GetPaymentStatus(t, db, p.ID) == domain.PaymentStatusSuccess
	}, 2*time.Second, 20*time.Millisecond)
}

func TestCreatePayment_ValidationErrors(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupPaymentService(t, db, true)
	ctx := context.Background()

	merchant := testutil.SeedMerchant(t, db)
	order := testutil.SeedOrder(t, db, merchant.ID, 50000)

	tests := []struct {
		name    string
		req     service.CreatePaymentRequest
		wantErr error
	}{
		{
			name: "invalid vpa",
			req: service.CreatePaymentRequest{
				MerchantID: merchant.ID, OrderID: order.ID, Method: "upi", VPA: "no-handle",
			},
			wantErr: domain.ErrInvalidVPA,
		},
		{
			name: "unknown method",
			req: service.CreatePaymentRequest{
				MerchantID: merchant.ID, OrderID: order.ID, Method: "netbanking",
			},
			wantErr: domain.ErrInvalidMethod,
		},
		{
			name: "missing card fields",
			req: service.CreatePaymentRequest{
				MerchantID: merchant.ID, OrderID: order.ID, Method: "card",
				Card: &service.CardDetails{Number: "4242424242424242"},
			},
			wantErr: domain.ErrMissingCardFields,
		},
		{
			name: "luhn failure",
			req: service.CreatePaymentRequest{
				MerchantID: merchant.ID, OrderID: order.ID, Method: "card",
				Card: &service.CardDetails{
					Number: "4242424242424243", ExpiryMonth: "12", ExpiryYear: "30",
					CVV: "123", HolderName: "A Customer",
				},
			},
			wantErr: domain.ErrInvalidCard,
		},
		{
			name: "expired card",
			req: service.CreatePaymentRequest{
				MerchantID: merchant.ID, OrderID: order.ID, Method: "card",
				Card: &service.CardDetails{
					Number: "4242424242424242", ExpiryMonth: "01", ExpiryYear: "20",
					CVV: "123", HolderName: "A Customer",
				},
			},
			wantErr: domain.ErrExpiredCard,
		},
		{
			name: "unknown order",
			req: service.CreatePaymentRequest{
				MerchantID: merchant.ID, OrderID: "order_doesnotexist00", Method: "upi", VPA: "a@b",
			},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreatePayment(ctx, tc.req)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestCreatePayment_WebhookEnqueuedOnTerminal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupPaymentService(t, db, true)
	ctx := context.Background()

	merchant := testutil.SeedMerchant(t, db)
	testutil.SetMerchantWebhookURL(t, db, merchant.ID, "https://merchant.example.com/hooks")
	order := testutil.SeedOrder(t, db, merchant.ID, 50000)

	_, err := svc.CreatePayment(ctx, service.CreatePaymentRequest{
		MerchantID: merchant.ID,
		OrderID:    order.ID,
		Method:     "upi",
		VPA:        "customer@okbank",
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return testutil.CountWebhookJobs(t, db, merchant.ID) == 1
	}, 2*time.Second, 20*time.Millisecond)
}

func TestPaymentTransition_TerminalIsImmutable(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	merchant := testutil.SeedMerchant(t, db)
	order := testutil.SeedOrder(t, db, merchant.ID, 50000)
	payments := repository.NewPaymentRepository(db)

	p := testutil.SeedPayment(t, db, merchant.ID, order.ID, order.Amount, domain.PaymentStatusProcessing)

	require.NoError(t, payments.MarkSucceeded(ctx, p.ID))

	err := payments.MarkFailed(ctx, p.ID, domain.ErrCodePaymentFailed, "Payment processing failed")
	require.ErrorIs(t, err, domain.ErrPaymentTerminal)

	err = payments.MarkSucceeded(ctx, p.ID)
	require.ErrorIs(t, err, domain.ErrPaymentTerminal)

	assert.Equal(t, domain.PaymentStatusSuccess, testutil.GetPaymentStatus(t, db, p.ID))
}
