package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zestpay/gateway/internal/domain"
	"github.com/zestpay/gateway/internal/repository"
	"github.com/zestpay/gateway/internal/service"
	"github.com/zestpay/gateway/internal/testutil"
)

func TestWebhookConfig(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewWebhookService(
		repository.NewMerchantRepository(db),
		repository.NewWebhookRepository(db),
	)
	ctx := context.Background()

	merchant := testutil.SeedMerchant(t, db)

	url, err := svc.GetConfig(ctx, merchant.ID)
	require.NoError(t, err)
	assert.Nil(t, url)

	require.NoError(t, svc.UpdateConfig(ctx, merchant.ID, "https://merchant.example.com/hooks"))

	url, err = svc.GetConfig(ctx, merchant.ID)
	require.NoError(t, err)
	require.NotNil(t, url)
	assert.Equal(t, "https://merchant.example.com/hooks", *url)

	for _, bad := range []string{"", "not a url", "ftp://example.com/hooks", "https://", "/relative/path"} {
		err := svc.UpdateConfig(ctx, merchant.ID, bad)
		require.ErrorIs(t, err, domain.ErrInvalidWebhookURL, "url %q", bad)
	}
}

func TestWebhookListLogs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewWebhookService(
		repository.NewMerchantRepository(db),
		repository.NewWebhookRepository(db),
	)
	dispatcher := setupDispatcher(t, db, testDispatcherConfig())
	ctx := context.Background()

	merchant := testutil.SeedMerchant(t, db)
	testutil.SetMerchantWebhookURL(t, db, merchant.ID, "https://merchant.example.com/hooks")
	order := testutil.SeedOrder(t, db, merchant.ID, 50000)

	for range 3 {
		p := testutil.SeedPayment(t, db, merchant.ID, order.ID, order.Amount, domain.PaymentStatusSuccess)
		require.NoError(t, dispatcher.EnqueuePaymentEvent(ctx, merchant.ID, p.ID, order.ID))
	}

	jobs, total, err := svc.ListLogs(ctx, merchant.ID, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, jobs, 2)
	for _, job := range jobs {
		assert.Equal(t, domain.EventPaymentCreated, job.EventType)
		assert.Equal(t, domain.WebhookStatusPending, job.Status)
	}

	other := testutil.SeedMerchant(t, db)
	jobs, total, err = svc.ListLogs(ctx, other.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, jobs)
}
