package middleware_test

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zestpay/gateway/internal/auth"
	"github.com/zestpay/gateway/internal/domain"
	"github.com/zestpay/gateway/internal/middleware"
	"github.com/zestpay/gateway/internal/repository"
	"github.com/zestpay/gateway/internal/testutil"
)

// wraps the guarded handler with a fake auth layer that installs the
// given merchant on every request.
func idempotentServer(store *repository.IdempotencyRepository, merchant *domain.Merchant, next http.Handler) http.Handler {
	guarded := middleware.Idempotency(store)(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		guarded.ServeHTTP(w, r.WithContext(auth.WithMerchant(r.Context(), merchant)))
	})
}

func TestIdempotency_ReplaysStoredResponse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := repository.NewIdempotencyRepository(db)
	merchant := testutil.SeedMerchant(t, db)

	var calls atomic.Int32
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"success":true,"data":{"execution":%d}}`, n)
	})
	srv := idempotentServer(store, merchant, next)

	body := `{"amount":50000,"currency":"INR"}`
	do := func(payload string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewBufferString(payload))
		req.Header.Set("Idempotency-Key", "key-1")
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		return rec
	}

	first := do(body)
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Empty(t, first.Header().Get("X-Idempotent-Replayed"))

	second := do(body)
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("X-Idempotent-Replayed"))
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())
	assert.Equal(t, int32(1), calls.Load())

	// Same content under reordered keys and whitespace still collapses.
	third := do(`{ "currency": "INR", "amount": 50000 }`)
	require.Equal(t, http.StatusCreated, third.Code)
	assert.Equal(t, "true", third.Header().Get("X-Idempotent-Replayed"))
	assert.Equal(t, int32(1), calls.Load())

	// A different body is a different request.
	fourth := do(`{"amount":60000,"currency":"INR"}`)
	require.Equal(t, http.StatusCreated, fourth.Code)
	assert.Empty(t, fourth.Header().Get("X-Idempotent-Replayed"))
	assert.Equal(t, int32(2), calls.Load())
}

func TestIdempotency_SkipsWithoutKey(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := repository.NewIdempotencyRepository(db)
	merchant := testutil.SeedMerchant(t, db)

	var calls atomic.Int32
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusCreated)
	})
	srv := idempotentServer(store, merchant, next)

	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewBufferString(`{"amount":50000}`))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestIdempotency_ConcurrentRequestsExecuteOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := repository.NewIdempotencyRepository(db)
	merchant := testutil.SeedMerchant(t, db)

	var calls atomic.Int32
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"success":true}`))
	})
	srv := idempotentServer(store, merchant, next)

	const n = 10
	codes := make([]int, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewBufferString(`{"amount":50000}`))
			req.Header.Set("Idempotency-Key", "race-key")
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)
			codes[i] = rec.Code
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, code := range codes {
		assert.Contains(t, []int{http.StatusCreated, http.StatusConflict}, code)
	}
}

func TestIdempotency_ServerErrorReleasesSlot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := repository.NewIdempotencyRepository(db)
	merchant := testutil.SeedMerchant(t, db)

	var calls atomic.Int32
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})
	srv := idempotentServer(store, merchant, next)

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewBufferString(`{"amount":50000}`))
		req.Header.Set("Idempotency-Key", "retry-key")
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusInternalServerError, do().Code)

	// The 5xx was not stored; the retry re-executes.
	retry := do()
	require.Equal(t, http.StatusCreated, retry.Code)
	assert.Empty(t, retry.Header().Get("X-Idempotent-Replayed"))
	assert.Equal(t, int32(2), calls.Load())
}
