package testutil

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/zestpay/gateway/internal/domain"
)

func SeedMerchant(t *testing.T, db *sql.DB) *domain.Merchant {
	t.Helper()

	id := uuid.New()
	m := &domain.Merchant{
		ID:        id,
		Name:      "Test Merchant",
		Email:     fmt.Sprintf("merchant-%s@example.com", id),
		APIKey:    fmt.Sprintf("key_%s", id),
		APISecret: fmt.Sprintf("secret_%s", id),
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO merchants (id, name, email, api_key, api_secret, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.Name, m.Email, m.APIKey, m.APISecret, m.IsActive, m.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed merchant: %v", err)
	}
	return m
}

func SetMerchantWebhookURL(t *testing.T, db *sql.DB, merchantID uuid.UUID, url string) {
	t.Helper()

	if _, err := db.Exec(`UPDATE merchants SET webhook_url = $1 WHERE id = $2`, url, merchantID); err != nil {
		t.Fatalf("set merchant webhook url: %v", err)
	}
}

func SeedOrder(t *testing.T, db *sql.DB, merchantID uuid.UUID, amount int64) *domain.Order {
	t.Helper()

	now := time.Now().UTC()
	o := &domain.Order{
		ID:         domain.NewOrderID(),
		MerchantID: merchantID,
		Amount:     amount,
		Currency:   "INR",
		Status:     domain.OrderStatusCreated,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := db.Exec(
		`INSERT INTO orders (id, merchant_id, amount, currency, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		o.ID, o.MerchantID, o.Amount, o.Currency, o.Status, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return o
}

func SeedPayment(t *testing.T, db *sql.DB, merchantID uuid.UUID, orderID string, amount int64, status domain.PaymentStatus) *domain.Payment {
	t.Helper()

	now := time.Now().UTC()
	vpa := "customer@upi"
	p := &domain.Payment{
		ID:         domain.NewPaymentID(),
		OrderID:    orderID,
		MerchantID: merchantID,
		Amount:     amount,
		Currency:   "INR",
		Method:     domain.PaymentMethodUPI,
		VPA:        &vpa,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := db.Exec(
		`INSERT INTO payments (id, order_id, merchant_id, amount, currency, method, vpa, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.OrderID, p.MerchantID, p.Amount, p.Currency, p.Method, p.VPA, p.Status, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed payment: %v", err)
	}
	return p
}

func GetPaymentStatus(t *testing.T, db *sql.DB, paymentID string) domain.PaymentStatus {
	t.Helper()

	var status domain.PaymentStatus
	if err := db.QueryRow(`SELECT status FROM payments WHERE id = $1`, paymentID).Scan(&status); err != nil {
		t.Fatalf("get payment status %s: %v", paymentID, err)
	}
	return status
}

func SumRefunds(t *testing.T, db *sql.DB, paymentID string) int64 {
	t.Helper()

	var total int64
	err := db.QueryRow(
		`SELECT COALESCE(SUM(amount), 0) FROM refunds WHERE payment_id = $1 AND status != 'failed'`,
		paymentID,
	).Scan(&total)
	if err != nil {
		t.Fatalf("sum refunds for payment %s: %v", paymentID, err)
	}
	return total
}

func CountWebhookJobs(t *testing.T, db *sql.DB, merchantID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM webhook_logs WHERE merchant_id = $1`, merchantID).Scan(&count)
	if err != nil {
		t.Fatalf("count webhook jobs for merchant %s: %v", merchantID, err)
	}
	return count
}
