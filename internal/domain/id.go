package domain

import (
	"crypto/rand"
	"fmt"
	"time"
)

const idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// NewOrderID returns an opaque token of the form order_<16 alnum>.
func NewOrderID() string { return "order_" + randomToken(16) }

func NewPaymentID() string { return "pay_" + randomToken(16) }

func NewRefundID() string { return "refund_" + randomToken(16) }

// NewWebhookID keeps the source format wh_<unix-ms>_<rand> so delivery
// logs sort roughly by creation time.
func NewWebhookID() string {
	return fmt.Sprintf("wh_%d_%s", time.Now().UnixMilli(), randomToken(9))
}

func randomToken(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(fmt.Sprintf("randomToken: %v", err))
	}
	for i, b := range buf {
		buf[i] = idAlphabet[int(b)%len(idAlphabet)]
	}
	return string(buf)
}
