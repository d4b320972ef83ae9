package domain

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityIDFormats(t *testing.T) {
	tests := []struct {
		name    string
		gen     func() string
		pattern string
	}{
		{"order", NewOrderID, `^order_[A-Za-z0-9]{16}$`},
		{"payment", NewPaymentID, `^pay_[A-Za-z0-9]{16}$`},
		{"refund", NewRefundID, `^refund_[A-Za-z0-9]{16}$`},
		{"webhook", NewWebhookID, `^wh_\d+_[A-Za-z0-9]{9}$`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			re := regexp.MustCompile(tt.pattern)
			seen := make(map[string]bool)
			for range 100 {
				id := tt.gen()
				require.Regexp(t, re, id)
				seen[id] = true
			}
			assert.Len(t, seen, 100, "ids should not collide")
		})
	}
}
