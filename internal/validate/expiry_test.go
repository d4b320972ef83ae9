package validate

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExpiry(t *testing.T) {
	now := time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		month string
		year  string
		want  bool
	}{
		{"future year", "01", "2027", true},
		{"current month current year", "06", "2026", true},
		{"previous month current year", "05", "2026", false},
		{"past year", "12", "2025", false},
		{"two digit year future", "01", "27", true},
		{"two digit year current month", "06", "26", true},
		{"two digit year past", "12", "25", false},
		{"month zero", "00", "2027", false},
		{"month thirteen", "13", "2027", false},
		{"three digit year", "06", "202", false},
		{"non-numeric month", "ab", "2027", false},
		{"non-numeric year", "06", "20xy", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expiryAt(tt.month, tt.year, now))
		})
	}
}

func TestExpiryAgainstWallClock(t *testing.T) {
	now := time.Now()
	year, month, _ := now.Date()

	assert.True(t, Expiry(fmt.Sprintf("%02d", int(month)), fmt.Sprintf("%d", year)))
	assert.True(t, Expiry("01", fmt.Sprintf("%d", year+1)))
	assert.False(t, Expiry("12", fmt.Sprintf("%d", year-1)))
}
