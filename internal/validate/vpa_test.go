package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVPA(t *testing.T) {
	tests := []struct {
		name string
		vpa  string
		want bool
	}{
		{"simple", "alice@okbank", true},
		{"with dots", "alice.b@upi", true},
		{"with underscore and dash", "a_b-c@ybl", true},
		{"digits", "9876543210@paytm", true},
		{"empty", "", false},
		{"missing handle", "alice@", false},
		{"missing local part", "@okbank", false},
		{"no at sign", "aliceokbank", false},
		{"handle with dot", "alice@ok.bank", false},
		{"two at signs", "a@b@c", false},
		{"space in local part", "ali ce@okbank", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VPA(tt.vpa))
		})
	}
}
