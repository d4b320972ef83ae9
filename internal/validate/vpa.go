// Package validate holds the pure input checks for payment
// instruments: VPA shape, card number structure, network detection,
// and expiry dates.
package validate

import "regexp"

var vpaPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z0-9]+$`)

// VPA reports whether s is a well-formed virtual payment address
// (local-part@handle, handle strictly alphanumeric).
func VPA(s string) bool {
	if s == "" {
		return false
	}
	return vpaPattern.MatchString(s)
}
