package validate

import (
	"strconv"
	"time"
)

// Expiry validates a card expiry given as month and year strings. The
// year may be 2 digits (2000-based) or 4 digits. Granularity is the
// month: a card expiring in the current month is still valid.
func Expiry(month, year string) bool {
	return expiryAt(month, year, time.Now())
}

func expiryAt(month, year string, now time.Time) bool {
	expMonth, err := strconv.Atoi(month)
	if err != nil || expMonth < 1 || expMonth > 12 {
		return false
	}

	expYear, err := strconv.Atoi(year)
	if err != nil {
		return false
	}
	switch len(year) {
	case 2:
		expYear += 2000
	case 4:
	default:
		return false
	}

	currentYear, currentMonth, _ := now.Date()
	if expYear != currentYear {
		return expYear > currentYear
	}
	return expMonth >= int(currentMonth)
}
