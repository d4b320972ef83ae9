package validate

import "strings"

type CardNetwork string

const (
	NetworkVisa       CardNetwork = "visa"
	NetworkMastercard CardNetwork = "mastercard"
	NetworkAmex       CardNetwork = "amex"
	NetworkRuPay      CardNetwork = "rupay"
	NetworkUnknown    CardNetwork = "unknown"
)

// CardNumber reports whether the number passes the Luhn checksum after
// stripping spaces and dashes. Only structural validity, not issuer
// approval.
func CardNumber(s string) bool {
	cleaned := cleanCardNumber(s)
	if len(cleaned) < 13 || len(cleaned) > 19 {
		return false
	}
	for _, c := range cleaned {
		if c < '0' || c > '9' {
			return false
		}
	}

	sum := 0
	double := false
	for i := len(cleaned) - 1; i >= 0; i-- {
		d := int(cleaned[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// DetectNetwork classifies a card number by its BIN prefix.
func DetectNetwork(s string) CardNetwork {
	cleaned := cleanCardNumber(s)
	if cleaned == "" {
		return NetworkUnknown
	}

	switch {
	case strings.HasPrefix(cleaned, "4"):
		return NetworkVisa
	case len(cleaned) >= 2 && cleaned[0] == '5' && cleaned[1] >= '1' && cleaned[1] <= '5':
		return NetworkMastercard
	case strings.HasPrefix(cleaned, "34") || strings.HasPrefix(cleaned, "37"):
		return NetworkAmex
	case strings.HasPrefix(cleaned, "60") || strings.HasPrefix(cleaned, "65"):
		return NetworkRuPay
	case len(cleaned) >= 2 && cleaned[0] == '8' && cleaned[1] >= '1' && cleaned[1] <= '9':
		return NetworkRuPay
	default:
		return NetworkUnknown
	}
}

// Last4 returns the trailing four digits of a cleaned card number.
func Last4(s string) string {
	cleaned := cleanCardNumber(s)
	if len(cleaned) < 4 {
		return cleaned
	}
	return cleaned[len(cleaned)-4:]
}

func cleanCardNumber(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, s)
}
