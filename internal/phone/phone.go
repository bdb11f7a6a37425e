// Package phone canonicalizes Russian phone numbers so that the formats
// coming from Telegram contacts and from the YClients API compare equal.
package phone

import "strings"

// Normalize reduces a raw phone string to +7XXXXXXXXXX form.
// An 11-digit number with the domestic trunk prefix 8 is rewritten to 7,
// a bare 10-digit number gets the country code prepended. Anything else is
// kept digits-only with a leading plus.
func Normalize(raw string) string {
	digits := onlyDigits(raw)
	switch {
	case len(digits) == 11 && strings.HasPrefix(digits, "8"):
		digits = "7" + digits[1:]
	case len(digits) == 10:
		digits = "7" + digits
	}
	return "+" + digits
}

// SuffixKey returns the last 10 digits, used to match numbers across stores
// regardless of formatting. Two international numbers sharing a 10-digit
// suffix would collide; acceptable for a single-country deployment only.
func SuffixKey(raw string) string {
	digits := onlyDigits(raw)
	if len(digits) <= 10 {
		return digits
	}
	return digits[len(digits)-10:]
}

// Mask hides the middle of a number for staff-facing messages:
// "+79001234567" -> "+790 *** ** 67".
func Mask(raw string) string {
	digits := onlyDigits(raw)
	if len(digits) < 6 {
		return raw
	}
	return "+" + digits[:3] + " *** ** " + digits[len(digits)-2:]
}

func onlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
