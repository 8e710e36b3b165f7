package helpers

import (
	// Go Internal Packages
	"strings"
)

// CountryPrefix returns the country code part of a phone number written as "+91-98765".
// A number without a separator is returned whole.
func CountryPrefix(phone string) string {
	prefix, _, _ := strings.Cut(strings.TrimSpace(phone), "-")
	return prefix
}

// SameCountry reports whether both phone numbers carry the same country code.
func SameCountry(a, b string) bool {
	return CountryPrefix(a) == CountryPrefix(b)
}
