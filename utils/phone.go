package utils

import (
	"regexp"
	"strings"
)

// phonePattern is the accepted shape of a phone number once formatting
// characters have been stripped
var phonePattern = regexp.MustCompile(`^\+?\d{10,15}$`)

var phoneSeparators = strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "")

// StripPhoneFormatting removes the separators customers commonly type
// (spaces, dashes, dots and parentheses) without touching anything else
func StripPhoneFormatting(phone string) string {
	return phoneSeparators.Replace(strings.TrimSpace(phone))
}

// IsValidPhone reports whether phone is 10-15 digits with an optional
// leading "+", after formatting characters are stripped
func IsValidPhone(phone string) bool {
	return phonePattern.MatchString(StripPhoneFormatting(phone))
}

// NormalizePhone returns phone as "+" followed by its digits only.
// NormalizePhone(NormalizePhone(x)) == NormalizePhone(x).
func NormalizePhone(phone string) string {
	var b strings.Builder
	b.Grow(len(phone) + 1)
	b.WriteByte('+')
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
