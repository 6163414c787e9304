package utils

import (
	"regexp"
	"strings"
)

var personNamePattern = regexp.MustCompile(`^[\p{L} -]+$`)

// IsPersonName reports whether s contains only letters, spaces and hyphens
func IsPersonName(s string) bool {
	return personNamePattern.MatchString(s)
}

// HasMarkup reports whether s contains any of the characters < > { }
func HasMarkup(s string) bool {
	return strings.ContainsAny(s, "<>{}")
}
