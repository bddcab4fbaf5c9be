package chat

import (
	"regexp"
	"strings"
)

var phonePattern = regexp.MustCompile(`^\+?\d{7,14}$`)

// NormalizePhone drops spaces, dashes, dots and parentheses users type
// between digit groups.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '.', '(', ')', '\t':
			return -1
		}
		return r
	}, strings.TrimSpace(phone))
}

// IsValidPhone checks an optional leading "+" followed by 7 to 14 digits.
func IsValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}
