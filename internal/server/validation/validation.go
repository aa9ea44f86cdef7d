// Package validation checks credentials before they reach the store.
package validation

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	minPasswordLength = 8
	passwordSymbols   = "@#$%^&+!="

	maxEmailLength    = 254
	maxEmailLocalPart = 64
)

var validate = validator.New()

// IsValidEmail reports whether s is a bare address with a dotted domain, as
// the validator "email" tag accepts it, within the RFC 5321 length limits.
func IsValidEmail(s string) bool {
	if len(s) > maxEmailLength || strings.TrimSpace(s) != s {
		return false
	}
	local, _, ok := strings.Cut(s, "@")
	if !ok || len(local) > maxEmailLocalPart {
		return false
	}
	return validate.Var(s, "required,email") == nil
}

// IsStrongPassword reports whether s is at least 8 characters drawn only from
// letters, digits and @#$%^&+!=, with at least one lowercase letter, one
// uppercase letter, one digit and one of those symbols.
func IsStrongPassword(s string) bool {
	if len(s) < minPasswordLength {
		return false
	}

	var lower, upper, digit, symbol bool
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case isDigit(r):
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		default:
			return false
		}
	}
	return lower && upper && digit && symbol
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
