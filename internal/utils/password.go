package utils

import "strings"

const passwordSpecials = ".@$!%*?&"

// IsStrongPassword requires 8+ characters drawn from letters, digits and
// .@$!%*?&, with at least one lower, upper, digit and special character.
func IsStrongPassword(pw string) bool {
	if len(pw) < 8 {
		return false
	}
	var lower, upper, digit, special bool
	for _, r := range pw {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		default:
			return false
		}
	}
	return lower && upper && digit && special
}
