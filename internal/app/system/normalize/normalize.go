// Package normalize holds small canonicalization helpers shared by stores
// and handlers, so the same value is always compared the same way.
package normalize

import "strings"

// Email lowercases and trims an email address for storage and lookup.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Role lowercases and trims a role string. Unknown roles pass through
// unchanged; validation is the caller's job.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Status lowercases and trims a user status string.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
