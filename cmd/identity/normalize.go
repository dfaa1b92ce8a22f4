package identity

import "strings"

// NormalizeUsername performs case-insensitive canonicalization.
// Only trim + lower-case for now; unicode-confusable rules can be layered
// behind a versioned policy later.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeEmail performs case-insensitive canonicalization.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeLogin canonicalizes a username-or-email login identifier.
// Both namespaces share the same canonical form, so a single normalization
// serves the combined lookup.
func NormalizeLogin(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
