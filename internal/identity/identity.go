// Package identity provides the canonical form of user identifiers.
// Every dataset join in the service keys on the normalized identifier,
// so two raw rows describe the same user iff Normalize agrees on them.
package identity

import "strings"

// Normalize trims surrounding whitespace and lowercases the raw
// identifier. Idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
