// Package uniquekey derives the duplicate-prevention key for hub names.
package uniquekey

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Derive returns sha256(normalized name) as lowercase hex.
//
// Normalization trims, collapses runs of internal whitespace to single
// spaces, and lowercases, so:
//
//	Derive("Team A12") == Derive("  Team   A12  ")
//	Derive("Team A12") != Derive("Team A 12")
func Derive(name string) string {
	sum := sha256.Sum256([]byte(Normalize(name)))
	return hex.EncodeToString(sum[:])
}

// Normalize returns the canonical form of a hub name used for the key.
func Normalize(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
