// Package codec maps non-negative integers onto short URL-safe strings.
package codec

import "strings"

// Alphabet is the 62-symbol slug alphabet. Slugs contain nothing else.
const Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const base = uint64(len(Alphabet))

// MaxSlugLen bounds slug length for both generated and custom slugs.
const MaxSlugLen = 10

// Encode converts n into its base62 representation, least-significant symbol
// first. Distinct inputs always yield distinct outputs; ordering is not
// preserved and is not needed, slugs are looked up as opaque keys.
func Encode(n uint64) string {
	if n == 0 {
		// A zero-length string is not a usable store key.
		return string(Alphabet[0])
	}

	var b strings.Builder
	for n > 0 {
		b.WriteByte(Alphabet[n%base])
		n /= base
	}
	return b.String()
}

// ValidSlug reports whether s is usable as a slug: 1 to MaxSlugLen symbols,
// all drawn from Alphabet.
func ValidSlug(s string) bool {
	if len(s) == 0 || len(s) > MaxSlugLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !strings.ContainsRune(Alphabet, rune(s[i])) {
			return false
		}
	}
	return true
}
