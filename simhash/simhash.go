// Package simhash computes locality-sensitive 64-bit fingerprints of article
// text. Near-identical articles (the same story syndicated at different
// URLs) land within a few bits of each other, so Hamming distance gives a
// cheap prefilter before the full TF-IDF pairwise comparison.
package simhash

import (
	"hash/fnv"
	"math/bits"
	"strings"
	"unicode"
)

// Fingerprint computes a 64-bit SimHash of the given text.
//
// Tokens are lowercased and stripped of surrounding punctuation before
// hashing, so "Go," and "go" vote for the same bits. Each token's FNV-64a
// hash votes bit-by-bit into a 64-lane accumulator; the sign of each lane
// becomes one bit of the fingerprint. Empty or punctuation-only input
// returns 0.
func Fingerprint(text string) uint64 {
	var vector [64]int
	voted := false

	for _, field := range strings.Fields(text) {
		token := normalizeToken(field)
		if token == "" {
			continue
		}
		voted = true

		h := fnv.New64a()
		h.Write([]byte(token))
		hash := h.Sum64()

		for i := 0; i < 64; i++ {
			if hash&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}

	if !voted {
		return 0
	}

	var fingerprint uint64
	for i := 0; i < 64; i++ {
		if vector[i] > 0 {
			fingerprint |= 1 << uint(i)
		}
	}
	return fingerprint
}

// normalizeToken lowercases and trims non-letter, non-digit runes from both
// ends of a whitespace-delimited token.
func normalizeToken(s string) string {
	trimmed := strings.TrimFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.ToLower(trimmed)
}

// Distance returns the Hamming distance between two SimHash fingerprints.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Similar reports whether two fingerprints are within threshold bits of
// each other.
func Similar(a, b uint64, threshold int) bool {
	return Distance(a, b) <= threshold
}
