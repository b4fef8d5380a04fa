// Package stringutil provides common string utility functions.
package stringutil

import "unicode/utf8"

// Truncate returns at most maxBytes bytes of s without splitting a rune.
func Truncate(s string, maxBytes int) string {
	if maxBytes <= 0 {
		return ""
	}
	if len(s) <= maxBytes {
		return s
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// TruncateWithEllipsis is Truncate with a "..." suffix when s was shortened.
// The result, suffix included, fits in maxBytes.
func TruncateWithEllipsis(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	if maxBytes < 4 {
		return Truncate(s, maxBytes)
	}
	return Truncate(s, maxBytes-3) + "..."
}
