// Package limits provides bounds and sanitization for recurring-visit requests.
package limits

import (
	"strings"
	"unicode/utf8"
)

const (
	// DefaultOccurrences is used when a request does not name a count.
	DefaultOccurrences = 10

	// MaxOccurrences is the hard limit for occurrences per request (one year of dailies)
	MaxOccurrences = 366

	// MaxConcurrency is the hard limit for concurrent occurrence writers
	MaxConcurrency = 64

	// MaxGuardDays bounds the weekday scan window
	MaxGuardDays = 3660

	// MaxErrorMessageLength is the maximum length for logged error messages
	MaxErrorMessageLength = 4096
)

// ClampOccurrences maps a requested count into [0, MaxOccurrences].
// Zero stays zero: asking for nothing yields nothing.
func ClampOccurrences(n int) int {
	if n < 0 {
		return 0
	}
	if n > MaxOccurrences {
		return MaxOccurrences
	}
	return n
}

// ClampConcurrency ensures concurrency is within limits
func ClampConcurrency(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxConcurrency {
		return MaxConcurrency
	}
	return n
}

// ClampGuardDays keeps a scan window positive and bounded, falling back to
// def for non-positive values.
func ClampGuardDays(n, def int) int {
	if n <= 0 {
		return def
	}
	if n > MaxGuardDays {
		return MaxGuardDays
	}
	return n
}

// SanitizeErrorMessage truncates and strips control characters from error messages
func SanitizeErrorMessage(msg string) string {
	if msg == "" {
		return ""
	}

	var sanitized strings.Builder
	sanitized.Grow(len(msg))

	for _, r := range msg {
		if r == '\n' || r == '\t' || (r >= 32 && r != 127) {
			sanitized.WriteRune(r)
		}
	}

	result := sanitized.String()
	if utf8.RuneCountInString(result) > MaxErrorMessageLength {
		runes := []rune(result)
		result = string(runes[:MaxErrorMessageLength-3]) + "..."
	}

	return result
}
