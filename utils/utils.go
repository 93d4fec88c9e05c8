package utils

import "unicode/utf8"

// Token estimation constants
const (
	// AvgCharsPerToken is the approximation used everywhere instead of a
	// real tokenizer.
	AvgCharsPerToken = 4
)

// EstimateCharsFromTokens estimates the number of characters for a given token count
func EstimateCharsFromTokens(tokens int) int {
	return tokens * AvgCharsPerToken
}

// EstimateTokens estimates the token count of a string.
func EstimateTokens(s string) int {
	return (len(s) + AvgCharsPerToken - 1) / AvgCharsPerToken
}

// TruncatePrefix keeps the trailing maxTokens worth of prefix, cutting at a
// line boundary when one falls inside the dropped region so the model never
// sees a half line at the top.
func TruncatePrefix(prefix string, maxTokens int) string {
	if maxTokens <= 0 {
		return prefix
	}
	maxChars := EstimateCharsFromTokens(maxTokens)
	if len(prefix) <= maxChars {
		return prefix
	}

	cut := len(prefix) - maxChars
	for i := cut; i < len(prefix); i++ {
		if prefix[i] == '\n' {
			return prefix[i+1:]
		}
	}
	return prefix[cut:]
}

// TruncateSuffix keeps the leading maxTokens worth of suffix, cutting at the
// last full line inside the budget.
func TruncateSuffix(suffix string, maxTokens int) string {
	if maxTokens <= 0 {
		return suffix
	}
	maxChars := EstimateCharsFromTokens(maxTokens)
	if len(suffix) <= maxChars {
		return suffix
	}

	for i := maxChars; i > 0; i-- {
		if suffix[i-1] == '\n' {
			return suffix[:i]
		}
	}
	return suffix[:maxChars]
}

// TrimToRuneBoundary cuts s to at most max bytes, backing up so the cut
// never splits a multi-byte rune.
func TrimToRuneBoundary(s string, max int) string {
	if max < 0 {
		max = 0
	}
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// LastLine returns the final line of s, the text after the last newline.
func LastLine(s string) string {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '\n' {
			return s[i+1:]
		}
	}
	return s
}

// FirstLine returns the text before the first newline of s.
func FirstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
