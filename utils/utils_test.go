package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"ghostline/assert"
)

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""), "empty string")
	assert.Equal(t, 1, EstimateTokens("abc"), "rounds up")
	assert.Equal(t, 1, EstimateTokens("abcd"), "exact boundary")
	assert.Equal(t, 2, EstimateTokens("abcde"), "just past boundary")
}

func TestTruncatePrefix_KeepsTail(t *testing.T) {
	prefix := "line one\nline two\nline three"

	// 3 tokens = 12 chars, so "line three" (10 chars) survives whole
	got := TruncatePrefix(prefix, 3)

	assert.Equal(t, "line three", got, "cut lands on the line boundary")
}

func TestTruncatePrefix_UnderBudget(t *testing.T) {
	assert.Equal(t, "short", TruncatePrefix("short", 100), "under-budget prefix untouched")
	assert.Equal(t, "short", TruncatePrefix("short", 0), "zero budget disables truncation")
}

func TestTruncatePrefix_NoNewlineInTail(t *testing.T) {
	prefix := strings.Repeat("a", 100)

	got := TruncatePrefix(prefix, 10)

	assert.Equal(t, 40, len(got), "hard cut when no line boundary exists")
}

func TestTruncateSuffix_KeepsHead(t *testing.T) {
	suffix := "line one\nline two\nline three"

	got := TruncateSuffix(suffix, 3)

	assert.Equal(t, "line one\n", got, "cut at the last full line inside the budget")
}

func TestTruncateSuffix_UnderBudget(t *testing.T) {
	assert.Equal(t, "short", TruncateSuffix("short", 100), "under-budget suffix untouched")
}

func TestTrimToRuneBoundary(t *testing.T) {
	assert.Equal(t, "abc", TrimToRuneBoundary("abc", 10), "under-limit string untouched")
	assert.Equal(t, "ab", TrimToRuneBoundary("abcd", 2), "ascii cuts exactly at the limit")

	// "世" is 3 bytes; a 4-byte limit would split the second rune
	got := TrimToRuneBoundary("世界", 4)
	assert.Equal(t, "世", got, "cut backs up to the rune boundary")
	assert.True(t, utf8.ValidString(got), "result is valid UTF-8")

	assert.Equal(t, "", TrimToRuneBoundary("世", 2), "limit inside the only rune yields empty")
	assert.Equal(t, "", TrimToRuneBoundary("abc", -1), "negative limit yields empty")
}

func TestLastLine(t *testing.T) {
	assert.Equal(t, "    ", LastLine("def hello():\n    "), "text after last newline")
	assert.Equal(t, "whole", LastLine("whole"), "no newline returns everything")
	assert.Equal(t, "", LastLine("trailing\n"), "trailing newline yields empty last line")
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "def hello():", FirstLine("def hello():\n    pass"), "text before first newline")
	assert.Equal(t, "whole", FirstLine("whole"), "no newline returns everything")
}
