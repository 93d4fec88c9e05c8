package provider

import (
	"context"
	"strings"

	"ghostline/fim"
	"ghostline/types"
)

// Prompt budgets shared by all adapters, in approximate tokens.
const (
	PrefixTokenBudget = 1500
	SuffixTokenBudget = 500
)

// Temperature biases backends toward deterministic completions.
const Temperature = 0.01

// EffectiveTemperature returns the configured sampling temperature, or the
// near-deterministic default when unset.
func EffectiveTemperature(configured float64) float64 {
	if configured > 0 {
		return configured
	}
	return Temperature
}

// Provider is the capability contract every completion backend implements.
//
// GetCompletion returns (nil, nil) for every expected failure mode: missing
// credentials, transport errors, non-2xx responses, and cancellation. A
// non-nil result with empty Text means the backend responded but produced
// nothing usable. Errors are reserved for programmer mistakes.
type Provider interface {
	GetCompletion(ctx context.Context, req *types.CompletionRequest) (*types.CompletionResult, error)
	// IsAvailable is a cheap, side-effect-free readiness check.
	IsAvailable(ctx context.Context) bool
	DisplayName() string
	ModelID() string
}

// PostProcess applies the shared output gates: strip everything at and after
// the first leaked stop token, drop trailing whitespace, and reject
// degenerate output (empty, shorter than 2 characters, or pure whitespace)
// by returning the empty string.
func PostProcess(raw string, tmpl *fim.Template) string {
	text := tmpl.StripAtStopToken(raw)
	text = strings.TrimRight(text, " \t\r\n")
	if len(strings.TrimSpace(text)) < 2 {
		return ""
	}
	return text
}
