package types

import "time"

// TriggerKind distinguishes automatic (typing) triggers from explicit
// user-invoked ones.
type TriggerKind int

const (
	TriggerAutomatic TriggerKind = iota
	TriggerExplicit
)

// CompletionRequest is the point-in-time snapshot taken when a completion is
// triggered. It is immutable for the lifetime of one request.
type CompletionRequest struct {
	FilePath string
	Language string
	Prefix   string
	Suffix   string
	// Cursor position within the file
	CursorRow int // 1-indexed
	CursorCol int // 0-indexed
	Trigger   TriggerKind
}

// CompletionResult is the outcome of a dispatched completion.
// A nil *CompletionResult means no backend response was reached (absence);
// a non-nil result with empty Text means the backend responded but the
// output was degenerate. Callers treat both as "nothing to show", the
// distinction only matters for diagnostics.
type CompletionResult struct {
	Text     string
	ModelID  string
	Provider string
}

// SourceKind is the origin category of a candidate context snippet.
type SourceKind int

const (
	SourceRecentlyEdited SourceKind = iota
	SourceImport
	SourceWorkspace
	SourceClipboard
	SourceRecentlyVisited
)

// String returns the config/wire name of a source kind.
func (k SourceKind) String() string {
	switch k {
	case SourceRecentlyEdited:
		return "recently_edited"
	case SourceImport:
		return "imports"
	case SourceWorkspace:
		return "workspace"
	case SourceClipboard:
		return "clipboard"
	case SourceRecentlyVisited:
		return "recently_visited"
	default:
		return "unknown"
	}
}

// Priority returns the admission tier of a source kind, lower is better.
// Recently-visited snippets share the lowest tier with clipboard.
func (k SourceKind) Priority() int {
	switch k {
	case SourceRecentlyEdited:
		return 1
	case SourceImport:
		return 2
	case SourceWorkspace:
		return 3
	default:
		return 4
	}
}

// LineRange is a 1-indexed inclusive line span within a file.
type LineRange struct {
	Start int
	End   int
}

// CodeSnippet is a candidate context snippet produced by one context source.
type CodeSnippet struct {
	FilePath string
	Content  string
	Source   SourceKind
	Range    *LineRange // optional
}

// ContextBudget bounds how much context the ranker admits per request.
type ContextBudget struct {
	MaxSnippets      int
	MaxSnippetTokens int
	EnabledSources   map[SourceKind]bool
}

// SourceEnabled reports whether a source participates in gathering.
// A nil EnabledSources map means all sources are enabled.
func (b ContextBudget) SourceEnabled(k SourceKind) bool {
	if b.EnabledSources == nil {
		return true
	}
	return b.EnabledSources[k]
}

// ProviderSettings is the per-backend configuration an adapter is built from.
type ProviderSettings struct {
	BaseURL         string
	APIKey          string
	Model           string
	MaxOutputTokens int
	Temperature     float64
	Timeout         time.Duration
}

// UsageStats are the engine's monotonic counters, reset only explicitly.
type UsageStats struct {
	TotalRequests         int64
	SuccessfulCompletions int64
	AcceptedCompletions   int64
}

// TrackingRecord correlates a dispatched completion with later acceptance
// events. Keyed by CompletionID in the engine's bounded tracking store.
type TrackingRecord struct {
	CompletionID string
	ModelID      string
	Provider     string
	Language     string
	FilePath     string
	StartedAt    time.Time
	Text         string // attached on success, empty until then
}
