package ctx

import (
	"sort"
	"strings"

	"ghostline/types"
	"ghostline/utils"
)

// TruncationMarker is appended to a snippet cut by the per-snippet budget.
const TruncationMarker = "... [truncated]"

// lineComments maps a language id to its line-comment marker. Languages
// absent here fall back to "//".
var lineComments = map[string]string{
	"python":      "#",
	"ruby":        "#",
	"perl":        "#",
	"shell":       "#",
	"shellscript": "#",
	"bash":        "#",
	"yaml":        "#",
	"toml":        "#",
	"r":           "#",
	"elixir":      "#",
	"lua":         "--",
	"sql":         "--",
	"haskell":     "--",
	"clojure":     ";;",
	"lisp":        ";;",
	"vb":          "'",
}

// blockComments maps languages with no line-comment form to a single
// open/close pair wrapping the whole context section.
var blockComments = map[string][2]string{
	"html": {"<!--", "-->"},
	"xml":  {"<!--", "-->"},
	"css":  {"/*", "*/"},
}

// CommentMarkers returns the comment-opening markers for a language:
// its line-comment marker, or the block opener plus the "* " continuation
// for block-comment-only languages, or the C-family set for languages the
// tables do not name.
func CommentMarkers(language string) []string {
	lang := strings.ToLower(language)
	if pair, ok := blockComments[lang]; ok {
		return []string{pair[0], "* "}
	}
	if marker, ok := lineComments[lang]; ok {
		return []string{marker}
	}
	return []string{"//", "/*", "* "}
}

// Rank reduces raw snippets to the admitted, budgeted set. The reduction is
// deterministic: groups walk in fixed priority order, snippets within a
// group in yield order, duplicate filepaths are skipped first-wins across
// groups, over-budget content is truncated with a marker, and admission
// stops at the snippet budget.
func Rank(snippets []types.CodeSnippet, prefix, currentPath string, budget types.ContextBudget) []types.CodeSnippet {
	maxSnippets := budget.MaxSnippets
	if maxSnippets <= 0 {
		maxSnippets = 5
	}
	maxChars := utils.EstimateCharsFromTokens(budget.MaxSnippetTokens)
	if maxChars <= 0 {
		maxChars = utils.EstimateCharsFromTokens(250)
	}

	ordered := make([]types.CodeSnippet, len(snippets))
	copy(ordered, snippets)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Source.Priority() < ordered[j].Source.Priority()
	})

	seen := make(map[string]bool)
	var admitted []types.CodeSnippet
	for _, s := range ordered {
		if len(admitted) >= maxSnippets {
			break
		}
		if strings.TrimSpace(s.Content) == "" {
			continue
		}
		// The completed file already has full context via prefix/suffix
		if s.FilePath == currentPath {
			continue
		}
		// A snippet already visible in the prefix adds no information
		if strings.Contains(prefix, s.Content) {
			continue
		}
		if seen[s.FilePath] {
			continue
		}
		seen[s.FilePath] = true

		if len(s.Content) > maxChars {
			s.Content = utils.TrimToRuneBoundary(s.Content, maxChars) + TruncationMarker
		}
		admitted = append(admitted, s)
	}
	return admitted
}

// FormatBlock renders admitted snippets into the comment-annotated context
// block that is prepended to the prompt prefix. Returns "" when nothing was
// admitted.
func FormatBlock(admitted []types.CodeSnippet, currentPath, language string) string {
	if len(admitted) == 0 {
		return ""
	}

	var sb strings.Builder
	for _, s := range admitted {
		sb.WriteString("Path: ")
		sb.WriteString(RelativePath(s.FilePath))
		sb.WriteString("\n")
		sb.WriteString(s.Content)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Path: ")
	sb.WriteString(RelativePath(currentPath))

	return commentOut(sb.String(), language)
}

// commentOut prefixes every line with the language's line-comment marker,
// or wraps the whole section once for block-comment-only languages.
func commentOut(block, language string) string {
	lang := strings.ToLower(language)

	if pair, ok := blockComments[lang]; ok {
		return pair[0] + "\n" + block + "\n" + pair[1]
	}

	marker, ok := lineComments[lang]
	if !ok {
		marker = "//"
	}

	lines := strings.Split(block, "\n")
	for i, line := range lines {
		if line == "" {
			lines[i] = marker
		} else {
			lines[i] = marker + " " + line
		}
	}
	return strings.Join(lines, "\n")
}

// RelativePath keeps at most the last two path segments; a single-segment
// path renders as the bare filename. The clipboard pseudo-file renders as
// the literal "clipboard".
func RelativePath(path string) string {
	if path == ClipboardPath {
		return ClipboardPath
	}
	parts := strings.Split(strings.ReplaceAll(path, "\\", "/"), "/")
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) <= 1 {
		return path
	}
	if len(kept) > 2 {
		kept = kept[len(kept)-2:]
	}
	return strings.Join(kept, "/")
}
