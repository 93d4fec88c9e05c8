package ctx

import (
	"context"
	"sync"
	"time"

	"ghostline/types"
)

// DefaultLogCapacity bounds each recency log.
const DefaultLogCapacity = 32

// RecencyEntry is one caller-reported range of edited or visited code.
type RecencyEntry struct {
	FilePath  string
	StartLine int // 1-indexed
	EndLine   int // 1-indexed, inclusive
	Content   string
	At        time.Time
}

// RecencyLog is a bounded, newest-first log of ranges fed by the host
// editor. The engine owns one for edits and one for visits.
type RecencyLog struct {
	mu      sync.Mutex
	entries []RecencyEntry
	max     int
}

// NewRecencyLog creates a log holding at most max entries.
func NewRecencyLog(max int) *RecencyLog {
	if max <= 0 {
		max = DefaultLogCapacity
	}
	return &RecencyLog{max: max}
}

// Record prepends an entry, replacing an existing entry for the same file
// and range, and evicting the oldest entry past capacity.
func (l *RecencyLog) Record(filePath string, startLine, endLine int, content string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := RecencyEntry{
		FilePath:  filePath,
		StartLine: startLine,
		EndLine:   endLine,
		Content:   content,
		At:        time.Now(),
	}

	kept := make([]RecencyEntry, 0, len(l.entries)+1)
	kept = append(kept, entry)
	for _, e := range l.entries {
		if e.FilePath == filePath && e.StartLine == startLine && e.EndLine == endLine {
			continue
		}
		kept = append(kept, e)
	}
	if len(kept) > l.max {
		kept = kept[:l.max]
	}
	l.entries = kept
}

// Snapshot returns the entries newest-first.
func (l *RecencyLog) Snapshot() []RecencyEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]RecencyEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// RecencySource adapts a RecencyLog into a context source. The same type
// serves both the recently-edited and recently-visited kinds.
type RecencySource struct {
	log  *RecencyLog
	kind types.SourceKind
}

// NewRecentEditsSource creates the recently-edited source over log.
func NewRecentEditsSource(log *RecencyLog) *RecencySource {
	return &RecencySource{log: log, kind: types.SourceRecentlyEdited}
}

// NewRecentVisitsSource creates the recently-visited source over log.
func NewRecentVisitsSource(log *RecencyLog) *RecencySource {
	return &RecencySource{log: log, kind: types.SourceRecentlyVisited}
}

// Kind implements Source.
func (s *RecencySource) Kind() types.SourceKind { return s.kind }

// Gather implements Source.
func (s *RecencySource) Gather(ctx context.Context, req *Request) []types.CodeSnippet {
	var snippets []types.CodeSnippet
	for _, e := range s.log.Snapshot() {
		if e.Content == "" {
			continue
		}
		snippets = append(snippets, types.CodeSnippet{
			FilePath: e.FilePath,
			Content:  e.Content,
			Source:   s.kind,
			Range:    &types.LineRange{Start: e.StartLine, End: e.EndLine},
		})
	}
	return snippets
}
