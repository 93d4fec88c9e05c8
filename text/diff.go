package text

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineChanges computes the added and deleted line counts between two texts.
// Used for the additions/deletions fields of telemetry events.
func LineChanges(before, after string) (additions, deletions int) {
	if before == after {
		return 0, 0
	}

	dmp := diffmatchpatch.New()
	beforeChars, afterChars, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(beforeChars, afterChars, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	for _, d := range diffs {
		n := countLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			additions += n
		case diffmatchpatch.DiffDelete:
			deletions += n
		}
	}
	return additions, deletions
}

// countLines counts lines in a diff chunk; a trailing newline does not open
// a new line.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}

// CharChanges computes character-level added/deleted counts between two
// texts.
func CharChanges(before, after string) (additions, deletions int) {
	if before == after {
		return 0, 0
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			additions += len(d.Text)
		case diffmatchpatch.DiffDelete:
			deletions += len(d.Text)
		}
	}
	return additions, deletions
}
