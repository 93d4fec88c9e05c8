package ctx

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"ghostline/types"
)

const (
	workspaceMaxFiles       = 200
	workspaceMaxSnippets    = 3
	workspaceSnippetRadius  = 10 // lines kept around a match
	workspaceMaxFileBytes   = 512 * 1024
	workspaceMinQueryLength = 3
)

var skippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"target":       true,
	".venv":        true,
	"__pycache__":  true,
}

var identifierPattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// WorkspaceSource is a bounded text search over the project tree for the
// identifier nearest the cursor.
type WorkspaceSource struct{}

// NewWorkspaceSource creates the workspace-search source.
func NewWorkspaceSource() *WorkspaceSource { return &WorkspaceSource{} }

// Kind implements Source.
func (s *WorkspaceSource) Kind() types.SourceKind { return types.SourceWorkspace }

// Gather implements Source. The walk is depth-first in lexical order and
// visits at most workspaceMaxFiles files, so results are deterministic for
// an unchanged tree.
func (s *WorkspaceSource) Gather(ctx context.Context, req *Request) []types.CodeSnippet {
	if req.WorkspaceRoot == "" {
		return nil
	}
	query := queryIdentifier(req.Prefix)
	if len(query) < workspaceMinQueryLength {
		return nil
	}

	ext := filepath.Ext(req.FilePath)
	visited := 0
	var snippets []types.CodeSnippet

	filepath.WalkDir(req.WorkspaceRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil || visited >= workspaceMaxFiles || len(snippets) >= workspaceMaxSnippets {
			return filepath.SkipAll
		}
		if d.IsDir() {
			if skippedDirs[d.Name()] || strings.HasPrefix(d.Name(), ".") && path != req.WorkspaceRoot {
				return filepath.SkipDir
			}
			return nil
		}
		if ext != "" && filepath.Ext(path) != ext {
			return nil
		}
		if path == req.FilePath {
			return nil
		}
		if info, err := d.Info(); err != nil || info.Size() > workspaceMaxFileBytes {
			return nil
		}
		visited++

		if snippet := matchFile(path, query); snippet != "" {
			snippets = append(snippets, types.CodeSnippet{
				FilePath: path,
				Content:  snippet,
				Source:   types.SourceWorkspace,
			})
		}
		return nil
	})

	return snippets
}

// queryIdentifier picks the last identifier of the last non-blank prefix
// line as the search term.
func queryIdentifier(prefix string) string {
	lines := strings.Split(prefix, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		ids := identifierPattern.FindAllString(lines[i], -1)
		if len(ids) > 0 {
			return ids[len(ids)-1]
		}
	}
	return ""
}

// matchFile returns the lines surrounding the first occurrence of query in
// the file, or "".
func matchFile(path, query string) string {
	data, err := os.ReadFile(path)
	if err != nil || !strings.Contains(string(data), query) {
		return ""
	}

	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		if !strings.Contains(line, query) {
			continue
		}
		start := max(0, i-workspaceSnippetRadius)
		end := min(len(lines), i+workspaceSnippetRadius+1)
		return strings.Join(lines[start:end], "\n")
	}
	return ""
}
