package ctx

import (
	"context"
	"os"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"

	"ghostline/logger"
	"ghostline/types"
)

const (
	importSnippetMaxLines = 60
	maxImportSnippets     = 4
)

// qualifierPattern matches selector expressions like "fmt.Println" in the
// prefix; the captured group is the package qualifier.
var qualifierPattern = regexp.MustCompile(`\b([a-z][A-Za-z0-9_]*)\.[A-Z_][A-Za-z0-9_]*`)

// ImportSource resolves package qualifiers referenced in the prefix to the
// files defining them. Resolution uses go/packages, so only Go files yield
// snippets; other languages produce none.
type ImportSource struct{}

// NewImportSource creates the import-definitions source.
func NewImportSource() *ImportSource { return &ImportSource{} }

// Kind implements Source.
func (s *ImportSource) Kind() types.SourceKind { return types.SourceImport }

// Gather implements Source.
func (s *ImportSource) Gather(ctx context.Context, req *Request) []types.CodeSnippet {
	if req.Language != "go" || req.FilePath == "" {
		return nil
	}

	quals := referencedQualifiers(req.Prefix)
	if len(quals) == 0 {
		return nil
	}

	cfg := &packages.Config{
		Mode:    packages.NeedName | packages.NeedFiles | packages.NeedImports | packages.NeedDeps,
		Context: ctx,
		Dir:     req.WorkspaceRoot,
	}
	pkgs, err := packages.Load(cfg, "file="+req.FilePath)
	if err != nil {
		logger.Debug("imports: load failed for %s: %v", req.FilePath, err)
		return nil
	}
	if len(pkgs) == 0 {
		return nil
	}

	// Deterministic walk over the imports map
	var paths []string
	for path := range pkgs[0].Imports {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var snippets []types.CodeSnippet
	for _, path := range paths {
		if len(snippets) >= maxImportSnippets {
			break
		}
		imp := pkgs[0].Imports[path]
		if imp == nil || !quals[imp.Name] || len(imp.GoFiles) == 0 {
			continue
		}
		file := imp.GoFiles[0]
		content := readFileHead(file, importSnippetMaxLines)
		if content == "" {
			continue
		}
		snippets = append(snippets, types.CodeSnippet{
			FilePath: file,
			Content:  content,
			Source:   types.SourceImport,
		})
	}
	return snippets
}

// referencedQualifiers extracts the set of package qualifiers used in the
// prefix.
func referencedQualifiers(prefix string) map[string]bool {
	matches := qualifierPattern.FindAllStringSubmatch(prefix, -1)
	if len(matches) == 0 {
		return nil
	}
	quals := make(map[string]bool, len(matches))
	for _, m := range matches {
		quals[m[1]] = true
	}
	return quals
}

// readFileHead returns the first maxLines lines of a file, or "" on error.
func readFileHead(path string, maxLines int) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	lines := strings.Split(string(data), "\n")
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	return strings.Join(lines, "\n")
}
