package ctx

import (
	"strings"
	"testing"
	"unicode/utf8"

	"ghostline/assert"
	"ghostline/types"
)

func snippet(path, content string, kind types.SourceKind) types.CodeSnippet {
	return types.CodeSnippet{FilePath: path, Content: content, Source: kind}
}

func TestRank_PriorityOrder(t *testing.T) {
	in := []types.CodeSnippet{
		snippet("c.go", "workspace match", types.SourceWorkspace),
		snippet("a.go", "recently edited", types.SourceRecentlyEdited),
		snippet("b.go", "import definition", types.SourceImport),
	}

	out := Rank(in, "", "current.go", types.ContextBudget{})

	assert.Len(t, 3, out, "all snippets admitted")
	assert.Equal(t, types.SourceRecentlyEdited, out[0].Source, "recently edited first")
	assert.Equal(t, types.SourceImport, out[1].Source, "imports second")
	assert.Equal(t, types.SourceWorkspace, out[2].Source, "workspace third")
}

func TestRank_DedupByFilePath(t *testing.T) {
	in := []types.CodeSnippet{
		snippet("a.go", "edited version", types.SourceRecentlyEdited),
		snippet("a.go", "workspace version", types.SourceWorkspace),
	}

	out := Rank(in, "", "current.go", types.ContextBudget{})

	assert.Len(t, 1, out, "one snippet per filepath")
	assert.Equal(t, "edited version", out[0].Content, "higher-priority snippet wins")
}

func TestRank_ExcludesCurrentFileAndPrefixDuplicates(t *testing.T) {
	prefix := "package main\n\nfunc helper() int { return 42 }\n"
	in := []types.CodeSnippet{
		snippet("current.go", "anything", types.SourceRecentlyEdited),
		snippet("dup.go", "func helper() int { return 42 }", types.SourceImport),
		snippet("keep.go", "func other() {}", types.SourceWorkspace),
	}

	out := Rank(in, prefix, "current.go", types.ContextBudget{})

	assert.Len(t, 1, out, "current file and prefix duplicates excluded")
	assert.Equal(t, "keep.go", out[0].FilePath, "unrelated snippet survives")
}

func TestRank_SnippetBudget(t *testing.T) {
	in := []types.CodeSnippet{
		snippet("a.go", "aa", types.SourceRecentlyEdited),
		snippet("b.go", "bb", types.SourceRecentlyEdited),
		snippet("c.go", "cc", types.SourceRecentlyEdited),
	}

	out := Rank(in, "", "current.go", types.ContextBudget{MaxSnippets: 2})

	assert.Len(t, 2, out, "admission stops at the snippet budget")
}

func TestRank_TruncationMarker(t *testing.T) {
	long := strings.Repeat("x", 100)
	in := []types.CodeSnippet{snippet("a.go", long, types.SourceRecentlyEdited)}

	// 10 tokens = 40 chars
	out := Rank(in, "", "current.go", types.ContextBudget{MaxSnippetTokens: 10})

	assert.Len(t, 1, out, "snippet admitted")
	assert.True(t, strings.HasSuffix(out[0].Content, TruncationMarker), "over-budget content carries the marker")
	assert.Equal(t, 40+len(TruncationMarker), len(out[0].Content), "content cut at the character budget")
}

func TestRank_TruncationKeepsValidUTF8(t *testing.T) {
	// 20 three-byte runes (60 bytes); the 40-byte budget falls mid-rune
	long := strings.Repeat("世", 20)
	in := []types.CodeSnippet{snippet("a.go", long, types.SourceRecentlyEdited)}

	out := Rank(in, "", "current.go", types.ContextBudget{MaxSnippetTokens: 10})

	assert.Len(t, 1, out, "snippet admitted")
	assert.True(t, utf8.ValidString(out[0].Content), "truncation never splits a rune")
	assert.Equal(t, 39+len(TruncationMarker), len(out[0].Content), "cut backed up to the rune boundary")
}

func TestRank_DropsEmptySnippets(t *testing.T) {
	in := []types.CodeSnippet{
		snippet("a.go", "   \n\t", types.SourceRecentlyEdited),
		snippet("b.go", "real content", types.SourceWorkspace),
	}

	out := Rank(in, "", "current.go", types.ContextBudget{})

	assert.Len(t, 1, out, "whitespace-only snippets dropped")
}

func TestFormatBlock_Deterministic(t *testing.T) {
	admitted := []types.CodeSnippet{
		snippet("pkg/util.go", "func A() {}", types.SourceRecentlyEdited),
		snippet("pkg/other.go", "func B() {}", types.SourceImport),
	}

	first := FormatBlock(admitted, "src/current.go", "go")
	second := FormatBlock(admitted, "src/current.go", "go")

	assert.Equal(t, first, second, "formatting is byte-identical across calls")
}

func TestFormatBlock_CommentedAndPathAnnotated(t *testing.T) {
	admitted := []types.CodeSnippet{
		snippet("/home/u/proj/pkg/util.go", "func A() {}", types.SourceRecentlyEdited),
	}

	block := FormatBlock(admitted, "/home/u/proj/src/current.go", "go")

	for _, line := range strings.Split(block, "\n") {
		assert.True(t, strings.HasPrefix(line, "//"), "every line is commented out")
	}
	assert.True(t, strings.Contains(block, "// Path: pkg/util.go"), "snippet path annotation")
	assert.True(t, strings.Contains(block, "// Path: src/current.go"), "trailing current-file annotation")
}

func TestFormatBlock_PythonMarker(t *testing.T) {
	admitted := []types.CodeSnippet{
		snippet("lib/helpers.py", "def a():\n    pass", types.SourceRecentlyEdited),
	}

	block := FormatBlock(admitted, "app.py", "python")

	for _, line := range strings.Split(block, "\n") {
		assert.True(t, strings.HasPrefix(line, "#"), "python uses hash markers")
	}
}

func TestFormatBlock_BlockCommentLanguage(t *testing.T) {
	admitted := []types.CodeSnippet{
		snippet("styles/base.css", ".a { color: red; }", types.SourceRecentlyEdited),
	}

	block := FormatBlock(admitted, "main.css", "css")

	assert.True(t, strings.HasPrefix(block, "/*"), "single block comment opens the section")
	assert.True(t, strings.HasSuffix(block, "*/"), "single block comment closes the section")
	assert.Equal(t, 1, strings.Count(block, "/*"), "section wrapped exactly once")
}

func TestFormatBlock_Empty(t *testing.T) {
	assert.Equal(t, "", FormatBlock(nil, "current.go", "go"), "nothing admitted renders nothing")
}

func TestFormatBlock_ClipboardPath(t *testing.T) {
	admitted := []types.CodeSnippet{
		snippet(ClipboardPath, "copied code", types.SourceClipboard),
	}

	block := FormatBlock(admitted, "main.go", "go")

	assert.True(t, strings.Contains(block, "// Path: clipboard"), "clipboard pseudo-path renders literally")
}

func TestCommentMarkers(t *testing.T) {
	assert.DeepEqual(t, []string{"#"}, CommentMarkers("python"), "line-comment language")
	assert.DeepEqual(t, []string{"--"}, CommentMarkers("SQL"), "case-insensitive lookup")
	assert.DeepEqual(t, []string{"<!--", "* "}, CommentMarkers("html"), "block-comment language")
	assert.DeepEqual(t, []string{"//", "/*", "* "}, CommentMarkers("c"), "unlisted language gets the c-family set")
	assert.DeepEqual(t, []string{"//", "/*", "* "}, CommentMarkers(""), "empty language gets the c-family set")
}

func TestRelativePath(t *testing.T) {
	assert.Equal(t, "pkg/util.go", RelativePath("/home/u/proj/pkg/util.go"), "last two segments kept")
	assert.Equal(t, "util.go", RelativePath("util.go"), "bare filename unchanged")
	assert.Equal(t, "pkg/util.go", RelativePath("pkg/util.go"), "two segments unchanged")
	assert.Equal(t, "clipboard", RelativePath(ClipboardPath), "clipboard sentinel")
}
