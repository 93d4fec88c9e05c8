package ctx

import (
	"context"
	"os/exec"
	"runtime"
	"strings"

	"ghostline/types"
	"ghostline/utils"
)

// ClipboardPath is the sentinel filepath for clipboard snippets, so dedup
// and rendering can special-case them.
const ClipboardPath = "clipboard"

// clipboardMaxBytes guards against huge clipboard payloads before the
// ranker's own truncation applies.
const clipboardMaxBytes = 16 * 1024

// ClipboardSource reads the system clipboard through platform paste tools.
type ClipboardSource struct{}

// NewClipboardSource creates the clipboard source.
func NewClipboardSource() *ClipboardSource { return &ClipboardSource{} }

// Kind implements Source.
func (s *ClipboardSource) Kind() types.SourceKind { return types.SourceClipboard }

// Gather implements Source.
func (s *ClipboardSource) Gather(ctx context.Context, req *Request) []types.CodeSnippet {
	text, err := readClipboard(ctx)
	if err != nil || strings.TrimSpace(text) == "" {
		return nil
	}
	if len(text) > clipboardMaxBytes {
		text = utils.TrimToRuneBoundary(text, clipboardMaxBytes)
	}
	return []types.CodeSnippet{{
		FilePath: ClipboardPath,
		Content:  text,
		Source:   types.SourceClipboard,
	}}
}

func readClipboard(ctx context.Context) (string, error) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "pbpaste")
	case "linux":
		if _, err := exec.LookPath("xclip"); err == nil {
			cmd = exec.CommandContext(ctx, "xclip", "-selection", "clipboard", "-o")
		} else if _, err := exec.LookPath("wl-paste"); err == nil {
			cmd = exec.CommandContext(ctx, "wl-paste", "--no-newline")
		} else {
			return "", exec.ErrNotFound
		}
	default:
		return "", exec.ErrNotFound
	}

	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}
