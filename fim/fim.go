package fim

import "strings"

// Template describes how a model family wraps prefix and suffix with
// sentinel tokens, and which tokens terminate generation.
type Template struct {
	PrefixToken string
	SuffixToken string
	MiddleToken string
	// SuffixFirst selects the Codestral-style layout: the suffix sentinel
	// and suffix come before the prefix sentinel and prefix, and generation
	// continues directly after the prefix with no middle sentinel.
	SuffixFirst bool
	// Stop tokens in declaration order; also stripped defensively from
	// responses in case the backend leaks one.
	Stop []string
}

// Render wraps prefix and suffix per the template's declared sentinel layout.
// Rendering branches on SuffixFirst, never on an assumed universal order.
func (t *Template) Render(prefix, suffix string) string {
	if t.SuffixFirst {
		return t.SuffixToken + suffix + t.PrefixToken + prefix
	}
	return t.PrefixToken + prefix + t.SuffixToken + suffix + t.MiddleToken
}

// StripAtStopToken cuts text at the first occurrence of any declared stop
// token. Backends usually honor the stop list themselves; this guards
// against leaked sentinels.
func (t *Template) StripAtStopToken(text string) string {
	cut := len(text)
	for _, stop := range t.Stop {
		if stop == "" {
			continue
		}
		if idx := strings.Index(text, stop); idx >= 0 && idx < cut {
			cut = idx
		}
	}
	return text[:cut]
}

var (
	codestral = Template{
		PrefixToken: "[PREFIX]",
		SuffixToken: "[SUFFIX]",
		SuffixFirst: true,
		Stop:        []string{"[PREFIX]", "[SUFFIX]", "</s>"},
	}
	qwen = Template{
		PrefixToken: "<|fim_prefix|>",
		SuffixToken: "<|fim_suffix|>",
		MiddleToken: "<|fim_middle|>",
		Stop:        []string{"<|endoftext|>", "<|fim_prefix|>", "<|fim_suffix|>", "<|fim_middle|>"},
	}
	starcoder = Template{
		PrefixToken: "<fim_prefix>",
		SuffixToken: "<fim_suffix>",
		MiddleToken: "<fim_middle>",
		Stop:        []string{"<|endoftext|>", "<fim_prefix>", "<fim_suffix>", "<fim_middle>"},
	}
	codellama = Template{
		PrefixToken: "<PRE> ",
		SuffixToken: " <SUF>",
		MiddleToken: " <MID>",
		Stop:        []string{"<EOT>", "<PRE>", "<SUF>", "<MID>"},
	}
	deepseek = Template{
		PrefixToken: "<｜fim▁begin｜>",
		SuffixToken: "<｜fim▁hole｜>",
		MiddleToken: "<｜fim▁end｜>",
		Stop:        []string{"<｜fim▁begin｜>", "<｜fim▁hole｜>", "<｜fim▁end｜>", "<|EOT|>"},
	}
	codegemma = Template{
		PrefixToken: "<|fim_prefix|>",
		SuffixToken: "<|fim_suffix|>",
		MiddleToken: "<|fim_middle|>",
		Stop:        []string{"<|file_separator|>", "<|fim_prefix|>", "<|fim_suffix|>", "<|fim_middle|>"},
	}
)

// families maps a lowercase model-id substring to its template. Checked in
// order so more specific names win.
var families = []struct {
	match    string
	template Template
}{
	{"codestral", codestral},
	{"deepseek", deepseek},
	{"starcoder", starcoder},
	{"codellama", codellama},
	{"code-llama", codellama},
	{"codegemma", codegemma},
	{"qwen", qwen},
}

// ForModel returns the template bound to a model id, matching on model
// family. Unknown models get the qwen-style layout, the most widely
// implemented convention.
func ForModel(modelID string) Template {
	id := strings.ToLower(modelID)
	for _, f := range families {
		if strings.Contains(id, f.match) {
			return f.template
		}
	}
	return qwen
}
