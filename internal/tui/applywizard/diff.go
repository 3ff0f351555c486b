package applywizard

import (
	"bytes"
	"strings"

	chroma "github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/mark3labs/applywiz/internal/tui/theme"
)

// HighlightDiff colors a unified diff for the terminal. Output falls back
// to the plain diff when chroma cannot format it.
func HighlightDiff(diff string) string {
	if diff == "" {
		return ""
	}
	lexer := lexers.Get("diff")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	formatter := formatters.Get("terminal16m")
	if formatter == nil {
		formatter = formatters.Get("terminal256")
	}
	if formatter == nil {
		return diff
	}

	base := styles.Get("catppuccin-mocha")
	if base == nil {
		base = styles.Fallback
	}
	// Token backgrounds follow the modal, not the chroma style.
	bg := chroma.MustParseColour(theme.Current().BgBase)
	style, err := base.Builder().Transform(func(entry chroma.StyleEntry) chroma.StyleEntry {
		entry.Background = bg
		return entry
	}).Build()
	if err != nil {
		style = base
	}

	iterator, err := lexer.Tokenise(nil, diff)
	if err != nil {
		return diff
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return diff
	}
	return strings.TrimRight(buf.String(), "\n")
}
