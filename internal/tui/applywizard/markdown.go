package applywizard

import (
	"strings"

	"charm.land/glamour/v2"
	"charm.land/lipgloss/v2"
)

// markdownCache remembers the last rendering so View stays cheap.
type markdownCache struct {
	source   string
	width    int
	rendered string
}

// render renders markdown with glamour, falling back to plain wrapped text.
func (c *markdownCache) render(source string, width int) string {
	width = min(width, 100)
	if width < 10 {
		width = 10
	}
	if c.rendered != "" && c.source == source && c.width == width {
		return c.rendered
	}
	c.source, c.width = source, width
	c.rendered = renderMarkdown(source, width)
	return c.rendered
}

func renderMarkdown(source string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return lipgloss.NewStyle().Width(width).Render(source)
	}
	out, err := r.Render(source)
	if err != nil {
		return lipgloss.NewStyle().Width(width).Render(source)
	}
	// glamour pads with blank lines on both ends
	return strings.Trim(out, "\n")
}
