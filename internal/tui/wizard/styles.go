// Package wizard holds the reusable pieces of wizard-style screens: the
// button bar, hint bar, toast and modal overlay.
package wizard

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/mark3labs/applywiz/internal/tui/theme"
)

// RenderHintBar renders key/description pairs.
// Example: RenderHintBar("tab", "next field", "ctrl+s", "save")
// Returns: "tab next field • ctrl+s save"
func RenderHintBar(pairs ...string) string {
	if len(pairs) == 0 || len(pairs)%2 != 0 {
		return ""
	}
	s := theme.Current().S()

	var b strings.Builder
	for i := 0; i < len(pairs); i += 2 {
		if i > 0 {
			b.WriteString(" " + s.HintSeparator.Render("•") + " ")
		}
		b.WriteString(s.HintKey.Render(pairs[i]) + " " + s.HintDesc.Render(pairs[i+1]))
	}
	return b.String()
}

// Modal wraps content in a bordered box with a title, at most width wide.
func Modal(title, content string, width int) string {
	s := theme.Current().S()
	body := s.ModalTitle.Render(title) + "\n\n" + content
	return s.ModalContainer.Width(width).Render(body)
}

// Overlay centers fg on a width×height canvas.
func Overlay(fg string, width, height int) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, fg)
}
