package wizard

import (
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/mark3labs/applywiz/internal/tui/theme"
)

// ToastDuration is how long a toast stays on screen.
const ToastDuration = 3 * time.Second

// ToastDismissMsg dismisses the toast with the matching sequence number.
type ToastDismissMsg struct {
	seq int
}

// Toast is a one-line notification that dismisses itself.
type Toast struct {
	message string
	isError bool
	seq     int
}

// NewToast creates a hidden toast.
func NewToast() *Toast {
	return &Toast{}
}

// Show displays msg and schedules its dismissal. A newer toast replaces
// an older one and outlives the older one's timer.
func (t *Toast) Show(msg string, isError bool) tea.Cmd {
	t.seq++
	t.message = msg
	t.isError = isError
	seq := t.seq
	return tea.Tick(ToastDuration, func(time.Time) tea.Msg {
		return ToastDismissMsg{seq: seq}
	})
}

// Update handles dismissal.
func (t *Toast) Update(msg tea.Msg) {
	if m, ok := msg.(ToastDismissMsg); ok && m.seq == t.seq {
		t.message = ""
	}
}

// Visible reports whether a toast is showing.
func (t *Toast) Visible() bool {
	return t.message != ""
}

// Message returns the current message, "" when hidden.
func (t *Toast) Message() string {
	return t.message
}

// View renders the toast right-aligned in width, or "" when hidden.
func (t *Toast) View(width int) string {
	if t.message == "" {
		return ""
	}
	s := theme.Current().S()
	style := s.Toast
	if t.isError {
		style = s.ToastError
	}
	content := style.Render(t.message)
	if lipgloss.Width(content) > width-2 && width > 4 {
		content = style.Width(width - 2).Render(t.message)
	}
	return lipgloss.NewStyle().Width(width).Align(lipgloss.Right).PaddingRight(1).Render(content)
}
