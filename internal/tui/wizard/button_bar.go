package wizard

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/mark3labs/applywiz/internal/tui/theme"
)

// ButtonID identifies what a button does.
type ButtonID int

const (
	ButtonNone ButtonID = iota
	ButtonBack
	ButtonSave
	ButtonNext
	ButtonSubmit
	ButtonRetry
	ButtonCancel
	ButtonExit
)

// ButtonState represents the visual state of a button.
type ButtonState int

const (
	ButtonNormal   ButtonState = iota // Normal state (enabled)
	ButtonDisabled                    // Disabled state (grayed out)
)

// Button is a single button in the bar.
type Button struct {
	ID    ButtonID
	Label string
	State ButtonState
}

// ButtonBar renders a row of buttons and tracks which one has focus.
// Disabled buttons are skipped by focus movement.
type ButtonBar struct {
	buttons []Button
	focus   int // -1 when the bar is blurred
	width   int
}

// NewButtonBar creates a blurred button bar.
func NewButtonBar(buttons []Button) *ButtonBar {
	return &ButtonBar{buttons: buttons, focus: -1, width: 60}
}

// SetWidth updates the width the bar is centered in.
func (b *ButtonBar) SetWidth(width int) {
	b.width = width
}

// SetButtons replaces the buttons, keeping focus on the same ID when it is
// still present. A focused button that becomes disabled keeps the focus so
// it is still there once the bar is enabled again.
func (b *ButtonBar) SetButtons(buttons []Button) {
	if b.focus < 0 || b.focus >= len(b.buttons) {
		b.buttons = buttons
		b.focus = -1
		return
	}
	focused := b.buttons[b.focus].ID
	b.buttons = buttons
	b.focus = -1
	for i, btn := range buttons {
		if btn.ID == focused {
			b.focus = i
			return
		}
	}
	b.FocusFirst()
}

// Focused reports whether any button has focus.
func (b *ButtonBar) Focused() bool {
	return b.focus >= 0
}

// FocusedButton returns the focused button's ID, or ButtonNone when nothing
// is focused or the focused button is disabled.
func (b *ButtonBar) FocusedButton() ButtonID {
	if b.focus < 0 || b.focus >= len(b.buttons) || b.buttons[b.focus].State == ButtonDisabled {
		return ButtonNone
	}
	return b.buttons[b.focus].ID
}

// FocusFirst focuses the first enabled button.
func (b *ButtonBar) FocusFirst() bool {
	b.focus = -1
	return b.FocusNext()
}

// FocusLast focuses the last enabled button.
func (b *ButtonBar) FocusLast() bool {
	b.focus = len(b.buttons)
	if !b.FocusPrev() {
		b.focus = -1
		return false
	}
	return true
}

// FocusNext moves to the next enabled button. It returns false, leaving the
// bar blurred, when there is none after the current one.
func (b *ButtonBar) FocusNext() bool {
	for i := b.focus + 1; i < len(b.buttons); i++ {
		if b.buttons[i].State != ButtonDisabled {
			b.focus = i
			return true
		}
	}
	b.focus = -1
	return false
}

// FocusPrev moves to the previous enabled button. It returns false, leaving
// the bar blurred, when there is none before the current one.
func (b *ButtonBar) FocusPrev() bool {
	start := b.focus - 1
	if b.focus < 0 {
		start = len(b.buttons) - 1
	}
	for i := start; i >= 0; i-- {
		if b.buttons[i].State != ButtonDisabled {
			b.focus = i
			return true
		}
	}
	b.focus = -1
	return false
}

// Blur removes focus from the bar.
func (b *ButtonBar) Blur() {
	b.focus = -1
}

// Render renders the centered button row.
func (b *ButtonBar) Render() string {
	if len(b.buttons) == 0 {
		return ""
	}
	th := theme.Current()

	base := lipgloss.NewStyle().Padding(0, 2).MarginLeft(1).MarginRight(1)
	normalStyle := base.
		Foreground(lipgloss.Color(th.FgBase)).
		Background(lipgloss.Color(th.BgSurface0))
	disabledStyle := base.
		Foreground(lipgloss.Color(th.FgMuted)).
		Background(lipgloss.Color(th.BgMantle))
	focusedStyle := base.
		Foreground(lipgloss.Color(th.BgBase)).
		Background(lipgloss.Color(th.Secondary)).
		Bold(true)

	rendered := make([]string, 0, len(b.buttons))
	for i, btn := range b.buttons {
		switch {
		case btn.State == ButtonDisabled:
			rendered = append(rendered, disabledStyle.Render(btn.Label))
		case i == b.focus:
			rendered = append(rendered, focusedStyle.Render(btn.Label))
		default:
			rendered = append(rendered, normalStyle.Render(btn.Label))
		}
	}

	return lipgloss.PlaceHorizontal(b.width, lipgloss.Center, strings.Join(rendered, ""))
}

// NavigationButtons builds the Back / Save / Next row of a wizard step.
// On the last step Next becomes Submit. busy disables everything.
func NavigationButtons(first, last, busy bool) []Button {
	state := func(enabled bool) ButtonState {
		if enabled && !busy {
			return ButtonNormal
		}
		return ButtonDisabled
	}
	next := Button{ID: ButtonNext, Label: "Next →", State: state(true)}
	if last {
		next = Button{ID: ButtonSubmit, Label: "Submit", State: state(true)}
	}
	return []Button{
		{ID: ButtonBack, Label: "← Back", State: state(!first)},
		{ID: ButtonSave, Label: "Save draft", State: state(true)},
		next,
	}
}
