package applywizard

import (
	"strings"
	"unicode"

	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/mark3labs/applywiz/internal/apply"
	"github.com/mark3labs/applywiz/internal/form"
	"github.com/mark3labs/applywiz/internal/tui/theme"
)

// fieldInput is the editor for one field. Long text uses a textarea, the
// rest a single-line input.
type fieldInput struct {
	ref      form.Ref
	required bool
	long     bool
	input    textinput.Model
	area     textarea.Model
	preview  markdownCache
}

func (f *fieldInput) value() string {
	if f.long {
		return f.area.Value()
	}
	return f.input.Value()
}

func (f *fieldInput) setValue(v string) {
	if f.long {
		f.area.SetValue(v)
		return
	}
	f.input.SetValue(v)
	f.input.CursorEnd()
}

func (f *fieldInput) focus() tea.Cmd {
	if f.long {
		return f.area.Focus()
	}
	return f.input.Focus()
}

func (f *fieldInput) blur() {
	if f.long {
		f.area.Blur()
		return
	}
	f.input.Blur()
}

// SectionStep renders the fields of one wizard step. It keeps only UI state;
// every edit is reported as a FieldChangedMsg.
type SectionStep struct {
	step   apply.Step
	fields []*fieldInput
	focus  int // -1 when no field has focus
	width  int
	height int
}

// NewSectionStep builds inputs for step's fields, filled from data.
func NewSectionStep(step apply.Step, data *form.State) *SectionStep {
	s := &SectionStep{step: step, focus: -1, width: 60, height: 20}
	th := theme.Current()
	inputStyles := textinput.Styles{
		Focused: textinput.StyleState{
			Text:        lipgloss.NewStyle().Foreground(lipgloss.Color(th.FgBase)),
			Placeholder: lipgloss.NewStyle().Foreground(lipgloss.Color(th.FgMuted)),
			Prompt:      lipgloss.NewStyle().Foreground(lipgloss.Color(th.Secondary)),
		},
		Blurred: textinput.StyleState{
			Text:        lipgloss.NewStyle().Foreground(lipgloss.Color(th.FgSubtle)),
			Placeholder: lipgloss.NewStyle().Foreground(lipgloss.Color(th.FgMuted)),
			Prompt:      lipgloss.NewStyle().Foreground(lipgloss.Color(th.FgMuted)),
		},
		Cursor: textinput.CursorStyle{
			Color: lipgloss.Color(th.Primary),
			Shape: tea.CursorBar,
			Blink: true,
		},
	}

	for _, ref := range step.Fields {
		f := &fieldInput{ref: ref, required: step.IsRequired(ref), long: ref.Kind() == form.KindLongText}
		if f.long {
			f.area = textarea.New()
			f.area.Placeholder = "Write in markdown… (ctrl+e opens $EDITOR)"
			f.area.ShowLineNumbers = false
			f.area.CharLimit = 0
			f.area.Prompt = "┃ "
			f.area.SetHeight(6)
		} else {
			f.input = textinput.New()
			f.input.Prompt = "› "
			f.input.Placeholder = placeholder(ref)
			f.input.SetStyles(inputStyles)
		}
		f.setValue(data.Get(ref))
		s.fields = append(s.fields, f)
	}
	s.SetSize(s.width, s.height)
	return s
}

func placeholder(ref form.Ref) string {
	if h := ref.Hint(); h != "" {
		return h
	}
	switch ref.Kind() {
	case form.KindList:
		return "comma separated"
	case form.KindBool:
		return "yes / no"
	case form.KindInt, form.KindFloat:
		return "0"
	}
	return ref.Label()
}

// Step returns the step being rendered.
func (s *SectionStep) Step() apply.Step {
	return s.step
}

// SetSize updates the area available to the step.
func (s *SectionStep) SetSize(width, height int) {
	s.width, s.height = width, height
	for _, f := range s.fields {
		if f.long {
			f.area.SetWidth(width - 2)
		} else {
			f.input.SetWidth(width - 4)
		}
	}
}

// Focus focuses the first field.
func (s *SectionStep) Focus() tea.Cmd {
	return s.focusIndex(0)
}

// FocusLast focuses the last field.
func (s *SectionStep) FocusLast() tea.Cmd {
	return s.focusIndex(len(s.fields) - 1)
}

// FocusRef focuses the field for ref, if this step has it.
func (s *SectionStep) FocusRef(ref form.Ref) tea.Cmd {
	for i, f := range s.fields {
		if f.ref == ref {
			return s.focusIndex(i)
		}
	}
	return nil
}

func (s *SectionStep) focusIndex(i int) tea.Cmd {
	s.Blur()
	if i < 0 || i >= len(s.fields) {
		return nil
	}
	s.focus = i
	return s.fields[i].focus()
}

// Blur removes focus from all fields.
func (s *SectionStep) Blur() {
	for _, f := range s.fields {
		f.blur()
	}
	s.focus = -1
}

// Focused reports whether a field has focus.
func (s *SectionStep) Focused() bool {
	return s.focus >= 0
}

// FocusedRef returns the focused field.
func (s *SectionStep) FocusedRef() (form.Ref, bool) {
	if s.focus < 0 {
		return form.Ref{}, false
	}
	return s.fields[s.focus].ref, true
}

// Has reports whether the step renders ref.
func (s *SectionStep) Has(ref form.Ref) bool {
	for _, f := range s.fields {
		if f.ref == ref {
			return true
		}
	}
	return false
}

// LongTextRef returns the first long-text field of the step.
func (s *SectionStep) LongTextRef() (form.Ref, bool) {
	for _, f := range s.fields {
		if f.long {
			return f.ref, true
		}
	}
	return form.Ref{}, false
}

// Value returns the text currently in ref's input.
func (s *SectionStep) Value(ref form.Ref) string {
	for _, f := range s.fields {
		if f.ref == ref {
			return f.value()
		}
	}
	return ""
}

// SetValue overwrites ref's input, focused or not.
func (s *SectionStep) SetValue(ref form.Ref, v string) {
	for _, f := range s.fields {
		if f.ref == ref {
			f.setValue(v)
		}
	}
}

// Sync refreshes inputs from data. The focused field and fields holding
// unparsable text (those with an error) keep what the user typed.
func (s *SectionStep) Sync(data *form.State, errs map[string]string) {
	for i, f := range s.fields {
		if i == s.focus {
			continue
		}
		if _, bad := errs[f.ref.Field]; bad {
			continue
		}
		if v := data.Get(f.ref); v != f.value() {
			f.setValue(v)
		}
	}
}

// Update handles focus movement and forwards input to the focused field.
func (s *SectionStep) Update(msg tea.Msg) tea.Cmd {
	if s.focus < 0 {
		return nil
	}
	f := s.fields[s.focus]

	if key, ok := msg.(tea.KeyPressMsg); ok {
		switch key.String() {
		case "tab":
			if s.focus == len(s.fields)-1 {
				s.Blur()
				return func() tea.Msg { return TabExitForwardMsg{} }
			}
			return s.focusIndex(s.focus + 1)
		case "shift+tab":
			if s.focus == 0 {
				s.Blur()
				return func() tea.Msg { return TabExitBackwardMsg{} }
			}
			return s.focusIndex(s.focus - 1)
		case "enter":
			if !f.long {
				if s.focus == len(s.fields)-1 {
					s.Blur()
					return func() tea.Msg { return TabExitForwardMsg{} }
				}
				return s.focusIndex(s.focus + 1)
			}
		}
	}

	before := f.value()
	var cmd tea.Cmd
	if f.long {
		f.area, cmd = f.area.Update(msg)
	} else {
		f.input, cmd = f.input.Update(msg)
	}

	after := f.value()
	if f.ref == form.Phone {
		if digits := digitsOnly(after); digits != after {
			f.setValue(digits)
			after = digits
		}
	}
	if after == before {
		return cmd
	}
	ref := f.ref
	return tea.Batch(cmd, func() tea.Msg { return FieldChangedMsg{Ref: ref, Value: after} })
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

// View renders the fields, scrolled so the focused one is visible.
func (s *SectionStep) View(errs map[string]string) string {
	st := theme.Current().S()

	var blocks []string
	for i, f := range s.fields {
		var b strings.Builder

		label := st.Label
		if i == s.focus {
			label = st.LabelFocused
		}
		b.WriteString(label.Render(f.ref.Label()))
		if f.required {
			b.WriteString(st.RequiredMark.Render(" *"))
		}
		b.WriteString("\n")

		switch {
		case f.long && i != s.focus && strings.TrimSpace(f.value()) != "":
			b.WriteString(f.preview.render(f.value(), s.width-2))
		case f.long:
			b.WriteString(f.area.View())
		default:
			b.WriteString(f.input.View())
		}

		if msg, ok := errs[f.ref.Field]; ok {
			b.WriteString("\n" + st.FieldError.Render("✗ "+msg))
		} else if i == s.focus && (f.ref.Kind() == form.KindRecords || f.ref.Kind() == form.KindList) {
			b.WriteString("\n" + st.FieldHint.Render(recordHint(f.ref)))
		}
		blocks = append(blocks, b.String())
	}

	return s.window(blocks)
}

func recordHint(ref form.Ref) string {
	if ref.Kind() == form.KindList {
		return "separate entries with commas"
	}
	return ref.Hint() + "; separate rows with ;"
}

// window joins blocks and crops them to the step height around the focus.
func (s *SectionStep) window(blocks []string) string {
	lines := strings.Split(strings.Join(blocks, "\n\n"), "\n")
	if s.height <= 0 || len(lines) <= s.height {
		return strings.Join(lines, "\n")
	}

	start, end := 0, 0
	line := 0
	for i, blk := range blocks {
		n := strings.Count(blk, "\n") + 1
		if i == max(s.focus, 0) {
			start, end = line, line+n
			break
		}
		line += n + 1
	}
	top := 0
	if end > s.height {
		top = min(end-s.height, start)
	}
	top = min(top, len(lines)-s.height)
	return strings.Join(lines[top:top+s.height], "\n")
}
