// Package applywizard is the terminal front-end of the application wizard.
// It renders one step at a time and forwards every edit and navigation to
// an apply.Controller, which owns the form state.
package applywizard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"

	"github.com/mark3labs/applywiz/internal/api"
	"github.com/mark3labs/applywiz/internal/apply"
	"github.com/mark3labs/applywiz/internal/form"
	"github.com/mark3labs/applywiz/internal/logger"
	"github.com/mark3labs/applywiz/internal/mcpserver"
	"github.com/mark3labs/applywiz/internal/tui/wizard"
)

const maxContentWidth = 100

// ProgramSender is an interface for sending messages to the Bubbletea program.
type ProgramSender interface {
	Send(tea.Msg)
}

// RunOptions configures Run.
type RunOptions struct {
	// MCP starts a tool server bound to the wizard.
	MCP bool
}

// Result describes how the wizard ended.
type Result struct {
	Submitted     bool
	ApplicationID api.ApplicationID
	MCPURL        string
}

// Run creates a controller for backend, runs the wizard until the user quits
// and closes the controller. opts.OnEvent, when set, still receives events.
func Run(ctx context.Context, backend apply.Backend, opts apply.Options, ro RunOptions) (*Result, error) {
	m := &Model{ctx: ctx}
	p := tea.NewProgram(m, tea.WithContext(ctx))

	onEvent := opts.OnEvent
	opts.OnEvent = func(e apply.Event) {
		if onEvent != nil {
			onEvent(e)
		}
		p.Send(EventMsg{Event: e})
	}
	ctrl := apply.New(backend, opts)
	defer ctrl.Close()
	m.init(ctrl)

	res := &Result{}
	if ro.MCP {
		srv := mcpserver.New(ctrl, func(ref form.Ref) { p.Send(ExternalChangeMsg{Ref: ref}) })
		if _, err := srv.Start(ctx); err != nil {
			return nil, fmt.Errorf("failed to start MCP server: %w", err)
		}
		defer func() { _ = srv.Stop() }()
		res.MCPURL = srv.URL()
		m.mcpURL = res.MCPURL
		logger.Info("MCP tools available at %s", res.MCPURL)
	}

	if _, err := p.Run(); err != nil {
		return nil, fmt.Errorf("wizard failed: %w", err)
	}
	if m.startErr != nil {
		return nil, m.startErr
	}
	res.ApplicationID, res.Submitted = ctrl.ApplicationID()
	return res, nil
}

// Model is the Bubbletea model of the wizard.
type Model struct {
	ctx    context.Context
	ctrl   *apply.Controller
	width  int
	height int

	view     apply.View
	section  *SectionStep
	buttons  *wizard.ButtonBar
	toast    *wizard.Toast
	spinner  spinner.Model
	pending  bool // a controller call is running
	reported bool // the running call already surfaced its failure as an event
	startErr error
	mcpURL   string

	// Submission failure modal
	submitErr error
	submitBar *wizard.ButtonBar

	// Pending-changes diff modal
	showDiff bool
	diff     viewport.Model

	doneBar *wizard.ButtonBar
}

// New creates a model for a controller that has not been started yet.
func New(ctx context.Context, ctrl *apply.Controller) *Model {
	m := &Model{ctx: ctx}
	m.init(ctrl)
	return m
}

func (m *Model) init(ctrl *apply.Controller) {
	m.ctrl = ctrl
	m.view = ctrl.Snapshot()
	m.buttons = wizard.NewButtonBar(nil)
	m.toast = wizard.NewToast()
	m.spinner = spinner.New()
	m.spinner.Spinner = spinner.Dot
	m.submitBar = wizard.NewButtonBar([]wizard.Button{
		{ID: wizard.ButtonRetry, Label: "Retry"},
		{ID: wizard.ButtonCancel, Label: "Back to form"},
	})
	m.doneBar = wizard.NewButtonBar([]wizard.Button{{ID: wizard.ButtonExit, Label: "Exit"}})
	m.diff = viewport.New(
		viewport.WithWidth(60),
		viewport.WithHeight(10),
	)
	m.diff.MouseWheelEnabled = true
	m.diff.MouseWheelDelta = 3
}

// Init starts the controller in the background.
func (m *Model) Init() tea.Cmd {
	m.pending = true
	return tea.Batch(m.spinner.Tick, m.run(opStart, m.ctrl.Start))
}

// run calls f off the event loop; controller events may be delivered
// through Send while it runs.
func (m *Model) run(op operation, f func(context.Context) error) tea.Cmd {
	m.pending = true
	m.reported = false
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: op, err: f(ctx)}
	}
}

func (m *Model) busy() bool {
	return m.pending || m.view.Saving || m.view.Loading
}

// Update handles messages for the wizard.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case wizard.ToastDismissMsg:
		m.toast.Update(msg)
		return m, nil

	case EventMsg:
		return m, m.handleEvent(msg.Event)

	case opDoneMsg:
		return m.handleOpDone(msg)

	case FieldChangedMsg:
		// Parse failures are recorded on the field and shown inline.
		_ = m.ctrl.Update(msg.Ref, msg.Value)
		return m, m.refresh()

	case ExternalChangeMsg:
		cmd := m.refresh()
		if m.section != nil {
			m.section.SetValue(msg.Ref, m.view.Data.Get(msg.Ref))
		}
		return m, cmd

	case StatementEditedMsg:
		if msg.Err != nil {
			return m, m.toast.Show(msg.Err.Error(), true)
		}
		content := strings.TrimRight(msg.Content, "\n")
		if err := m.ctrl.Update(msg.Ref, content); err != nil {
			return m, tea.Batch(m.refresh(), m.toast.Show(err.Error(), true))
		}
		cmd := m.refresh()
		if m.section != nil {
			m.section.SetValue(msg.Ref, content)
		}
		return m, cmd

	case TabExitForwardMsg:
		if !m.buttons.FocusFirst() && m.section != nil {
			return m, m.section.Focus()
		}
		return m, nil

	case TabExitBackwardMsg:
		if !m.buttons.FocusLast() && m.section != nil {
			return m, m.section.FocusLast()
		}
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)
	}

	if m.section != nil {
		return m, m.section.Update(msg)
	}
	return m, nil
}

func (m *Model) handleEvent(e apply.Event) tea.Cmd {
	cmds := []tea.Cmd{m.refresh()}

	switch e := e.(type) {
	case apply.DraftRestored:
		from := "server draft"
		if e.Source == apply.SourceLocal {
			from = "local backup"
		}
		cmds = append(cmds, m.toast.Show(fmt.Sprintf("Restored %s at step %d", from, e.Step), false))
	case apply.ConfigFallback:
		cmds = append(cmds, m.toast.Show("Step configuration unavailable, using default steps", true))
	case apply.ValidationFailed:
		cmds = append(cmds, m.focusFirstError(e.Errors))
	case apply.SaveFailed:
		m.reported = true
		cmds = append(cmds, m.toast.Show("Could not save draft: "+e.Err.Error(), true))
	case apply.SubmitFailed:
		m.reported = true
		m.submitErr = e.Err
		m.submitBar.FocusFirst()
	case apply.Submitted:
		m.submitErr = nil
		m.showDiff = false
		m.doneBar.FocusFirst()
	}
	return tea.Batch(cmds...)
}

func (m *Model) handleOpDone(msg opDoneMsg) (tea.Model, tea.Cmd) {
	m.pending = false
	cmd := m.refresh()

	var verr *apply.ValidationError
	switch {
	case msg.op == opStart && msg.err != nil:
		m.startErr = msg.err
		return m, tea.Quit
	case msg.err == nil && msg.op == opSave:
		return m, tea.Batch(cmd, m.toast.Show("Draft saved", false))
	case msg.err == nil, errors.As(msg.err, &verr):
		return m, cmd
	case errors.Is(msg.err, apply.ErrSaveInProgress):
		return m, tea.Batch(cmd, m.toast.Show("A save is already in progress", true))
	case errors.Is(msg.err, apply.ErrSubmitted), errors.Is(msg.err, apply.ErrNotReady):
		return m, tea.Batch(cmd, m.toast.Show(msg.err.Error(), true))
	case errors.Is(msg.err, apply.ErrClosed):
		return m, cmd
	}
	logger.Debug("Wizard operation %d failed: %v", msg.op, msg.err)
	if m.reported {
		return m, cmd
	}
	return m, tea.Batch(cmd, m.toast.Show("Something went wrong: "+msg.err.Error(), true))
}

// refresh re-reads the controller and rebuilds the step renderer when the
// step changed.
func (m *Model) refresh() tea.Cmd {
	m.view = m.ctrl.Snapshot()
	var cmd tea.Cmd

	if m.view.Ready {
		cur := m.view.Current()
		if m.section == nil || m.section.Step().Number != cur.Number || !slices.Equal(m.section.Step().Fields, cur.Fields) {
			m.section = NewSectionStep(cur, &m.view.Data)
			m.buttons.Blur()
			m.resize()
			if !m.view.Submitted {
				cmd = m.section.Focus()
			}
		} else {
			m.section.Sync(&m.view.Data, m.view.Errors)
		}
	}
	m.buttons.SetButtons(wizard.NavigationButtons(m.view.Step <= 1, m.view.IsLast(), m.busy()))
	return cmd
}

func (m *Model) focusFirstError(errs map[string]string) tea.Cmd {
	if m.section == nil {
		return nil
	}
	for _, ref := range m.section.Step().Fields {
		if _, ok := errs[ref.Field]; ok {
			m.buttons.Blur()
			return m.section.FocusRef(ref)
		}
	}
	return nil
}

func (m *Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}

	switch {
	case m.view.Submitted:
		switch key {
		case "enter", " ", "esc", "q":
			return m, tea.Quit
		}
		return m, nil

	case m.submitErr != nil:
		return m.handleSubmitModalKey(key)

	case m.showDiff:
		switch key {
		case "esc", "q", "ctrl+d":
			m.showDiff = false
			return m, nil
		}
		var cmd tea.Cmd
		m.diff, cmd = m.diff.Update(msg)
		return m, cmd

	case !m.view.Ready:
		if key == "esc" {
			return m, tea.Quit
		}
		return m, nil
	}

	switch key {
	case "esc":
		return m, tea.Quit
	case "ctrl+s":
		return m, m.save()
	case "ctrl+n":
		return m, m.next()
	case "ctrl+p":
		return m, m.previous()
	case "ctrl+d":
		return m, m.openDiff()
	case "ctrl+e":
		return m, m.editStatement()
	}

	if m.buttons.Focused() {
		switch key {
		case "tab", "right":
			if !m.buttons.FocusNext() {
				return m, m.section.Focus()
			}
			return m, nil
		case "shift+tab", "left":
			if !m.buttons.FocusPrev() {
				return m, m.section.FocusLast()
			}
			return m, nil
		case "enter", " ":
			return m, m.activate(m.buttons.FocusedButton())
		}
		return m, nil
	}

	if m.section != nil {
		return m, m.section.Update(msg)
	}
	return m, nil
}

func (m *Model) handleSubmitModalKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "tab", "right", "shift+tab", "left":
		if !m.submitBar.FocusNext() {
			m.submitBar.FocusFirst()
		}
	case "r":
		return m, m.retrySubmit()
	case "esc":
		m.submitErr = nil
	case "enter", " ":
		if m.submitBar.FocusedButton() == wizard.ButtonRetry {
			return m, m.retrySubmit()
		}
		m.submitErr = nil
	}
	return m, nil
}

func (m *Model) retrySubmit() tea.Cmd {
	m.submitErr = nil
	return m.next()
}

func (m *Model) activate(id wizard.ButtonID) tea.Cmd {
	switch id {
	case wizard.ButtonBack:
		return m.previous()
	case wizard.ButtonSave:
		return m.save()
	case wizard.ButtonNext, wizard.ButtonSubmit:
		return m.next()
	}
	return nil
}

func (m *Model) save() tea.Cmd {
	if m.pending {
		return m.toast.Show("A save is already in progress", true)
	}
	return m.run(opSave, m.ctrl.Save)
}

func (m *Model) next() tea.Cmd {
	if m.pending {
		return m.toast.Show("A save is already in progress", true)
	}
	return m.run(opNext, m.ctrl.Next)
}

func (m *Model) previous() tea.Cmd {
	ctrl := m.ctrl
	return m.run(opPrevious, func(context.Context) error { return ctrl.Previous() })
}

func (m *Model) openDiff() tea.Cmd {
	diff := m.ctrl.PendingChanges()
	if diff == "" {
		return m.toast.Show("No unsaved changes", false)
	}
	m.diff.SetContent(HighlightDiff(diff))
	m.diff.GotoTop()
	m.showDiff = true
	return nil
}

func (m *Model) editStatement() tea.Cmd {
	if m.section == nil {
		return nil
	}
	ref, ok := m.section.LongTextRef()
	if !ok {
		return m.toast.Show("Nothing to edit in $EDITOR on this step", true)
	}
	return openEditor(ref, m.view.Data.Get(ref))
}

// contentWidth is the width of the centered form column.
func (m *Model) contentWidth() int {
	return max(min(m.width-4, maxContentWidth), 40)
}

func (m *Model) resize() {
	w := m.contentWidth()
	m.buttons.SetWidth(w)
	m.submitBar.SetWidth(w / 2)
	m.doneBar.SetWidth(w)
	m.diff.SetWidth(max(w-6, 20))
	m.diff.SetHeight(max(m.height-10, 5))
	if m.section != nil {
		// header, blank lines, buttons and hints
		m.section.SetSize(w, max(m.height-12, 6))
	}
}

// View renders the wizard.
func (m *Model) View() tea.View {
	var view tea.View
	view.AltScreen = true

	if m.width == 0 || m.height == 0 {
		view.Content = lipgloss.NewLayer("")
		return view
	}

	canvas := uv.NewScreenBuffer(m.width, m.height)
	full := uv.Rectangle{Min: uv.Position{X: 0, Y: 0}, Max: uv.Position{X: m.width, Y: m.height}}
	uv.NewStyledString(m.renderMain()).Draw(canvas, full)

	if modal := m.renderModal(); modal != "" {
		mw, mh := lipgloss.Width(modal), lipgloss.Height(modal)
		x, y := max((m.width-mw)/2, 0), max((m.height-mh)/2, 0)
		uv.NewStyledString(modal).Draw(canvas, uv.Rectangle{
			Min: uv.Position{X: x, Y: y},
			Max: uv.Position{X: min(x+mw, m.width), Y: min(y+mh, m.height)},
		})
	}

	if toast := m.toast.View(m.width); toast != "" {
		uv.NewStyledString(toast).Draw(canvas, uv.Rectangle{
			Min: uv.Position{X: 0, Y: m.height - 1},
			Max: uv.Position{X: m.width, Y: m.height},
		})
	}

	view.Content = lipgloss.NewLayer(canvas.Render())
	return view
}

func (m *Model) renderMain() string {
	w := m.contentWidth()
	var body string
	switch {
	case m.view.Submitted:
		body = renderCompletion(m.view, m.doneBar, w)
	case !m.view.Ready:
		body = m.spinner.View() + " Loading application…"
		return wizard.Overlay(body, m.width, m.height)
	default:
		busy := ""
		if m.busy() {
			busy = m.spinner.View()
		}
		sections := []string{
			renderHeader(m.view, w, busy),
			"",
			m.section.View(m.view.Errors),
			"",
			m.buttons.Render(),
			m.hints(),
		}
		body = strings.Join(sections, "\n")
	}
	column := lipgloss.NewStyle().Width(w).Padding(1, 0).Render(body)
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Center, column)
}

func (m *Model) hints() string {
	pairs := []string{"tab", "next field", "ctrl+s", "save", "ctrl+n", "next", "ctrl+p", "back", "ctrl+d", "changes"}
	if m.section != nil {
		if _, ok := m.section.LongTextRef(); ok {
			pairs = append(pairs, "ctrl+e", "editor")
		}
	}
	pairs = append(pairs, "esc", "quit")
	hint := wizard.RenderHintBar(pairs...)
	if m.mcpURL != "" {
		hint += "\n" + wizard.RenderHintBar("mcp", m.mcpURL)
	}
	return hint
}

func (m *Model) renderModal() string {
	w := m.contentWidth()
	switch {
	case m.submitErr != nil:
		body := m.submitErr.Error() + "\n\nYour answers are kept. Retry now or go back to the form.\n\n" + m.submitBar.Render()
		return wizard.Modal("Submission failed", body, min(w, 70))
	case m.showDiff:
		body := m.diff.View() + "\n" + wizard.RenderHintBar("↑↓", "scroll", "esc", "close")
		return wizard.Modal("Unsaved changes", body, w)
	}
	return ""
}
