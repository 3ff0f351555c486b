package applywizard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/applywiz/internal/api"
	"github.com/mark3labs/applywiz/internal/apply"
	"github.com/mark3labs/applywiz/internal/form"
	"github.com/mark3labs/applywiz/internal/tui/wizard"
)

type stubBackend struct {
	mu        sync.Mutex
	steps     form.StepsConfig
	stepsErr  error
	draft     *api.Draft
	saveErr   error
	submitErr error
	saves     []api.SaveDraftRequest
	submits   int
}

func (b *stubBackend) StepsConfig(context.Context, int) (form.StepsConfig, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.steps, b.stepsErr
}

func (b *stubBackend) LoadDraft(context.Context, int) (*api.Draft, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.draft == nil {
		return nil, api.ErrDraftNotFound
	}
	d := *b.draft
	return &d, nil
}

func (b *stubBackend) SaveDraft(_ context.Context, req api.SaveDraftRequest) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.saves = append(b.saves, req)
	return b.saveErr
}

func (b *stubBackend) Submit(context.Context, api.SubmitRequest) (api.ApplicationID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.submits++
	if b.submitErr != nil {
		return "", b.submitErr
	}
	return "APP-7", nil
}

// harness drives a Model the way the program would: controller events are
// queued like Send and delivered before the command's own result.
type harness struct {
	t       *testing.T
	backend *stubBackend
	ctrl    *apply.Controller
	m       *Model
	events  chan apply.Event
	quit    bool
}

func newHarness(t *testing.T, backend *stubBackend) *harness {
	t.Helper()
	if backend.steps.Steps == nil {
		backend.steps = form.DefaultSteps()
	}
	h := &harness{t: t, backend: backend, events: make(chan apply.Event, 64)}
	h.ctrl = apply.New(backend, apply.Options{
		ScholarshipID:    12,
		AutosaveInterval: time.Hour,
		OnEvent:          func(e apply.Event) { h.events <- e },
	})
	t.Cleanup(h.ctrl.Close)
	h.m = New(context.Background(), h.ctrl)
	h.send(tea.WindowSizeMsg{Width: 100, Height: 60})
	h.run(h.m.Init())
	return h
}

func (h *harness) send(msg tea.Msg) {
	h.run(func() tea.Cmd {
		_, cmd := h.m.Update(msg)
		return cmd
	}())
}

// run executes cmd, then feeds queued events and the produced messages back
// into the model.
func (h *harness) run(cmd tea.Cmd) {
	h.feed(collect(cmd), 0)
}

func (h *harness) feed(msgs []tea.Msg, depth int) {
	var pending []tea.Msg
	for {
		select {
		case e := <-h.events:
			pending = append(pending, EventMsg{Event: e})
			continue
		default:
		}
		break
	}
	pending = append(pending, msgs...)
	for _, msg := range pending {
		switch msg.(type) {
		case tea.QuitMsg:
			h.quit = true
			continue
		case wizard.ToastDismissMsg:
			continue
		}
		_, cmd := h.m.Update(msg)
		if depth < 3 {
			h.feed(collect(cmd), depth+1)
		}
	}
}

func (h *harness) key(code rune, mod tea.KeyMod) {
	h.send(tea.KeyPressMsg{Code: code, Mod: mod})
}

func (h *harness) fillPersonal() {
	values := map[form.Ref]string{
		form.FirstName: "Ann",
		form.LastName:  "Lee",
		form.StudentID: "6401",
		form.Email:     "ann@example.com",
		form.Phone:     "0812345678",
	}
	for ref, v := range values {
		h.send(FieldChangedMsg{Ref: ref, Value: v})
	}
}

func (h *harness) screen() string {
	return ansi.Strip(h.m.renderMain())
}

func TestWizardStartRendersFirstStep(t *testing.T) {
	h := newHarness(t, &stubBackend{})

	require.True(t, h.m.view.Ready)
	assert.False(t, h.m.pending)
	require.NotNil(t, h.m.section)
	ref, ok := h.m.section.FocusedRef()
	require.True(t, ok)
	assert.Equal(t, form.FirstName, ref)

	out := h.screen()
	assert.Contains(t, out, "Scholarship application #12")
	assert.Contains(t, out, "Step 1/5 · Personal information")
	assert.Contains(t, out, "% complete")
	assert.Contains(t, out, "Save draft")
	assert.Contains(t, out, "Next →")
}

func TestWizardTypingUpdatesController(t *testing.T) {
	h := newHarness(t, &stubBackend{})

	for _, k := range typeText("Ann") {
		h.send(k)
	}
	assert.Equal(t, "Ann", h.ctrl.Snapshot().Data.Personal.FirstName)
	assert.True(t, h.m.view.Dirty)
	assert.Contains(t, h.screen(), "Unsaved changes")
}

func TestWizardNextBlockedByValidation(t *testing.T) {
	h := newHarness(t, &stubBackend{})
	h.send(FieldChangedMsg{Ref: form.FirstName, Value: "Ann"})

	h.key('n', tea.ModCtrl)

	assert.Equal(t, 1, h.m.view.Step)
	assert.Contains(t, h.m.view.Errors, "last_name")
	ref, ok := h.m.section.FocusedRef()
	require.True(t, ok)
	assert.Equal(t, form.LastName, ref)
	assert.Contains(t, h.screen(), "✗ Last name is required")
	assert.Empty(t, h.backend.saves)
}

func TestWizardNextAndPrevious(t *testing.T) {
	h := newHarness(t, &stubBackend{})
	h.fillPersonal()

	h.key('n', tea.ModCtrl)
	assert.Equal(t, 2, h.m.view.Step)
	assert.Equal(t, 2, h.m.section.Step().Number)
	require.Len(t, h.backend.saves, 1)
	assert.Equal(t, 1, h.backend.saves[0].CurrentStep)
	assert.Contains(t, h.screen(), "Academic information")

	h.key('p', tea.ModCtrl)
	assert.Equal(t, 1, h.m.view.Step)
	assert.Equal(t, "Ann", h.m.section.Value(form.FirstName))
}

func TestWizardSaveShowsToast(t *testing.T) {
	h := newHarness(t, &stubBackend{})
	h.send(FieldChangedMsg{Ref: form.FirstName, Value: "Ann"})

	h.key('s', tea.ModCtrl)
	require.Len(t, h.backend.saves, 1)
	assert.False(t, h.m.view.Dirty)
	assert.Equal(t, "Draft saved", h.m.toast.Message())
}

func TestWizardSaveFailureShowsError(t *testing.T) {
	h := newHarness(t, &stubBackend{saveErr: errors.New("gateway down")})
	h.send(FieldChangedMsg{Ref: form.FirstName, Value: "Ann"})

	h.key('s', tea.ModCtrl)
	assert.Contains(t, h.m.toast.Message(), "gateway down")
	assert.True(t, h.m.view.Dirty)
}

func TestWizardButtonsFromTab(t *testing.T) {
	h := newHarness(t, &stubBackend{})
	h.m.section.FocusLast()

	h.send(tea.KeyPressMsg{Code: tea.KeyTab})
	assert.True(t, h.m.buttons.Focused())
	assert.False(t, h.m.section.Focused())

	// First step: Back is disabled, so focus lands on Save.
	assert.Equal(t, wizard.ButtonSave, h.m.buttons.FocusedButton())
	h.send(tea.KeyPressMsg{Code: tea.KeyEnter})
	require.Len(t, h.backend.saves, 1)

	h.send(tea.KeyPressMsg{Code: tea.KeyTab, Mod: tea.ModShift})
	assert.False(t, h.m.buttons.Focused())
	assert.True(t, h.m.section.Focused())
}

func TestWizardDiffModal(t *testing.T) {
	h := newHarness(t, &stubBackend{})

	h.key('d', tea.ModCtrl)
	assert.False(t, h.m.showDiff)
	assert.Equal(t, "No unsaved changes", h.m.toast.Message())

	h.send(FieldChangedMsg{Ref: form.FirstName, Value: "Ann"})
	h.key('d', tea.ModCtrl)
	require.True(t, h.m.showDiff)
	assert.Contains(t, ansi.Strip(h.m.renderModal()), "Unsaved changes")
	assert.Contains(t, ansi.Strip(h.m.diff.View()), "Ann")

	h.send(tea.KeyPressMsg{Code: tea.KeyEscape})
	assert.False(t, h.m.showDiff)
	assert.False(t, h.quit)
}

func walkToLastStep(t *testing.T, h *harness) {
	t.Helper()
	h.fillPersonal()
	h.key('n', tea.ModCtrl)
	for ref, v := range map[form.Ref]string{
		form.Faculty:    "Science",
		form.Department: "Physics",
		form.YearLevel:  "2",
		form.GPA:        "3.5",
	} {
		h.send(FieldChangedMsg{Ref: ref, Value: v})
	}
	h.key('n', tea.ModCtrl)
	h.send(FieldChangedMsg{Ref: form.FamilyIncome, Value: "20000"})
	h.send(FieldChangedMsg{Ref: form.ParentOccupation, Value: "Farmer"})
	h.key('n', tea.ModCtrl)
	h.key('n', tea.ModCtrl)
	require.Equal(t, 5, h.m.view.Step)
	h.send(FieldChangedMsg{Ref: form.PersonalStatement, Value: "Because."})
}

func TestWizardSubmit(t *testing.T) {
	h := newHarness(t, &stubBackend{})
	walkToLastStep(t, h)
	assert.Contains(t, h.screen(), "Submit")

	h.key('n', tea.ModCtrl)
	require.True(t, h.m.view.Submitted)
	assert.Equal(t, api.ApplicationID("APP-7"), h.m.view.ApplicationID)
	out := h.screen()
	assert.Contains(t, out, "Application submitted")
	assert.Contains(t, out, "APP-7")

	h.send(tea.KeyPressMsg{Code: tea.KeyEnter})
	assert.True(t, h.quit)
}

func TestWizardSubmitFailureRetry(t *testing.T) {
	b := &stubBackend{submitErr: errors.New("deadline passed")}
	h := newHarness(t, b)
	walkToLastStep(t, h)

	h.key('n', tea.ModCtrl)
	require.Error(t, h.m.submitErr)
	assert.False(t, h.m.view.Submitted)
	assert.Contains(t, ansi.Strip(h.m.renderModal()), "deadline passed")

	// Cancel keeps the form.
	h.send(tea.KeyPressMsg{Code: tea.KeyEscape})
	assert.Nil(t, h.m.submitErr)
	assert.False(t, h.quit)

	h.key('n', tea.ModCtrl)
	require.Error(t, h.m.submitErr)

	b.mu.Lock()
	b.submitErr = nil
	b.mu.Unlock()
	h.send(tea.KeyPressMsg{Code: 'r', Text: "r"})
	assert.True(t, h.m.view.Submitted)
	assert.Equal(t, 3, b.submits)
}

func TestWizardExternalChange(t *testing.T) {
	h := newHarness(t, &stubBackend{})
	require.NoError(t, h.ctrl.Update(form.Email, "ann@example.com"))

	h.send(ExternalChangeMsg{Ref: form.Email})
	assert.Equal(t, "ann@example.com", h.m.section.Value(form.Email))
}

func TestWizardStatementEdited(t *testing.T) {
	h := newHarness(t, &stubBackend{})
	walkToLastStep(t, h)

	h.send(StatementEditedMsg{Ref: form.PersonalStatement, Content: "Edited.\n\n"})
	assert.Equal(t, "Edited.", h.ctrl.Snapshot().Data.Documents.PersonalStatement)
	assert.Equal(t, "Edited.", h.m.section.Value(form.PersonalStatement))

	h.send(StatementEditedMsg{Ref: form.PersonalStatement, Err: errors.New("editor crashed")})
	assert.Equal(t, "editor crashed", h.m.toast.Message())
}

func TestWizardConfigFallback(t *testing.T) {
	h := newHarness(t, &stubBackend{stepsErr: errors.New("404")})

	assert.True(t, h.m.view.Ready)
	assert.Equal(t, 5, h.m.view.Total)
	assert.Contains(t, h.m.toast.Message(), "default steps")
}

func TestWizardEscQuits(t *testing.T) {
	h := newHarness(t, &stubBackend{})
	h.send(tea.KeyPressMsg{Code: tea.KeyEscape})
	assert.True(t, h.quit)
}

func TestWizardUnexpectedErrorShowsToast(t *testing.T) {
	h := newHarness(t, &stubBackend{})

	h.m.run(opNext, h.ctrl.Next)
	h.send(opDoneMsg{op: opNext, err: errors.New("encoding form state: disk full")})
	assert.Contains(t, h.m.toast.Message(), "disk full")
	assert.False(t, h.m.pending)
}

func TestWizardReportedFailureKeepsEventToast(t *testing.T) {
	h := newHarness(t, &stubBackend{saveErr: errors.New("gateway down")})
	h.send(FieldChangedMsg{Ref: form.FirstName, Value: "Ann"})

	h.key('s', tea.ModCtrl)
	assert.Equal(t, "Could not save draft: gateway down", h.m.toast.Message())
}
