// Package apply implements the scholarship application wizard: step
// navigation, validation, draft persistence with autosave, and submission.
package apply

import (
	"context"
	"errors"
	"maps"
	"sync"
	"time"

	"github.com/aymanbagabas/go-udiff"

	"github.com/mark3labs/applywiz/internal/api"
	"github.com/mark3labs/applywiz/internal/auth"
	"github.com/mark3labs/applywiz/internal/form"
	"github.com/mark3labs/applywiz/internal/logger"
	"github.com/mark3labs/applywiz/internal/state"
)

var (
	// ErrNotReady is returned before Start has resolved.
	ErrNotReady = errors.New("wizard is still loading")
	// ErrSaveInProgress is returned when a save or submission is already in flight.
	ErrSaveInProgress = errors.New("a save is already in progress")
	// ErrSubmitted is returned for any change after the application was submitted.
	ErrSubmitted = errors.New("application already submitted")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("wizard session closed")
)

// DefaultAutosaveInterval is used when Options.AutosaveInterval is zero.
const DefaultAutosaveInterval = 30 * time.Second

// Backend is the subset of the REST API the wizard needs.
type Backend interface {
	StepsConfig(ctx context.Context, scholarshipID int) (form.StepsConfig, error)
	LoadDraft(ctx context.Context, scholarshipID int) (*api.Draft, error)
	SaveDraft(ctx context.Context, req api.SaveDraftRequest) error
	Submit(ctx context.Context, req api.SubmitRequest) (api.ApplicationID, error)
}

// Options configures a Controller.
type Options struct {
	ScholarshipID    int
	Session          auth.Session
	AutosaveInterval time.Duration
	// Backup is optional; when set, unsaved drafts are kept on disk.
	Backup *state.Store
	// OnEvent receives every event. It is called without internal locks held,
	// possibly from the autosave goroutine.
	OnEvent func(Event)
	// OnComplete is called once with the submitted application's id.
	OnComplete func(api.ApplicationID)
}

// Controller owns the aggregate form state and the current step.
// All methods are safe for concurrent use.
type Controller struct {
	backend Backend
	opts    Options
	now     func() time.Time

	mu            sync.Mutex
	steps         []Step
	step          int
	data          form.State
	errors        map[string]string
	loading       bool
	ready         bool
	inFlight      bool
	submitted     bool
	closed        bool
	savedBlob     string
	savedData     form.State
	lastSavedAt   time.Time
	applicationID api.ApplicationID

	autosaver *Autosaver
}

// New creates a controller. Call Start before anything else.
func New(backend Backend, opts Options) *Controller {
	if opts.AutosaveInterval <= 0 {
		opts.AutosaveInterval = DefaultAutosaveInterval
	}
	c := &Controller{
		backend: backend,
		opts:    opts,
		now:     time.Now,
		step:    1,
		data:    form.Default(),
		errors:  map[string]string{},
	}
	c.autosaver = NewAutosaver(opts.AutosaveInterval, c.AutoSave)
	return c
}

// Start loads the step configuration and any prior draft, then starts
// autosave. Load failures never fail Start: a bad step config falls back
// to the built-in steps and a missing or unreadable draft starts fresh.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return ErrClosed
	case c.ready || c.loading:
		c.mu.Unlock()
		return nil
	}
	c.loading = true
	c.mu.Unlock()

	var events []Event
	id := c.opts.ScholarshipID

	steps, err := c.loadSteps(ctx)
	if err != nil {
		logger.Warn("Using built-in steps for scholarship %d: %v", id, err)
		events = append(events, ConfigFallback{Err: err})
		steps, _ = ResolveSteps(form.DefaultSteps())
	}

	draft, err := c.backend.LoadDraft(ctx, id)
	if err != nil {
		if !errors.Is(err, api.ErrDraftNotFound) {
			logger.Warn("Starting fresh, draft for scholarship %d could not be loaded: %v", id, err)
		}
		draft = nil
	}

	var backup *state.Backup
	if c.opts.Backup != nil {
		backup, err = c.opts.Backup.Load(id)
		if err != nil {
			logger.Warn("Ignoring local draft backup: %v", err)
		}
	}

	data := form.Default()
	step := 1
	saved := data.Clone()
	var savedAt time.Time
	var restored *DraftRestored

	if draft != nil {
		d, err := form.Decode(draft.DraftData)
		if err != nil {
			logger.Warn("Starting fresh, server draft is unreadable: %v", err)
		} else {
			data, saved = d, d.Clone()
			step = draft.CurrentStep
			savedAt = draft.LastSavedAt
			restored = &DraftRestored{Source: SourceServer, Step: step, SavedAt: savedAt}
		}
	}
	if backup != nil && (restored == nil || backup.SavedAt.After(savedAt)) {
		if d, err := form.Decode(backup.DraftData); err != nil {
			logger.Warn("Ignoring unreadable local draft backup: %v", err)
		} else {
			data = d
			step = backup.CurrentStep
			restored = &DraftRestored{Source: SourceLocal, Step: step, SavedAt: backup.SavedAt}
		}
	}
	step = clamp(step, 1, len(steps))
	if restored != nil {
		restored.Step = step
		events = append(events, *restored)
	}

	savedBlob, _ := form.Encode(saved)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.steps = steps
	c.step = step
	c.data = data
	c.savedData = saved
	c.savedBlob = savedBlob
	c.lastSavedAt = savedAt
	c.loading = false
	c.ready = true
	c.autosaver.Start(context.WithoutCancel(ctx))
	c.mu.Unlock()

	logger.Info("Wizard ready for scholarship %d at step %d/%d", id, step, len(steps))

	events = append(events, Loaded{Step: step, Total: len(steps)})
	c.emit(events...)
	return nil
}

func (c *Controller) loadSteps(ctx context.Context) ([]Step, error) {
	cfg, err := c.backend.StepsConfig(ctx, c.opts.ScholarshipID)
	if err != nil {
		return nil, err
	}
	return ResolveSteps(cfg)
}

// Next validates the current step, saves, and advances. On the last step
// it submits the application instead of advancing.
func (c *Controller) Next(ctx context.Context) error {
	c.mu.Lock()
	if err := c.checkMutable(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.inFlight {
		c.mu.Unlock()
		return ErrSaveInProgress
	}

	from := c.step
	if errs := validate(c.steps[from-1], &c.data); len(errs) > 0 {
		c.errors = errs
		c.mu.Unlock()
		logger.Debug("Step %d blocked by %d missing fields", from, len(errs))
		c.emit(ValidationFailed{Step: from, Errors: maps.Clone(errs)})
		return &ValidationError{Step: from, Fields: maps.Clone(errs)}
	}
	c.errors = map[string]string{}

	req, snapshot, err := c.beginSave(false)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	last := from == len(c.steps)
	c.mu.Unlock()

	saveErr := c.backend.SaveDraft(ctx, req)
	if saveErr != nil || !last {
		if stale, err := c.finishSave(req, snapshot, false, saveErr); stale || err != nil {
			return err
		}

		c.mu.Lock()
		moved := c.step == from && !c.closed
		if moved {
			c.step = from + 1
		}
		c.mu.Unlock()
		if moved {
			c.emit(StepChanged{From: from, To: from + 1})
		}
		return nil
	}

	// Last step: the draft is stored, now submit while still holding the in-flight slot.
	if !c.markSaved(req, snapshot) {
		return ErrClosed
	}
	id, err := c.backend.Submit(ctx, api.SubmitRequest{
		ScholarshipID: c.opts.ScholarshipID,
		Step:          from,
		StepData:      req.DraftData,
		IsComplete:    true,
		SaveAsDraft:   false,
	})
	return c.finishSubmit(id, err)
}

// Previous moves back one step without validating or saving.
func (c *Controller) Previous() error {
	c.mu.Lock()
	if err := c.checkMutable(); err != nil {
		c.mu.Unlock()
		return err
	}
	from := c.step
	c.errors = map[string]string{}
	if from <= 1 {
		c.mu.Unlock()
		return nil
	}
	c.step = from - 1
	c.mu.Unlock()

	c.emit(StepChanged{From: from, To: from - 1})
	return nil
}

// Save persists the current state without validating or advancing.
func (c *Controller) Save(ctx context.Context) error {
	c.mu.Lock()
	if err := c.checkMutable(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.inFlight {
		c.mu.Unlock()
		return ErrSaveInProgress
	}
	req, snapshot, err := c.beginSave(false)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	_, err = c.finishSave(req, snapshot, false, c.backend.SaveDraft(ctx, req))
	return err
}

// AutoSave persists the state if it changed since the last save. It reports
// whether a request was made and succeeded. It is skipped while another save
// is in flight, before Start, and after submission or Close. Failures are
// logged and kept locally, never surfaced.
func (c *Controller) AutoSave(ctx context.Context) bool {
	c.mu.Lock()
	if !c.ready || c.submitted || c.closed || c.inFlight {
		c.mu.Unlock()
		return false
	}
	req, snapshot, err := c.beginSave(true)
	c.mu.Unlock()
	if err != nil {
		return false
	}

	_, err = c.finishSave(req, snapshot, true, c.backend.SaveDraft(ctx, req))
	return err == nil
}

var errClean = errors.New("no changes")

// beginSave claims the in-flight slot and builds the request.
// Caller holds c.mu. Autosaves of an unchanged state return errClean.
func (c *Controller) beginSave(auto bool) (api.SaveDraftRequest, form.State, error) {
	snapshot := c.data.Clone()
	blob, err := form.Encode(snapshot)
	if err != nil {
		return api.SaveDraftRequest{}, form.State{}, err
	}
	if auto && blob == c.savedBlob {
		return api.SaveDraftRequest{}, form.State{}, errClean
	}
	c.inFlight = true
	return api.SaveDraftRequest{
		ScholarshipID: c.opts.ScholarshipID,
		CurrentStep:   c.step,
		DraftData:     blob,
		AutoSave:      auto,
	}, snapshot, nil
}

// finishSave releases the in-flight slot and applies the outcome.
// stale is true when the session closed while the request was running;
// the result is then dropped.
func (c *Controller) finishSave(req api.SaveDraftRequest, snapshot form.State, auto bool, saveErr error) (stale bool, err error) {
	c.mu.Lock()
	c.inFlight = false
	if c.closed {
		c.mu.Unlock()
		return true, ErrClosed
	}
	if saveErr != nil {
		c.mu.Unlock()
		logger.Warn("Draft save failed (auto=%t): %v", auto, saveErr)
		c.backupLocally(req)
		if !auto {
			c.emit(SaveFailed{Err: saveErr})
		}
		return false, saveErr
	}
	at := c.recordSaved(req, snapshot)
	c.mu.Unlock()

	c.clearBackup()
	logger.Debug("Draft saved at step %d (auto=%t)", req.CurrentStep, auto)
	c.emit(DraftSaved{Auto: auto, At: at})
	return false, nil
}

// markSaved records a successful save without releasing the in-flight slot.
// It releases the slot and reports false when the session has closed.
func (c *Controller) markSaved(req api.SaveDraftRequest, snapshot form.State) bool {
	c.mu.Lock()
	if c.closed {
		c.inFlight = false
		c.mu.Unlock()
		return false
	}
	at := c.recordSaved(req, snapshot)
	c.mu.Unlock()
	c.emit(DraftSaved{Auto: false, At: at})
	return true
}

// recordSaved updates the saved baseline. Caller holds c.mu.
func (c *Controller) recordSaved(req api.SaveDraftRequest, snapshot form.State) time.Time {
	c.savedBlob = req.DraftData
	c.savedData = snapshot
	c.lastSavedAt = c.now()
	return c.lastSavedAt
}

func (c *Controller) finishSubmit(id api.ApplicationID, submitErr error) error {
	c.mu.Lock()
	c.inFlight = false
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if submitErr != nil {
		c.mu.Unlock()
		logger.Error("Submission for scholarship %d failed: %v", c.opts.ScholarshipID, submitErr)
		c.emit(SubmitFailed{Err: submitErr})
		return submitErr
	}
	c.submitted = true
	c.applicationID = id
	c.mu.Unlock()

	c.autosaver.Stop()
	c.clearBackup()
	logger.Info("Application %s submitted for scholarship %d", id, c.opts.ScholarshipID)
	c.emit(Submitted{ApplicationID: id})
	if c.opts.OnComplete != nil {
		c.opts.OnComplete(id)
	}
	return nil
}

// Update sets one field from its edit string and clears that field's error.
// Parse failures leave the field unchanged and are recorded as its error.
func (c *Controller) Update(ref form.Ref, value string) error {
	if !ref.Known() {
		return &form.ErrUnknownField{Name: ref.String()}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkMutable(); err != nil {
		return err
	}
	delete(c.errors, ref.Field)
	if err := c.data.Set(ref, value); err != nil {
		c.errors[ref.Field] = err.Error()
		return err
	}
	return nil
}

// Check validates step n without recording errors or moving.
func (c *Controller) Check(n int) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready {
		return nil, ErrNotReady
	}
	if n < 1 || n > len(c.steps) {
		return nil, errors.New("step out of range")
	}
	return validate(c.steps[n-1], &c.data), nil
}

// View is a read-only copy of the controller's state.
type View struct {
	ScholarshipID int
	Step          int
	Total         int
	Steps         []Step
	Data          form.State
	Errors        map[string]string
	Completion    int
	Loading       bool
	Ready         bool
	Saving        bool
	Submitted     bool
	Dirty         bool
	LastSavedAt   time.Time
	ApplicationID api.ApplicationID
}

// Current returns the step being shown, or a zero Step before Start.
func (v View) Current() Step {
	if v.Step < 1 || v.Step > len(v.Steps) {
		return Step{}
	}
	return v.Steps[v.Step-1]
}

// IsLast reports whether the current step is the final one.
func (v View) IsLast() bool {
	return v.Total > 0 && v.Step == v.Total
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	data := c.data.Clone()
	return View{
		ScholarshipID: c.opts.ScholarshipID,
		Step:          c.step,
		Total:         len(c.steps),
		Steps:         c.steps,
		Data:          data,
		Errors:        maps.Clone(c.errors),
		Completion:    data.Completion(),
		Loading:       c.loading,
		Ready:         c.ready,
		Saving:        c.inFlight,
		Submitted:     c.submitted,
		Dirty:         c.dirtyLocked(),
		LastSavedAt:   c.lastSavedAt,
		ApplicationID: c.applicationID,
	}
}

// PendingChanges returns a unified diff from the last saved state to the
// current one, or "" when nothing changed.
func (c *Controller) PendingChanges() string {
	c.mu.Lock()
	saved, current := c.savedData.Clone(), c.data.Clone()
	dirty := c.dirtyLocked()
	c.mu.Unlock()
	if !dirty {
		return ""
	}
	return Diff("saved", "current", saved, current)
}

// Diff renders a unified diff between two states.
func Diff(oldLabel, newLabel string, old, current form.State) string {
	a, err := form.EncodeIndent(old)
	if err != nil {
		return ""
	}
	b, err := form.EncodeIndent(current)
	if err != nil {
		return ""
	}
	return udiff.Unified(oldLabel, newLabel, a, b)
}

// Close stops autosave and ends the session. Results of requests still in
// flight are ignored. Unsaved changes are kept in the local backup.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	var pending *api.SaveDraftRequest
	if c.ready && !c.submitted && c.dirtyLocked() {
		if blob, err := form.Encode(c.data); err == nil {
			pending = &api.SaveDraftRequest{ScholarshipID: c.opts.ScholarshipID, CurrentStep: c.step, DraftData: blob}
		}
	}
	c.mu.Unlock()

	c.autosaver.Stop()
	if pending != nil {
		c.backupLocally(*pending)
	}
	logger.Debug("Wizard for scholarship %d closed", c.opts.ScholarshipID)
}

// ApplicationID returns the submitted application's id, if any.
func (c *Controller) ApplicationID() (api.ApplicationID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applicationID, c.submitted
}

// AutosaveRunning reports whether the autosave task is active.
func (c *Controller) AutosaveRunning() bool {
	return c.autosaver.Running()
}

// checkMutable reports why the state cannot change. Caller holds c.mu.
func (c *Controller) checkMutable() error {
	switch {
	case c.closed:
		return ErrClosed
	case c.submitted:
		return ErrSubmitted
	case !c.ready:
		return ErrNotReady
	}
	return nil
}

// dirtyLocked compares the current state with the last saved one. Caller holds c.mu.
func (c *Controller) dirtyLocked() bool {
	if !c.ready {
		return false
	}
	blob, err := form.Encode(c.data)
	return err != nil || blob != c.savedBlob
}

func (c *Controller) backupLocally(req api.SaveDraftRequest) {
	if c.opts.Backup == nil {
		return
	}
	err := c.opts.Backup.Save(state.Backup{
		ScholarshipID: req.ScholarshipID,
		CurrentStep:   req.CurrentStep,
		DraftData:     req.DraftData,
		SavedAt:       c.now().UTC(),
	})
	if err != nil {
		logger.Warn("Could not write local draft backup: %v", err)
	}
}

func (c *Controller) clearBackup() {
	if c.opts.Backup == nil {
		return
	}
	if err := c.opts.Backup.Clear(c.opts.ScholarshipID); err != nil {
		logger.Warn("Could not clear local draft backup: %v", err)
	}
}

func (c *Controller) emit(events ...Event) {
	if c.opts.OnEvent == nil {
		return
	}
	for _, e := range events {
		c.opts.OnEvent(e)
	}
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
