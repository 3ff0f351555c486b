package apply

import (
	"time"

	"github.com/mark3labs/applywiz/internal/api"
)

// Event is a controller notification. The set of variants is closed;
// consumers switch on the concrete type.
type Event interface {
	event()
}

// DraftSource says where a restored draft came from.
type DraftSource string

const (
	SourceServer DraftSource = "server"
	SourceLocal  DraftSource = "local"
)

// Loaded fires once Start has resolved and the wizard is interactive.
type Loaded struct {
	Step  int
	Total int
}

// DraftRestored fires when Start resumes a prior draft.
type DraftRestored struct {
	Source  DraftSource
	Step    int
	SavedAt time.Time
}

// ConfigFallback fires when the backend's step config was unusable
// and the built-in steps are used instead.
type ConfigFallback struct {
	Err error
}

// StepChanged fires on every step transition.
type StepChanged struct {
	From int
	To   int
}

// ValidationFailed fires when Next is blocked by missing required fields.
type ValidationFailed struct {
	Step   int
	Errors map[string]string
}

// DraftSaved fires after a successful save. Auto saves are not shown to the user.
type DraftSaved struct {
	Auto bool
	At   time.Time
}

// SaveFailed fires when an explicit or navigation save fails.
type SaveFailed struct {
	Err error
}

// Submitted fires when the final submission was accepted.
type Submitted struct {
	ApplicationID api.ApplicationID
}

// SubmitFailed fires when the final submission failed. The user must act on it.
type SubmitFailed struct {
	Err error
}

func (Loaded) event()           {}
func (DraftRestored) event()    {}
func (ConfigFallback) event()   {}
func (StepChanged) event()      {}
func (ValidationFailed) event() {}
func (DraftSaved) event()       {}
func (SaveFailed) event()       {}
func (Submitted) event()        {}
func (SubmitFailed) event()     {}
