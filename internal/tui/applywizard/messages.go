package applywizard

import (
	"github.com/mark3labs/applywiz/internal/apply"
	"github.com/mark3labs/applywiz/internal/form"
)

// FieldChangedMsg is emitted by a step renderer whenever a field's text changes.
type FieldChangedMsg struct {
	Ref   form.Ref
	Value string
}

// EventMsg carries a controller event into the program.
type EventMsg struct {
	Event apply.Event
}

// ExternalChangeMsg reports a field changed outside the TUI, e.g. over MCP.
type ExternalChangeMsg struct {
	Ref form.Ref
}

// StatementEditedMsg is sent when the external editor returns.
type StatementEditedMsg struct {
	Ref     form.Ref
	Content string
	Err     error
}

// TabExitForwardMsg is sent when tab leaves the last field of a step.
type TabExitForwardMsg struct{}

// TabExitBackwardMsg is sent when shift+tab leaves the first field of a step.
type TabExitBackwardMsg struct{}

// operation names a controller call run in the background.
type operation int

const (
	opStart operation = iota
	opSave
	opNext
	opPrevious
)

// opDoneMsg reports the result of a controller call.
type opDoneMsg struct {
	op  operation
	err error
}
