package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/mark3labs/applywiz/internal/form"
)

// Draft is the server-side snapshot returned by GET draft.
type Draft struct {
	ScholarshipID int       `json:"scholarship_id,omitempty"`
	CurrentStep   int       `json:"current_step"`
	DraftData     string    `json:"draft_data"`
	LastSavedAt   time.Time `json:"last_saved_at"`
}

// SaveDraftRequest is the body of POST draft.
type SaveDraftRequest struct {
	ScholarshipID int    `json:"scholarship_id"`
	CurrentStep   int    `json:"current_step"`
	DraftData     string `json:"draft_data"`
	AutoSave      bool   `json:"auto_save"`
}

// SubmitRequest is the body of POST applications/multi-step.
type SubmitRequest struct {
	ScholarshipID int    `json:"scholarship_id"`
	Step          int    `json:"step"`
	StepData      string `json:"step_data"`
	IsComplete    bool   `json:"is_complete"`
	SaveAsDraft   bool   `json:"save_as_draft"`
}

// SubmitResponse is the body returned by POST applications/multi-step.
type SubmitResponse struct {
	Success bool       `json:"success"`
	Data    SubmitData `json:"data"`
	Error   string     `json:"error,omitempty"`
}

// SubmitData carries the created application's id.
type SubmitData struct {
	ApplicationID ApplicationID `json:"application_id"`
}

// SuccessResponse is the minimal {success} envelope.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// StepsConfig is the steps-config response.
type StepsConfig = form.StepsConfig

// ApplicationID is the backend's identifier for a submitted application.
// Backends send it either as a number or as a string.
type ApplicationID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ApplicationID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ApplicationID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("application_id: %w", err)
	}
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		*id = ApplicationID(strconv.FormatInt(i, 10))
		return nil
	}
	*id = ApplicationID(n.String())
	return nil
}

// String returns the id as text.
func (id ApplicationID) String() string { return string(id) }
