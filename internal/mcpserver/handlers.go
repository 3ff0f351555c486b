package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mark3labs/applywiz/internal/form"
)

// registerTools adds the form-status, form-set-field and form-validate-step tools.
func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("form-status",
			mcp.WithDescription("Show the wizard's current step, completion and outstanding errors"),
			mcp.WithBoolean("include_data",
				mcp.Description("Also return the full form data"),
			),
		),
		s.handleFormStatus,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("form-set-field",
			mcp.WithDescription("Set one form field from its text value. "+
				"Lists are comma separated; record rows are separated by ';' and columns by '|'."),
			mcp.WithString("field", mcp.Required(),
				mcp.Description("Field name, either dotted (personal_info.email) or bare (email)"),
			),
			mcp.WithString("value", mcp.Required(),
				mcp.Description("New value as it would be typed into the form"),
			),
		),
		s.handleFormSetField,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("form-validate-step",
			mcp.WithDescription("Check a step's required fields without moving the wizard"),
			mcp.WithNumber("step",
				mcp.Description("Step number (defaults to the current step)"),
			),
		),
		s.handleFormValidateStep,
	)
}

type stepStatus struct {
	Number   int      `json:"number"`
	Title    string   `json:"title"`
	Required []string `json:"required_fields"`
}

type formStatus struct {
	ScholarshipID int               `json:"scholarship_id"`
	Step          int               `json:"current_step"`
	Total         int               `json:"total_steps"`
	Title         string            `json:"title"`
	Completion    int               `json:"completion"`
	Sections      map[string]int    `json:"sections"`
	Steps         []stepStatus      `json:"steps"`
	Errors        map[string]string `json:"errors,omitempty"`
	Dirty         bool              `json:"unsaved_changes"`
	Submitted     bool              `json:"submitted"`
	ApplicationID string            `json:"application_id,omitempty"`
	LastSavedAt   *time.Time        `json:"last_saved_at,omitempty"`
	Data          *form.State       `json:"data,omitempty"`
}

// handleFormStatus returns the wizard state as JSON.
func (s *Server) handleFormStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v := s.wizard.Snapshot()
	if !v.Ready {
		return mcp.NewToolResultText("error: the wizard is still loading"), nil
	}

	status := formStatus{
		ScholarshipID: v.ScholarshipID,
		Step:          v.Step,
		Total:         v.Total,
		Title:         v.Current().Title,
		Completion:    v.Completion,
		Sections:      make(map[string]int, len(form.Sections)),
		Errors:        v.Errors,
		Dirty:         v.Dirty,
		Submitted:     v.Submitted,
		ApplicationID: v.ApplicationID.String(),
	}
	for _, sec := range form.Sections {
		status.Sections[string(sec)] = v.Data.SectionCompletion(sec)
	}
	for _, st := range v.Steps {
		req := make([]string, 0, len(st.Required))
		for _, r := range st.Required {
			req = append(req, r.String())
		}
		status.Steps = append(status.Steps, stepStatus{Number: st.Number, Title: st.Title, Required: req})
	}
	if !v.LastSavedAt.IsZero() {
		at := v.LastSavedAt
		status.LastSavedAt = &at
	}
	if include, ok := request.GetArguments()["include_data"].(bool); ok && include {
		status.Data = &v.Data
	}

	out, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("error: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// handleFormSetField updates one field through the wizard.
func (s *Server) handleFormSetField(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	if args == nil {
		return mcp.NewToolResultText("error: no arguments provided"), nil
	}

	name, ok := args["field"].(string)
	if !ok || name == "" {
		return mcp.NewToolResultText("error: missing or invalid 'field' parameter"), nil
	}
	value, ok := args["value"].(string)
	if !ok {
		return mcp.NewToolResultText("error: missing or invalid 'value' parameter"), nil
	}

	ref, err := form.ParseRef(name)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("error: %v", err)), nil
	}
	if err := s.wizard.Update(ref, value); err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("error: %v", err)), nil
	}
	if s.onChange != nil {
		s.onChange(ref)
	}

	v := s.wizard.Snapshot()
	return mcp.NewToolResultText(fmt.Sprintf("Set %s to %q (form %d%% complete)",
		ref.Label(), v.Data.Get(ref), v.Completion)), nil
}

// handleFormValidateStep reports the missing required fields of a step.
func (s *Server) handleFormValidateStep(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v := s.wizard.Snapshot()
	if !v.Ready {
		return mcp.NewToolResultText("error: the wizard is still loading"), nil
	}

	step := v.Step
	// JSON numbers arrive as float64.
	if n, ok := request.GetArguments()["step"].(float64); ok {
		step = int(n)
	}

	errs, err := s.wizard.Check(step)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("error: %v", err)), nil
	}
	if len(errs) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("Step %d is complete", step)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Step %d has %d problem(s):", step, len(errs))
	for _, field := range slices.Sorted(maps.Keys(errs)) {
		fmt.Fprintf(&b, "\n  %s: %s", field, errs[field])
	}
	return mcp.NewToolResultText(b.String()), nil
}
