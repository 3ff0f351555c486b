package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mark3labs/applywiz/internal/api"
	"github.com/mark3labs/applywiz/internal/apply"
	"github.com/mark3labs/applywiz/internal/form"
)

type stubBackend struct{}

func (stubBackend) StepsConfig(ctx context.Context, id int) (form.StepsConfig, error) {
	return form.DefaultSteps(), nil
}

func (stubBackend) LoadDraft(ctx context.Context, id int) (*api.Draft, error) {
	return nil, api.ErrDraftNotFound
}

func (stubBackend) SaveDraft(ctx context.Context, req api.SaveDraftRequest) error { return nil }

func (stubBackend) Submit(ctx context.Context, req api.SubmitRequest) (api.ApplicationID, error) {
	return "app-1", nil
}

// setupTestServer creates a server bound to a started wizard.
func setupTestServer(t *testing.T) (*Server, *apply.Controller, *[]form.Ref) {
	t.Helper()
	ctrl := apply.New(stubBackend{}, apply.Options{ScholarshipID: 42, AutosaveInterval: time.Hour})
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("failed to start wizard: %v", err)
	}
	t.Cleanup(ctrl.Close)

	var changed []form.Ref
	srv := New(ctrl, func(r form.Ref) { changed = append(changed, r) })
	return srv, ctrl, &changed
}

// extractText extracts text from CallToolResult.Content[0]
func extractText(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return ""
	}
	if textContent, ok := result.Content[0].(mcp.TextContent); ok {
		return textContent.Text
	}
	return ""
}

func call(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Name: name, Arguments: args}}
}

func TestHandleFormStatus(t *testing.T) {
	srv, ctrl, _ := setupTestServer(t)
	if err := ctrl.Update(form.FirstName, "Somchai"); err != nil {
		t.Fatal(err)
	}

	result, err := srv.handleFormStatus(context.Background(), call("form-status", nil))
	if err != nil {
		t.Fatalf("handleFormStatus returned error: %v", err)
	}

	var status formStatus
	if err := json.Unmarshal([]byte(extractText(result)), &status); err != nil {
		t.Fatalf("status is not JSON: %v\n%s", err, extractText(result))
	}
	if status.ScholarshipID != 42 || status.Step != 1 || status.Total != 5 {
		t.Errorf("unexpected position: %+v", status)
	}
	if status.Title != "Personal information" {
		t.Errorf("title = %q", status.Title)
	}
	if !status.Dirty {
		t.Error("expected unsaved changes")
	}
	if status.Sections["personal_info"] == 0 {
		t.Errorf("personal section should be partly complete: %v", status.Sections)
	}
	if status.Data != nil {
		t.Error("data returned without include_data")
	}
	if len(status.Steps) != 5 || len(status.Steps[0].Required) != 5 {
		t.Errorf("unexpected steps: %+v", status.Steps)
	}

	result, _ = srv.handleFormStatus(context.Background(), call("form-status", map[string]any{"include_data": true}))
	if err := json.Unmarshal([]byte(extractText(result)), &status); err != nil {
		t.Fatal(err)
	}
	if status.Data == nil || status.Data.Personal.FirstName != "Somchai" {
		t.Errorf("expected form data, got %+v", status.Data)
	}
}

func TestHandleFormSetField(t *testing.T) {
	srv, ctrl, changed := setupTestServer(t)

	tests := []struct {
		name    string
		args    map[string]any
		want    string
		changes int
	}{
		{"missing field", map[string]any{"value": "x"}, "error: missing or invalid 'field'", 0},
		{"missing value", map[string]any{"field": "email"}, "error: missing or invalid 'value'", 0},
		{"unknown field", map[string]any{"field": "nickname", "value": "x"}, "unknown field", 0},
		{"parse failure", map[string]any{"field": "academic_info.gpa", "value": "9"}, "error:", 0},
		{"bare name", map[string]any{"field": "email", "value": "a@b.co"}, `Set Email to "a@b.co"`, 1},
		{"dotted name", map[string]any{"field": "academic_info.year_level", "value": "3"}, "Set Year level", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := srv.handleFormSetField(context.Background(), call("form-set-field", tt.args))
			if err != nil {
				t.Fatalf("handleFormSetField returned error: %v", err)
			}
			if text := extractText(result); !strings.Contains(text, tt.want) {
				t.Errorf("result %q does not contain %q", text, tt.want)
			}
			if len(*changed) != tt.changes {
				t.Errorf("change callbacks = %d, want %d", len(*changed), tt.changes)
			}
		})
	}

	v := ctrl.Snapshot()
	if v.Data.Personal.Email != "a@b.co" || v.Data.Academic.YearLevel != 3 {
		t.Errorf("controller not updated: %+v", v.Data)
	}
	if _, ok := v.Errors["gpa"]; !ok {
		t.Error("parse failure should be recorded on the field")
	}
}

func TestHandleFormValidateStep(t *testing.T) {
	srv, ctrl, _ := setupTestServer(t)

	result, _ := srv.handleFormValidateStep(context.Background(), call("form-validate-step", nil))
	text := extractText(result)
	if !strings.Contains(text, "Step 1 has 5 problem(s)") || !strings.Contains(text, "first_name: First name is required") {
		t.Errorf("unexpected result: %s", text)
	}

	result, _ = srv.handleFormValidateStep(context.Background(), call("form-validate-step", map[string]any{"step": float64(4)}))
	if text := extractText(result); text != "Step 4 is complete" {
		t.Errorf("unexpected result: %s", text)
	}

	result, _ = srv.handleFormValidateStep(context.Background(), call("form-validate-step", map[string]any{"step": float64(9)}))
	if text := extractText(result); !strings.HasPrefix(text, "error:") {
		t.Errorf("expected error for out of range step, got %s", text)
	}

	// Checking never records errors on the wizard.
	if errs := ctrl.Snapshot().Errors; len(errs) != 0 {
		t.Errorf("errors recorded: %v", errs)
	}
}

func TestServerStartStop(t *testing.T) {
	srv, _, _ := setupTestServer(t)

	port, err := srv.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if port == 0 {
		t.Fatal("expected a port")
	}
	if _, err := srv.Start(context.Background()); err == nil {
		t.Error("second Start should fail")
	}
	if !strings.HasSuffix(srv.URL(), "/mcp") {
		t.Errorf("unexpected URL %s", srv.URL())
	}

	body := `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`
	resp, err := http.Post(srv.URL(), "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST tools/list: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		t.Errorf("tools/list status = %d", resp.StatusCode)
	}

	if err := srv.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := srv.Stop(); err != nil {
		t.Errorf("second Stop: %v", err)
	}
}
