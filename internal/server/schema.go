package server

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/mark3labs/applywiz/internal/form"
)

// applicationSchema describes a submittable aggregate: every section present
// and the numeric fields within their ranges.
var applicationSchema = map[string]any{
	"type":     "object",
	"required": sectionNames(),
	"properties": map[string]any{
		string(form.SectionPersonal): map[string]any{
			"type": "object",
			"properties": map[string]any{
				"first_name": map[string]any{"type": "string"},
				"last_name":  map[string]any{"type": "string"},
				"email":      map[string]any{"type": "string"},
			},
		},
		string(form.SectionAcademic): map[string]any{
			"type": "object",
			"properties": map[string]any{
				"year_level":     map[string]any{"type": "integer", "minimum": 0},
				"gpa":            map[string]any{"type": "number", "minimum": 0, "maximum": 4},
				"admission_year": map[string]any{"type": "integer", "minimum": 0},
			},
		},
		string(form.SectionFinancial): map[string]any{
			"type": "object",
			"properties": map[string]any{
				"family_income":      map[string]any{"type": "number", "minimum": 0},
				"monthly_expenses":   map[string]any{"type": "number", "minimum": 0},
				"siblings_count":     map[string]any{"type": "integer", "minimum": 0},
				"other_scholarships": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			},
		},
		string(form.SectionActivity): map[string]any{
			"type": "object",
			"properties": map[string]any{
				"skills": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				"awards": map[string]any{"type": "array"},
			},
		},
		string(form.SectionDocuments): map[string]any{
			"type": "object",
			"properties": map[string]any{
				"personal_statement": map[string]any{"type": "string"},
				"required_documents": map[string]any{"type": "array"},
			},
		},
	},
}

func sectionNames() []any {
	names := make([]any, len(form.Sections))
	for i, s := range form.Sections {
		names[i] = string(s)
	}
	return names
}

// validateApplication checks a step_data blob against applicationSchema.
func validateApplication(blob string) error {
	var data any
	if err := json.Unmarshal([]byte(blob), &data); err != nil {
		return fmt.Errorf("step_data is not valid JSON: %w", err)
	}

	schemaLoader := gojsonschema.NewGoLoader(applicationSchema)
	documentLoader := gojsonschema.NewGoLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("step_data validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
