package apply

import (
	"errors"
	"fmt"
	"slices"

	"github.com/mark3labs/applywiz/internal/form"
	"github.com/mark3labs/applywiz/internal/logger"
)

// Step is a resolved step configuration. It is read-only for the session.
type Step struct {
	Number      int
	Title       string
	Description string
	Fields      []form.Ref
	Required    []form.Ref
}

// IsRequired reports whether ref is required on this step.
func (s Step) IsRequired(ref form.Ref) bool {
	return slices.Contains(s.Required, ref)
}

// ResolveSteps turns the backend's string declarations into typed steps.
// Steps are numbered by position; a mismatching total_steps is ignored.
func ResolveSteps(cfg form.StepsConfig) ([]Step, error) {
	if len(cfg.Steps) == 0 {
		return nil, errors.New("steps config has no steps")
	}
	if cfg.TotalSteps != 0 && cfg.TotalSteps != len(cfg.Steps) {
		logger.Warn("steps config declares %d steps but lists %d", cfg.TotalSteps, len(cfg.Steps))
	}

	steps := make([]Step, 0, len(cfg.Steps))
	for i, sc := range cfg.Steps {
		fields, err := parseRefs(sc.Fields)
		if err != nil {
			return nil, fmt.Errorf("step %d fields: %w", i+1, err)
		}
		required, err := parseRefs(sc.RequiredFields)
		if err != nil {
			return nil, fmt.Errorf("step %d required fields: %w", i+1, err)
		}

		if len(fields) == 0 {
			fields = inferFields(i, required)
		}
		for _, r := range required {
			if !slices.Contains(fields, r) {
				fields = append(fields, r)
			}
		}

		title := sc.Title
		if title == "" {
			title = fmt.Sprintf("Step %d", i+1)
		}
		steps = append(steps, Step{
			Number:      i + 1,
			Title:       title,
			Description: sc.Description,
			Fields:      fields,
			Required:    required,
		})
	}
	return steps, nil
}

func parseRefs(names []string) ([]form.Ref, error) {
	refs := make([]form.Ref, 0, len(names))
	for _, n := range names {
		r, err := form.ParseRef(n)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(refs, r) {
			refs = append(refs, r)
		}
	}
	return refs, nil
}

// inferFields shows every field of the sections the required fields
// belong to, or the section at the same position when nothing is required.
func inferFields(pos int, required []form.Ref) []form.Ref {
	var sections []form.Section
	for _, r := range required {
		if !slices.Contains(sections, r.Section) {
			sections = append(sections, r.Section)
		}
	}
	if len(sections) == 0 && pos < len(form.Sections) {
		sections = append(sections, form.Sections[pos])
	}
	var fields []form.Ref
	for _, sec := range sections {
		fields = append(fields, form.Fields(sec)...)
	}
	return fields
}
