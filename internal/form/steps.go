package form

// StepConfig is the backend's declaration of one wizard step.
// Field names are "section.field" or bare field names.
type StepConfig struct {
	StepNumber     int      `json:"step_number" yaml:"step_number"`
	Title          string   `json:"title" yaml:"title"`
	Description    string   `json:"description" yaml:"description"`
	Fields         []string `json:"fields" yaml:"fields"`
	RequiredFields []string `json:"required_fields" yaml:"required_fields"`
}

// StepsConfig is the steps-config response body.
type StepsConfig struct {
	Steps      []StepConfig `json:"steps" yaml:"steps"`
	TotalSteps int          `json:"total_steps" yaml:"total_steps"`
}

// DefaultSteps is the built-in five-step configuration, one section per step.
func DefaultSteps() StepsConfig {
	steps := []StepConfig{
		{
			StepNumber:     1,
			Title:          "Personal information",
			Description:    "Tell us who you are and how to reach you.",
			Fields:         names(Fields(SectionPersonal)),
			RequiredFields: names([]Ref{FirstName, LastName, StudentID, Email, Phone}),
		},
		{
			StepNumber:     2,
			Title:          "Academic information",
			Description:    "Your faculty, year and grades.",
			Fields:         names(Fields(SectionAcademic)),
			RequiredFields: names([]Ref{Faculty, Department, YearLevel, GPA}),
		},
		{
			StepNumber:     3,
			Title:          "Financial information",
			Description:    "Household income and other support.",
			Fields:         names(Fields(SectionFinancial)),
			RequiredFields: names([]Ref{FamilyIncome, ParentOccupation}),
		},
		{
			StepNumber:     4,
			Title:          "Activities",
			Description:    "Activities, awards, skills and languages.",
			Fields:         names(Fields(SectionActivity)),
			RequiredFields: []string{},
		},
		{
			StepNumber:     5,
			Title:          "Documents",
			Description:    "Supporting documents and your personal statement.",
			Fields:         names(Fields(SectionDocuments)),
			RequiredFields: names([]Ref{PersonalStatement}),
		},
	}
	return StepsConfig{Steps: steps, TotalSteps: len(steps)}
}

func names(refs []Ref) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.String()
	}
	return out
}
