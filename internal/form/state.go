// Package form defines the scholarship application aggregate and typed access to its fields.
package form

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// State is the aggregate form data spanning all wizard steps.
// Every section is a value, so a State always has all five sections.
type State struct {
	Personal  PersonalInfo  `json:"personal_info"`
	Academic  AcademicInfo  `json:"academic_info"`
	Financial FinancialInfo `json:"financial_info"`
	Activity  ActivityInfo  `json:"activity_info"`
	Documents Documents     `json:"documents"`
}

// PersonalInfo identifies and contacts the applicant.
type PersonalInfo struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	StudentID   string `json:"student_id"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	DateOfBirth string `json:"date_of_birth"`
	Nationality string `json:"nationality"`
}

// AcademicInfo describes the applicant's enrolment.
type AcademicInfo struct {
	Faculty       string  `json:"faculty"`
	Department    string  `json:"department"`
	YearLevel     int     `json:"year_level"`
	GPA           float64 `json:"gpa"`
	AdmissionYear int     `json:"admission_year"`
	TranscriptRef string  `json:"transcript_ref"`
}

// FinancialInfo describes the household's finances.
type FinancialInfo struct {
	FamilyIncome        float64  `json:"family_income"`
	MonthlyExpenses     float64  `json:"monthly_expenses"`
	SiblingsCount       int      `json:"siblings_count"`
	ParentOccupation    string   `json:"parent_occupation"`
	HasOtherScholarship bool     `json:"has_other_scholarship"`
	OtherScholarships   []string `json:"other_scholarships"`
	IncomeDocuments     []string `json:"income_documents"`
}

// ActivityInfo holds ordered activity records.
type ActivityInfo struct {
	Extracurricular []Activity `json:"extracurricular_activities"`
	Volunteer       []Activity `json:"volunteer_activities"`
	Awards          []Award    `json:"awards"`
	Skills          []string   `json:"skills"`
	Languages       []Language `json:"languages"`
}

// Activity is one extracurricular or volunteer record.
type Activity struct {
	Name     string `json:"name"`
	Role     string `json:"role"`
	Duration string `json:"duration"`
}

// Award is one prize or honour.
type Award struct {
	Title  string `json:"title"`
	Issuer string `json:"issuer"`
	Year   int    `json:"year"`
}

// Language is one language proficiency.
type Language struct {
	Name  string `json:"name"`
	Level string `json:"level"`
}

// Documents holds upload descriptors and the personal statement.
// Files themselves live elsewhere; only references are kept here.
type Documents struct {
	Required          []DocumentUpload `json:"required_documents"`
	Optional          []DocumentUpload `json:"optional_documents"`
	PersonalStatement string           `json:"personal_statement"`
}

// DocumentUpload describes an uploaded file.
type DocumentUpload struct {
	Type     string `json:"type"`
	FileName string `json:"file_name"`
	FileRef  string `json:"file_ref"`
}

// Default returns a state with every section present and every list empty.
func Default() State {
	var s State
	s.Normalize()
	return s
}

// Normalize replaces nil lists with empty ones so absent values encode as [] rather than null.
func (s *State) Normalize() {
	if s.Financial.OtherScholarships == nil {
		s.Financial.OtherScholarships = []string{}
	}
	if s.Financial.IncomeDocuments == nil {
		s.Financial.IncomeDocuments = []string{}
	}
	if s.Activity.Extracurricular == nil {
		s.Activity.Extracurricular = []Activity{}
	}
	if s.Activity.Volunteer == nil {
		s.Activity.Volunteer = []Activity{}
	}
	if s.Activity.Awards == nil {
		s.Activity.Awards = []Award{}
	}
	if s.Activity.Skills == nil {
		s.Activity.Skills = []string{}
	}
	if s.Activity.Languages == nil {
		s.Activity.Languages = []Language{}
	}
	if s.Documents.Required == nil {
		s.Documents.Required = []DocumentUpload{}
	}
	if s.Documents.Optional == nil {
		s.Documents.Optional = []DocumentUpload{}
	}
}

// Clone returns a deep copy.
func (s State) Clone() State {
	c := s
	c.Financial.OtherScholarships = slices.Clone(s.Financial.OtherScholarships)
	c.Financial.IncomeDocuments = slices.Clone(s.Financial.IncomeDocuments)
	c.Activity.Extracurricular = slices.Clone(s.Activity.Extracurricular)
	c.Activity.Volunteer = slices.Clone(s.Activity.Volunteer)
	c.Activity.Awards = slices.Clone(s.Activity.Awards)
	c.Activity.Skills = slices.Clone(s.Activity.Skills)
	c.Activity.Languages = slices.Clone(s.Activity.Languages)
	c.Documents.Required = slices.Clone(s.Documents.Required)
	c.Documents.Optional = slices.Clone(s.Documents.Optional)
	c.Normalize()
	return c
}

// Encode serializes the state into the blob stored as draft_data / step_data.
func Encode(s State) (string, error) {
	s = s.Clone()
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encoding form state: %w", err)
	}
	return string(data), nil
}

// EncodeIndent is Encode with indentation, used for human-facing diffs.
func EncodeIndent(s State) (string, error) {
	s = s.Clone()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding form state: %w", err)
	}
	return string(data) + "\n", nil
}

// Decode parses a blob produced by Encode. An empty blob yields Default().
// Unknown keys are ignored and missing sections keep their defaults.
func Decode(blob string) (State, error) {
	s := Default()
	if strings.TrimSpace(blob) == "" {
		return s, nil
	}
	if err := json.Unmarshal([]byte(blob), &s); err != nil {
		return Default(), fmt.Errorf("decoding form state: %w", err)
	}
	s.Normalize()
	return s, nil
}
