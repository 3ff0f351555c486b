package form

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Section names one of the five form sections.
type Section string

const (
	SectionPersonal  Section = "personal_info"
	SectionAcademic  Section = "academic_info"
	SectionFinancial Section = "financial_info"
	SectionActivity  Section = "activity_info"
	SectionDocuments Section = "documents"
)

// Sections lists the sections in wizard order.
var Sections = []Section{SectionPersonal, SectionAcademic, SectionFinancial, SectionActivity, SectionDocuments}

// Kind classifies a field's value for editing and truthiness.
type Kind int

const (
	KindText Kind = iota
	KindLongText
	KindInt
	KindFloat
	KindBool
	KindList
	KindRecords
)

// Ref addresses one field of State.
type Ref struct {
	Section Section
	Field   string
}

// String returns the dotted form, e.g. "personal_info.first_name".
func (r Ref) String() string {
	return string(r.Section) + "." + r.Field
}

var (
	FirstName   = Ref{SectionPersonal, "first_name"}
	LastName    = Ref{SectionPersonal, "last_name"}
	StudentID   = Ref{SectionPersonal, "student_id"}
	Email       = Ref{SectionPersonal, "email"}
	Phone       = Ref{SectionPersonal, "phone"}
	Address     = Ref{SectionPersonal, "address"}
	DateOfBirth = Ref{SectionPersonal, "date_of_birth"}
	Nationality = Ref{SectionPersonal, "nationality"}

	Faculty       = Ref{SectionAcademic, "faculty"}
	Department    = Ref{SectionAcademic, "department"}
	YearLevel     = Ref{SectionAcademic, "year_level"}
	GPA           = Ref{SectionAcademic, "gpa"}
	AdmissionYear = Ref{SectionAcademic, "admission_year"}
	TranscriptRef = Ref{SectionAcademic, "transcript_ref"}

	FamilyIncome        = Ref{SectionFinancial, "family_income"}
	MonthlyExpenses     = Ref{SectionFinancial, "monthly_expenses"}
	SiblingsCount       = Ref{SectionFinancial, "siblings_count"}
	ParentOccupation    = Ref{SectionFinancial, "parent_occupation"}
	HasOtherScholarship = Ref{SectionFinancial, "has_other_scholarship"}
	OtherScholarships   = Ref{SectionFinancial, "other_scholarships"}
	IncomeDocuments     = Ref{SectionFinancial, "income_documents"}

	Extracurricular = Ref{SectionActivity, "extracurricular_activities"}
	Volunteer       = Ref{SectionActivity, "volunteer_activities"}
	Awards          = Ref{SectionActivity, "awards"}
	Skills          = Ref{SectionActivity, "skills"}
	Languages       = Ref{SectionActivity, "languages"}

	RequiredDocuments = Ref{SectionDocuments, "required_documents"}
	OptionalDocuments = Ref{SectionDocuments, "optional_documents"}
	PersonalStatement = Ref{SectionDocuments, "personal_statement"}
)

// accessor is the typed get/set pair for one field.
// Values cross the boundary as edit strings; lists are comma separated and
// records use " | " between columns and "; " between rows.
type accessor struct {
	kind   Kind
	label  string
	hint   string
	get    func(*State) string
	set    func(*State, string) error
	filled func(*State) bool
}

type fieldDef struct {
	ref Ref
	acc accessor
}

var (
	fieldTable []fieldDef
	fieldIndex map[Ref]int
)

func init() {
	fieldTable = []fieldDef{
		{FirstName, text("First name", func(s *State) *string { return &s.Personal.FirstName })},
		{LastName, text("Last name", func(s *State) *string { return &s.Personal.LastName })},
		{StudentID, text("Student ID", func(s *State) *string { return &s.Personal.StudentID })},
		{Email, text("Email", func(s *State) *string { return &s.Personal.Email })},
		{Phone, text("Phone", func(s *State) *string { return &s.Personal.Phone })},
		{Address, text("Address", func(s *State) *string { return &s.Personal.Address })},
		{DateOfBirth, text("Date of birth", func(s *State) *string { return &s.Personal.DateOfBirth })},
		{Nationality, text("Nationality", func(s *State) *string { return &s.Personal.Nationality })},

		{Faculty, text("Faculty", func(s *State) *string { return &s.Academic.Faculty })},
		{Department, text("Department", func(s *State) *string { return &s.Academic.Department })},
		{YearLevel, integer("Year level", func(s *State) *int { return &s.Academic.YearLevel })},
		{GPA, number("GPA", 4, func(s *State) *float64 { return &s.Academic.GPA })},
		{AdmissionYear, integer("Admission year", func(s *State) *int { return &s.Academic.AdmissionYear })},
		{TranscriptRef, text("Transcript reference", func(s *State) *string { return &s.Academic.TranscriptRef })},

		{FamilyIncome, number("Family income", 0, func(s *State) *float64 { return &s.Financial.FamilyIncome })},
		{MonthlyExpenses, number("Monthly expenses", 0, func(s *State) *float64 { return &s.Financial.MonthlyExpenses })},
		{SiblingsCount, integer("Siblings", func(s *State) *int { return &s.Financial.SiblingsCount })},
		{ParentOccupation, text("Parent occupation", func(s *State) *string { return &s.Financial.ParentOccupation })},
		{HasOtherScholarship, boolean("Has other scholarship", func(s *State) *bool { return &s.Financial.HasOtherScholarship })},
		{OtherScholarships, list("Other scholarships", func(s *State) *[]string { return &s.Financial.OtherScholarships })},
		{IncomeDocuments, list("Income documents", func(s *State) *[]string { return &s.Financial.IncomeDocuments })},

		{Extracurricular, records("Extracurricular activities", "name | role | duration",
			func(s *State) *[]Activity { return &s.Activity.Extracurricular }, activityCols, parseActivity)},
		{Volunteer, records("Volunteer activities", "name | role | duration",
			func(s *State) *[]Activity { return &s.Activity.Volunteer }, activityCols, parseActivity)},
		{Awards, records("Awards", "title | issuer | year",
			func(s *State) *[]Award { return &s.Activity.Awards }, awardCols, parseAward)},
		{Skills, list("Skills", func(s *State) *[]string { return &s.Activity.Skills })},
		{Languages, records("Languages", "name | level",
			func(s *State) *[]Language { return &s.Activity.Languages }, languageCols, parseLanguage)},

		{RequiredDocuments, records("Required documents", "type | file name | reference",
			func(s *State) *[]DocumentUpload { return &s.Documents.Required }, documentCols, parseDocument)},
		{OptionalDocuments, records("Optional documents", "type | file name | reference",
			func(s *State) *[]DocumentUpload { return &s.Documents.Optional }, documentCols, parseDocument)},
		{PersonalStatement, longText("Personal statement", func(s *State) *string { return &s.Documents.PersonalStatement })},
	}
	fieldIndex = make(map[Ref]int, len(fieldTable))
	for i, d := range fieldTable {
		fieldIndex[d.ref] = i
	}
}

// ErrUnknownField is returned for refs that do not name a field.
type ErrUnknownField struct {
	Name string
}

func (e *ErrUnknownField) Error() string {
	return fmt.Sprintf("unknown field %q", e.Name)
}

// ParseRef resolves "section.field" or a bare field name.
// Bare names are unique across sections.
func ParseRef(name string) (Ref, error) {
	name = strings.TrimSpace(name)
	if sec, field, ok := strings.Cut(name, "."); ok {
		r := Ref{Section(sec), field}
		if _, known := fieldIndex[r]; known {
			return r, nil
		}
		return Ref{}, &ErrUnknownField{Name: name}
	}
	for _, d := range fieldTable {
		if d.ref.Field == name {
			return d.ref, nil
		}
	}
	return Ref{}, &ErrUnknownField{Name: name}
}

// AllRefs returns every field in wizard order.
func AllRefs() []Ref {
	refs := make([]Ref, len(fieldTable))
	for i, d := range fieldTable {
		refs[i] = d.ref
	}
	return refs
}

// Fields returns the fields of one section in declaration order.
func Fields(sec Section) []Ref {
	var refs []Ref
	for _, d := range fieldTable {
		if d.ref.Section == sec {
			refs = append(refs, d.ref)
		}
	}
	return refs
}

func lookup(r Ref) accessor {
	i, ok := fieldIndex[r]
	if !ok {
		panic(fmt.Sprintf("form: unregistered field %s", r))
	}
	return fieldTable[i].acc
}

// Known reports whether r names a field.
func (r Ref) Known() bool {
	_, ok := fieldIndex[r]
	return ok
}

// Kind returns the value kind of the field.
func (r Ref) Kind() Kind { return lookup(r).kind }

// Label returns a human label for the field.
func (r Ref) Label() string { return lookup(r).label }

// Hint describes the edit format for list and record fields.
func (r Ref) Hint() string { return lookup(r).hint }

// Get returns the field's value as an edit string.
func (s *State) Get(r Ref) string {
	return lookup(r).get(s)
}

// Set parses v and stores it into the field.
func (s *State) Set(r Ref, v string) error {
	if err := lookup(r).set(s, v); err != nil {
		return fmt.Errorf("%s: %w", r.Label(), err)
	}
	return nil
}

// Filled reports the JavaScript-style truthiness of the field: non-empty
// strings, non-zero numbers, true booleans and non-empty lists.
func (s *State) Filled(r Ref) bool {
	return lookup(r).filled(s)
}

// Blank reports whether a required field lacks a value.
// Strings are trimmed here, unlike Filled.
func (s *State) Blank(r Ref) bool {
	a := lookup(r)
	switch a.kind {
	case KindText, KindLongText:
		return strings.TrimSpace(a.get(s)) == ""
	default:
		return !a.filled(s)
	}
}

func text(label string, p func(*State) *string) accessor {
	return accessor{
		kind:   KindText,
		label:  label,
		get:    func(s *State) string { return *p(s) },
		set:    func(s *State, v string) error { *p(s) = v; return nil },
		filled: func(s *State) bool { return *p(s) != "" },
	}
}

func longText(label string, p func(*State) *string) accessor {
	a := text(label, p)
	a.kind = KindLongText
	a.hint = "markdown"
	return a
}

func integer(label string, p func(*State) *int) accessor {
	return accessor{
		kind:  KindInt,
		label: label,
		get: func(s *State) string {
			if *p(s) == 0 {
				return ""
			}
			return strconv.Itoa(*p(s))
		},
		set: func(s *State, v string) error {
			v = strings.TrimSpace(v)
			if v == "" {
				*p(s) = 0
				return nil
			}
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%q is not a whole number", v)
			}
			if n < 0 {
				return fmt.Errorf("must not be negative")
			}
			*p(s) = n
			return nil
		},
		filled: func(s *State) bool { return *p(s) != 0 },
	}
}

// number builds a float accessor; a limit of zero means unbounded.
func number(label string, limit float64, p func(*State) *float64) accessor {
	return accessor{
		kind:  KindFloat,
		label: label,
		get: func(s *State) string {
			if *p(s) == 0 {
				return ""
			}
			return strconv.FormatFloat(*p(s), 'f', -1, 64)
		},
		set: func(s *State, v string) error {
			v = strings.ReplaceAll(strings.TrimSpace(v), ",", "")
			if v == "" {
				*p(s) = 0
				return nil
			}
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
				return fmt.Errorf("%q is not a number", v)
			}
			if f < 0 {
				return fmt.Errorf("must not be negative")
			}
			if limit > 0 && f > limit {
				return fmt.Errorf("must be at most %s", strconv.FormatFloat(limit, 'f', -1, 64))
			}
			*p(s) = f
			return nil
		},
		filled: func(s *State) bool { return *p(s) != 0 },
	}
}

func boolean(label string, p func(*State) *bool) accessor {
	return accessor{
		kind:  KindBool,
		label: label,
		hint:  "yes / no",
		get: func(s *State) string {
			if *p(s) {
				return "yes"
			}
			return "no"
		},
		set: func(s *State, v string) error {
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "yes", "y", "true", "1":
				*p(s) = true
			case "no", "n", "false", "0", "":
				*p(s) = false
			default:
				return fmt.Errorf("%q is not yes or no", v)
			}
			return nil
		},
		filled: func(s *State) bool { return *p(s) },
	}
}

func list(label string, p func(*State) *[]string) accessor {
	return accessor{
		kind:  KindList,
		label: label,
		hint:  "comma separated",
		get:   func(s *State) string { return strings.Join(*p(s), ", ") },
		set: func(s *State, v string) error {
			items := []string{}
			for _, item := range strings.Split(v, ",") {
				if item = strings.TrimSpace(item); item != "" {
					items = append(items, item)
				}
			}
			*p(s) = items
			return nil
		},
		filled: func(s *State) bool { return len(*p(s)) > 0 },
	}
}

func records[T any](label, hint string, p func(*State) *[]T, cols func(T) []string, parse func([]string) (T, error)) accessor {
	return accessor{
		kind:  KindRecords,
		label: label,
		hint:  hint + "; next row",
		get: func(s *State) string {
			rows := make([]string, 0, len(*p(s)))
			for _, rec := range *p(s) {
				rows = append(rows, strings.Join(cols(rec), " | "))
			}
			return strings.Join(rows, "; ")
		},
		set: func(s *State, v string) error {
			out := []T{}
			for _, row := range strings.Split(v, ";") {
				if strings.TrimSpace(row) == "" {
					continue
				}
				parts := strings.Split(row, "|")
				for i := range parts {
					parts[i] = strings.TrimSpace(parts[i])
				}
				rec, err := parse(parts)
				if err != nil {
					return err
				}
				out = append(out, rec)
			}
			*p(s) = out
			return nil
		},
		filled: func(s *State) bool { return len(*p(s)) > 0 },
	}
}

func col(parts []string, i int) string {
	if i < len(parts) {
		return parts[i]
	}
	return ""
}

func activityCols(a Activity) []string { return []string{a.Name, a.Role, a.Duration} }

func parseActivity(parts []string) (Activity, error) {
	a := Activity{Name: col(parts, 0), Role: col(parts, 1), Duration: col(parts, 2)}
	if a.Name == "" {
		return Activity{}, fmt.Errorf("activity name is required")
	}
	return a, nil
}

func awardCols(a Award) []string {
	year := ""
	if a.Year != 0 {
		year = strconv.Itoa(a.Year)
	}
	return []string{a.Title, a.Issuer, year}
}

func parseAward(parts []string) (Award, error) {
	a := Award{Title: col(parts, 0), Issuer: col(parts, 1)}
	if a.Title == "" {
		return Award{}, fmt.Errorf("award title is required")
	}
	if y := col(parts, 2); y != "" {
		n, err := strconv.Atoi(y)
		if err != nil {
			return Award{}, fmt.Errorf("award year %q is not a number", y)
		}
		a.Year = n
	}
	return a, nil
}

func languageCols(l Language) []string { return []string{l.Name, l.Level} }

func parseLanguage(parts []string) (Language, error) {
	l := Language{Name: col(parts, 0), Level: col(parts, 1)}
	if l.Name == "" {
		return Language{}, fmt.Errorf("language name is required")
	}
	return l, nil
}

func documentCols(d DocumentUpload) []string { return []string{d.Type, d.FileName, d.FileRef} }

func parseDocument(parts []string) (DocumentUpload, error) {
	d := DocumentUpload{Type: col(parts, 0), FileName: col(parts, 1), FileRef: col(parts, 2)}
	if d.Type == "" {
		return DocumentUpload{}, fmt.Errorf("document type is required")
	}
	return d, nil
}
