package grading

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/trezcool/gradebook/core"
)

// Sexes
const (
	SexMale   Sex = "M"
	SexFemale Sex = "F"
)

var (
	// bounds of a grade value, both for individual and final grades
	MinGrade = decimal.Zero
	MaxGrade = decimal.New(5, 0)

	// bounds of a cut's weight percentage
	MinPercentage = decimal.New(1, -2)
	MaxPercentage = decimal.New(100, 0)

	MinCutNumber = 1
	MaxCutNumber = 10
)

type Sex string

// ParseSex only recognizes the exact codes "M" and "F".
// Any other value returns ok=false, which callers treat as "no filter".
func ParseSex(s string) (sex Sex, ok bool) {
	switch Sex(s) {
	case SexMale, SexFemale:
		return Sex(s), true
	default:
		return "", false
	}
}

type SortOrder int

const (
	Unsorted SortOrder = iota
	Ascending
	Descending
)

func ParseSortOrder(s string) SortOrder {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc":
		return Ascending
	case "desc":
		return Descending
	default:
		return Unsorted
	}
}

func (o SortOrder) String() string {
	switch o {
	case Ascending:
		return "asc"
	case Descending:
		return "desc"
	default:
		return ""
	}
}

type Student struct {
	ID         string    `json:"id" db:"id"`
	Code       string    `json:"code" db:"code"`
	GivenName  string    `json:"given_name" db:"given_name"`
	FamilyName string    `json:"family_name" db:"family_name"`
	Sex        Sex       `json:"sex" db:"sex"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"` // UTC
}

func (s Student) FullName() string {
	return s.GivenName + " " + s.FamilyName
}

type Subject struct {
	ID      string `json:"id" db:"id"`
	Name    string `json:"name" db:"name"`
	Credits int    `json:"credits" db:"credits"`
}

// Cut is a graded evaluation period of a Subject, weighing Percentage % of the final grade.
type Cut struct {
	ID         string          `json:"id" db:"id"`
	SubjectID  string          `json:"subject_id" db:"subject_id"`
	Number     int             `json:"number" db:"number"`
	Percentage decimal.Decimal `json:"percentage" db:"percentage"`
}

type IndividualGrade struct {
	ID        string          `json:"id" db:"id"`
	StudentID string          `json:"student_id" db:"student_id"`
	SubjectID string          `json:"subject_id" db:"subject_id"`
	CutID     string          `json:"cut_id" db:"cut_id"`
	Value     decimal.Decimal `json:"value" db:"value"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"` // UTC, set once
}

// FinalGrade is derived from the IndividualGrades of a (Student, Subject) pair.
// It is never the source of truth.
type FinalGrade struct {
	StudentID string          `json:"student_id" db:"student_id"`
	SubjectID string          `json:"subject_id" db:"subject_id"`
	Value     decimal.Decimal `json:"value" db:"value"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"` // UTC
}

// WeightedGrade is an individual grade value joined with its cut's percentage.
type WeightedGrade struct {
	Value      decimal.Decimal `db:"value"`
	Percentage decimal.Decimal `db:"percentage"`
}

// StudentReportRow is a Student annotated with their final grade in the reporting subject.
type StudentReportRow struct {
	Code       string          `json:"code"`
	GivenName  string          `json:"given_name"`
	FamilyName string          `json:"family_name"`
	Sex        Sex             `json:"sex"`
	FinalGrade decimal.Decimal `json:"final_grade"`
	Student    Student         `json:"-"`
}

// GradeEntry is the outcome of recording an IndividualGrade.
// RecomputeErr is set when the grade was stored but its FinalGrade could not be refreshed.
type GradeEntry struct {
	Grade        IndividualGrade
	FinalGrade   FinalGrade
	RecomputeErr error
}

// NewStudent contains information needed to create a new Student.
type NewStudent struct {
	Code       string `json:"code" validate:"required,notblank,max=10"`
	GivenName  string `json:"given_name" validate:"required,notblank,max=100"`
	FamilyName string `json:"family_name" validate:"required,notblank,max=100"`
	Sex        Sex    `json:"sex" validate:"required,sex"`
}

func (ns *NewStudent) Validate(ctx context.Context, validate *validator.Validate, svc ServiceInterface) error {
	ns.Code = core.CleanString(ns.Code)
	ns.GivenName = core.CleanString(ns.GivenName)
	ns.FamilyName = core.CleanString(ns.FamilyName)

	if err := validate.Struct(ns); err != nil {
		return err
	}
	return svc.CheckStudentCodeUniqueness(ctx, ns.Code)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
// Blank fields keep their current value.
type UpdateStudent struct {
	Code       string `json:"code" validate:"omitempty,max=10"`
	GivenName  string `json:"given_name" validate:"omitempty,max=100"`
	FamilyName string `json:"family_name" validate:"omitempty,max=100"`
	Sex        Sex    `json:"sex" validate:"omitempty,sex"`
}

func (us *UpdateStudent) Validate(ctx context.Context, origStd Student, validate *validator.Validate, svc ServiceInterface) error {
	us.Code = core.CleanStringOr(us.Code, origStd.Code)
	us.GivenName = core.CleanStringOr(us.GivenName, origStd.GivenName)
	us.FamilyName = core.CleanStringOr(us.FamilyName, origStd.FamilyName)
	if us.Sex == "" {
		us.Sex = origStd.Sex
	}

	if err := validate.Struct(us); err != nil {
		return err
	}
	return svc.CheckStudentCodeUniqueness(ctx, us.Code, origStd)
}

type NewSubject struct {
	Name    string `json:"name" validate:"required,notblank,max=100"`
	Credits int    `json:"credits" validate:"required,min=1"`
}

func (ns *NewSubject) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	return validate.Struct(ns)
}

type NewCut struct {
	SubjectID  string          `json:"-"`
	Number     int             `json:"number" validate:"required,min=1,max=10"`
	Percentage decimal.Decimal `json:"percentage" validate:"percentage,twodp"`
}

func (nc *NewCut) Validate(validate *validator.Validate) error {
	return validate.Struct(nc)
}

// UpdateCut changes the weight of a cut. Its number and subject are fixed.
type UpdateCut struct {
	Percentage decimal.Decimal `json:"percentage" validate:"percentage,twodp"`
}

func (uc *UpdateCut) Validate(validate *validator.Validate) error {
	return validate.Struct(uc)
}

type NewGrade struct {
	StudentID string           `json:"student_id" validate:"required"`
	SubjectID string           `json:"subject_id" validate:"required"`
	CutID     string           `json:"cut_id" validate:"required"`
	Value     *decimal.Decimal `json:"value" validate:"required,gradevalue,twodp"`
}

func (ng *NewGrade) Validate(validate *validator.Validate) error {
	ng.StudentID = core.CleanString(ng.StudentID)
	ng.SubjectID = core.CleanString(ng.SubjectID)
	ng.CutID = core.CleanString(ng.CutID)
	return validate.Struct(ng)
}

type StudentFilter struct {
	Sex   Sex
	Codes []string
}

// ReportFilter selects and orders the rows of the students report.
type ReportFilter struct {
	SubjectID string
	Sex       Sex // "" means every student
	Order     SortOrder
}
