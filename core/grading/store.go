package grading

import (
	"context"

	"github.com/trezcool/gradebook/core"
)

type (
	// Store is what the grade aggregation, reporting and entry trigger read and write.
	// Lookups return the matching Err*NotFound sentinel when an identifier does not resolve.
	Store interface {
		GetStudent(ctx context.Context, id string) (Student, error)
		GetSubject(ctx context.Context, id string) (Subject, error)
		// ListWeightedGrades joins every IndividualGrade of the pair with its cut's percentage.
		ListWeightedGrades(ctx context.Context, studentID, subjectID string) ([]WeightedGrade, error)
		// UpsertFinalGrade inserts or overwrites the single FinalGrade of (StudentID, SubjectID) atomically.
		UpsertFinalGrade(ctx context.Context, fg FinalGrade) (FinalGrade, error)
		QueryStudents(ctx context.Context, filter StudentFilter, ordering []core.DBOrdering) ([]Student, error)
		GetFinalGrade(ctx context.Context, studentID, subjectID string) (FinalGrade, error)
		ListFinalGrades(ctx context.Context, subjectID string) ([]FinalGrade, error)
	}

	// Repository is the full entity store. Deletes cascade:
	// a Student or Subject takes its grades and final grades with it, a Subject its cuts, a Cut its grades.
	Repository interface {
		Store

		CheckStudentCodeUniqueness(ctx context.Context, code string, excluded ...Student) error
		CreateStudent(ctx context.Context, std Student) (Student, error)
		GetStudentByCode(ctx context.Context, code string) (Student, error)
		UpdateStudent(ctx context.Context, std Student) (Student, error)
		DeleteStudent(ctx context.Context, id string) error

		CreateSubject(ctx context.Context, sub Subject) (Subject, error)
		GetSubjectByName(ctx context.Context, name string) (Subject, error)
		ListSubjects(ctx context.Context) ([]Subject, error)
		DeleteSubject(ctx context.Context, id string) error

		CreateCut(ctx context.Context, cut Cut) (Cut, error)
		GetCut(ctx context.Context, id string) (Cut, error)
		ListCuts(ctx context.Context, subjectID string) ([]Cut, error)
		UpdateCut(ctx context.Context, cut Cut) (Cut, error)
		DeleteCut(ctx context.Context, id string) error

		CreateGrade(ctx context.Context, grade IndividualGrade) (IndividualGrade, error)
		GetGrade(ctx context.Context, id string) (IndividualGrade, error)
		// ListGrades applies AND operation on the non-empty GradeFilter fields.
		ListGrades(ctx context.Context, filter GradeFilter) ([]IndividualGrade, error)
		DeleteGrade(ctx context.Context, id string) error
	}
)

// GradeFilter selects individual grades. Empty fields do not filter.
type GradeFilter struct {
	StudentID string `query:"student"`
	SubjectID string `query:"subject"`
	CutID     string `query:"cut"`
}

func (gf *GradeFilter) Clean() {
	gf.StudentID = core.CleanString(gf.StudentID)
	gf.SubjectID = core.CleanString(gf.SubjectID)
	gf.CutID = core.CleanString(gf.CutID)
}
