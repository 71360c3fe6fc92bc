package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/trezcool/gradebook/core/grading"
)

// Dec parses a decimal literal, eg. Dec("4.50").
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// DecP is Dec for optional decimal fields.
func DecP(s string) *decimal.Decimal {
	d := Dec(s)
	return &d
}

func CreateStudent(t *testing.T, repo grading.Repository, code, givenName, familyName string, sex grading.Sex) grading.Student {
	t.Helper()
	now := time.Now().UTC()
	std, err := repo.CreateStudent(context.Background(), grading.Student{
		Code:       code,
		GivenName:  givenName,
		FamilyName: familyName,
		Sex:        sex,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return std
}

func CreateSubject(t *testing.T, repo grading.Repository, name string, credits int) grading.Subject {
	t.Helper()
	sub, err := repo.CreateSubject(context.Background(), grading.Subject{Name: name, Credits: credits})
	if err != nil {
		t.Fatalf("CreateSubject() failed: %v", err)
	}
	return sub
}

func CreateCut(t *testing.T, repo grading.Repository, sub grading.Subject, number int, percentage string) grading.Cut {
	t.Helper()
	cut, err := repo.CreateCut(context.Background(), grading.Cut{SubjectID: sub.ID, Number: number, Percentage: Dec(percentage)})
	if err != nil {
		t.Fatalf("CreateCut() failed: %v", err)
	}
	return cut
}

// CreateGrade stores a grade directly, without recomputing the final grade.
func CreateGrade(t *testing.T, repo grading.Repository, std grading.Student, cut grading.Cut, value string) grading.IndividualGrade {
	t.Helper()
	grade, err := repo.CreateGrade(context.Background(), grading.IndividualGrade{
		StudentID: std.ID,
		SubjectID: cut.SubjectID,
		CutID:     cut.ID,
		Value:     Dec(value),
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateGrade() failed: %v", err)
	}
	return grade
}
