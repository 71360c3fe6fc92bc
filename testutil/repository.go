package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/grading"
)

// RunRepositoryTests checks the behaviour every grading.Repository must share.
// newRepo must return an empty repository on each call.
func RunRepositoryTests(t *testing.T, newRepo func(t *testing.T) grading.Repository) {
	ctx := context.Background()
	unknownID := uuid.New().String()

	t.Run("student code is unique", func(t *testing.T) {
		repo := newRepo(t)
		std := CreateStudent(t, repo, "S1", "Ana", "Lopez", grading.SexFemale)

		_, err := repo.CreateStudent(ctx, grading.Student{Code: "S1", GivenName: "B", FamilyName: "C", Sex: grading.SexMale})
		assert.Equal(t, grading.ErrStudentCodeExists, errors.Cause(err))
		assert.Equal(t, grading.ErrStudentCodeExists, errors.Cause(repo.CheckStudentCodeUniqueness(ctx, "S1")))
		assert.NoError(t, repo.CheckStudentCodeUniqueness(ctx, "S1", std))

		got, err := repo.GetStudentByCode(ctx, "S1")
		require.NoError(t, err)
		assert.Equal(t, std.ID, got.ID)

		_, err = repo.GetStudent(ctx, unknownID)
		assert.Equal(t, grading.ErrStudentNotFound, errors.Cause(err))
	})

	t.Run("query students", func(t *testing.T) {
		repo := newRepo(t)
		CreateStudent(t, repo, "S1", "Ana", "Lopez", grading.SexFemale)
		CreateStudent(t, repo, "S2", "Luis", "Perez", grading.SexMale)
		CreateStudent(t, repo, "S3", "Eva", "Diaz", grading.SexFemale)

		females, err := repo.QueryStudents(ctx, grading.StudentFilter{Sex: grading.SexFemale}, []core.DBOrdering{{Field: "code", Ascending: false}})
		require.NoError(t, err)
		require.Len(t, females, 2)
		assert.Equal(t, "S3", females[0].Code)
		assert.Equal(t, "S1", females[1].Code)

		some, err := repo.QueryStudents(ctx, grading.StudentFilter{Codes: []string{"S1", "S2"}}, nil)
		require.NoError(t, err)
		assert.Len(t, some, 2)
	})

	t.Run("subject name and cut number are unique", func(t *testing.T) {
		repo := newRepo(t)
		sub := CreateSubject(t, repo, "Math", 4)
		CreateCut(t, repo, sub, 1, "30")

		_, err := repo.CreateSubject(ctx, grading.Subject{Name: "Math", Credits: 2})
		assert.Equal(t, grading.ErrSubjectNameExists, errors.Cause(err))

		_, err = repo.CreateCut(ctx, grading.Cut{SubjectID: sub.ID, Number: 1, Percentage: Dec("20")})
		assert.Equal(t, grading.ErrCutNumberExists, errors.Cause(err))

		_, err = repo.CreateCut(ctx, grading.Cut{SubjectID: unknownID, Number: 1, Percentage: Dec("20")})
		assert.Equal(t, grading.ErrSubjectNotFound, errors.Cause(err))
	})

	t.Run("weighted grades and final grade upsert", func(t *testing.T) {
		repo := newRepo(t)
		std := CreateStudent(t, repo, "S1", "Ana", "Lopez", grading.SexFemale)
		sub := CreateSubject(t, repo, "Math", 4)
		cut1 := CreateCut(t, repo, sub, 1, "30")
		cut2 := CreateCut(t, repo, sub, 2, "70")
		CreateGrade(t, repo, std, cut1, "4.00")
		CreateGrade(t, repo, std, cut2, "3.00")

		weighted, err := repo.ListWeightedGrades(ctx, std.ID, sub.ID)
		require.NoError(t, err)
		assert.Len(t, weighted, 2)

		_, err = repo.GetFinalGrade(ctx, std.ID, sub.ID)
		assert.Equal(t, grading.ErrFinalGradeNotFound, errors.Cause(err))

		now := time.Now().UTC()
		_, err = repo.UpsertFinalGrade(ctx, grading.FinalGrade{StudentID: std.ID, SubjectID: sub.ID, Value: Dec("3.30"), UpdatedAt: now})
		require.NoError(t, err)
		_, err = repo.UpsertFinalGrade(ctx, grading.FinalGrade{StudentID: std.ID, SubjectID: sub.ID, Value: Dec("3.50"), UpdatedAt: now})
		require.NoError(t, err)

		finals, err := repo.ListFinalGrades(ctx, sub.ID)
		require.NoError(t, err)
		require.Len(t, finals, 1)
		assert.True(t, finals[0].Value.Equal(Dec("3.5")), "final grade = %s", finals[0].Value)
	})

	t.Run("deletes cascade", func(t *testing.T) {
		repo := newRepo(t)
		std := CreateStudent(t, repo, "S1", "Ana", "Lopez", grading.SexFemale)
		sub := CreateSubject(t, repo, "Math", 4)
		cut := CreateCut(t, repo, sub, 1, "100")
		grade := CreateGrade(t, repo, std, cut, "4.00")
		_, err := repo.UpsertFinalGrade(ctx, grading.FinalGrade{StudentID: std.ID, SubjectID: sub.ID, Value: Dec("4.00"), UpdatedAt: time.Now().UTC()})
		require.NoError(t, err)

		require.NoError(t, repo.DeleteCut(ctx, cut.ID))
		_, err = repo.GetGrade(ctx, grade.ID)
		assert.Equal(t, grading.ErrGradeNotFound, errors.Cause(err))

		require.NoError(t, repo.DeleteStudent(ctx, std.ID))
		finals, err := repo.ListFinalGrades(ctx, sub.ID)
		require.NoError(t, err)
		assert.Empty(t, finals)

		require.NoError(t, repo.DeleteSubject(ctx, sub.ID))
		_, err = repo.GetSubject(ctx, sub.ID)
		assert.Equal(t, grading.ErrSubjectNotFound, errors.Cause(err))
	})
}
