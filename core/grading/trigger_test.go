package grading_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/grading"
	"github.com/trezcool/gradebook/testutil"
)

func TestService_RecordGrade(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	math := testutil.CreateSubject(t, f.repo, "Math", 4)
	cut1 := testutil.CreateCut(t, f.repo, math, 1, "30")
	cut2 := testutil.CreateCut(t, f.repo, math, 2, "70")
	physics := testutil.CreateSubject(t, f.repo, "Physics", 3)
	physicsCut := testutil.CreateCut(t, f.repo, physics, 1, "100")
	std := testutil.CreateStudent(t, f.repo, "S1", "Sam", "Smith", grading.SexMale)

	t.Run("final grade follows every entry", func(t *testing.T) {
		entry := recordGrade(t, f.svc, std, cut1, "4.00")
		assert.NoError(t, entry.RecomputeErr)
		assert.Equal(t, "1.20", entry.FinalGrade.Value.StringFixed(2))
		assert.False(t, entry.Grade.CreatedAt.IsZero())

		entry = recordGrade(t, f.svc, std, cut2, "3.00")
		assert.NoError(t, entry.RecomputeErr)
		assert.Equal(t, "3.30", entry.FinalGrade.Value.StringFixed(2))

		// no explicit recompute call
		fg, err := f.repo.GetFinalGrade(ctx, std.ID, math.ID)
		require.NoError(t, err)
		assert.Equal(t, "3.30", fg.Value.StringFixed(2))
		assert.Equal(t, 1, f.db.FinalGradeCount())
	})

	tests := []struct {
		name      string
		grade     grading.NewGrade
		wantErr   error
		wantField string
	}{
		{
			name:    "unknown student",
			grade:   grading.NewGrade{StudentID: "lol", SubjectID: math.ID, CutID: cut1.ID, Value: testutil.DecP("3")},
			wantErr: grading.ErrStudentNotFound,
		},
		{
			name:    "unknown subject",
			grade:   grading.NewGrade{StudentID: std.ID, SubjectID: "lol", CutID: cut1.ID, Value: testutil.DecP("3")},
			wantErr: grading.ErrSubjectNotFound,
		},
		{
			name:    "unknown cut",
			grade:   grading.NewGrade{StudentID: std.ID, SubjectID: math.ID, CutID: "lol", Value: testutil.DecP("3")},
			wantErr: grading.ErrCutNotFound,
		},
		{
			name:      "cut of another subject",
			grade:     grading.NewGrade{StudentID: std.ID, SubjectID: math.ID, CutID: physicsCut.ID, Value: testutil.DecP("3")},
			wantField: "cut_id",
		},
		{
			name:      "value out of range",
			grade:     grading.NewGrade{StudentID: std.ID, SubjectID: math.ID, CutID: cut1.ID, Value: testutil.DecP("5.5")},
			wantField: "value",
		},
		{
			name:      "missing value",
			grade:     grading.NewGrade{StudentID: std.ID, SubjectID: math.ID, CutID: cut1.ID},
			wantField: "value",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, err := f.repo.ListGrades(ctx, grading.GradeFilter{})
			require.NoError(t, err)

			_, err = f.svc.RecordGrade(ctx, tt.grade)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, errors.Cause(err))
			}
			if tt.wantField != "" {
				vErr, ok := errors.Cause(err).(*core.ValidationError)
				require.True(t, ok, "err = %v; want *core.ValidationError", err)
				assert.Equal(t, tt.wantField, vErr.Fields[0].Field)
			}

			after, err := f.repo.ListGrades(ctx, grading.GradeFilter{})
			require.NoError(t, err)
			assert.Len(t, after, len(before), "no grade must be stored")
		})
	}
}

func TestService_RecordGrade_recomputeFailureKeepsGrade(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	sub := testutil.CreateSubject(t, f.repo, "Overweight", 2)
	cut1 := testutil.CreateCut(t, f.repo, sub, 1, "100")
	cut2 := testutil.CreateCut(t, f.repo, sub, 2, "100")
	std := testutil.CreateStudent(t, f.repo, "S1", "Sam", "Smith", grading.SexMale)

	entry := recordGrade(t, f.svc, std, cut1, "5.00")
	require.NoError(t, entry.RecomputeErr)

	entry = recordGrade(t, f.svc, std, cut2, "5.00") // 10.00 > 5
	assert.Equal(t, grading.ErrFinalGradeOutOfRange, errors.Cause(entry.RecomputeErr))
	assert.NotEmpty(t, entry.Grade.ID)

	grades, err := f.repo.ListGrades(ctx, grading.GradeFilter{StudentID: std.ID, SubjectID: sub.ID})
	require.NoError(t, err)
	assert.Len(t, grades, 2, "grade must not be rolled back")

	fg, err := f.repo.GetFinalGrade(ctx, std.ID, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "5.00", fg.Value.StringFixed(2), "last good final grade must be kept")

	warnings := f.logger.Entries("warn")
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Msg, "grade entry")
}

func TestService_OnIndividualGradeCreated(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	sub := testutil.CreateSubject(t, f.repo, "Math", 4)
	cut := testutil.CreateCut(t, f.repo, sub, 1, "50")
	std := testutil.CreateStudent(t, f.repo, "S1", "Sam", "Smith", grading.SexMale)
	grade := testutil.CreateGrade(t, f.repo, std, cut, "3.00")

	fg, err := f.svc.OnIndividualGradeCreated(ctx, grade)
	require.NoError(t, err)
	assert.Equal(t, "1.50", fg.Value.StringFixed(2))

	_, err = f.svc.OnIndividualGradeCreated(ctx, grading.IndividualGrade{StudentID: "lol", SubjectID: sub.ID})
	assert.True(t, grading.IsNotFound(err))
	assert.Len(t, f.logger.Entries("warn"), 1)
}

func TestService_DeleteGrade(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	sub := testutil.CreateSubject(t, f.repo, "Math", 4)
	cut1 := testutil.CreateCut(t, f.repo, sub, 1, "30")
	cut2 := testutil.CreateCut(t, f.repo, sub, 2, "70")
	std := testutil.CreateStudent(t, f.repo, "S1", "Sam", "Smith", grading.SexMale)
	recordGrade(t, f.svc, std, cut1, "4.00")
	entry := recordGrade(t, f.svc, std, cut2, "3.00")

	require.NoError(t, f.svc.DeleteGrade(ctx, entry.Grade.ID))
	fg, err := f.svc.GetFinalGrade(ctx, std.ID, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "1.20", fg.Value.StringFixed(2))

	err = f.svc.DeleteGrade(ctx, entry.Grade.ID)
	assert.Equal(t, grading.ErrGradeNotFound, errors.Cause(err))
}

func TestService_cutChangesRecomputeSubject(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	sub := testutil.CreateSubject(t, f.repo, "Math", 4)
	cut1 := testutil.CreateCut(t, f.repo, sub, 1, "30")
	cut2 := testutil.CreateCut(t, f.repo, sub, 2, "70")
	std := testutil.CreateStudent(t, f.repo, "S1", "Sam", "Smith", grading.SexMale)
	recordGrade(t, f.svc, std, cut1, "4.00")
	recordGrade(t, f.svc, std, cut2, "3.00")

	finalGrade := func() string {
		fg, err := f.svc.GetFinalGrade(ctx, std.ID, sub.ID)
		require.NoError(t, err)
		return fg.Value.StringFixed(2)
	}

	_, err := f.svc.UpdateCut(ctx, cut1.ID, grading.UpdateCut{Percentage: testutil.Dec("50")})
	require.NoError(t, err)
	assert.Equal(t, "4.10", finalGrade()) // 2.00 + 2.10

	require.NoError(t, f.svc.DeleteCut(ctx, cut2.ID))
	assert.Equal(t, "2.00", finalGrade())

	grades, err := f.repo.ListGrades(ctx, grading.GradeFilter{CutID: cut2.ID})
	require.NoError(t, err)
	assert.Empty(t, grades, "grades of a deleted cut must be gone")

	_, err = f.svc.UpdateCut(ctx, "lol", grading.UpdateCut{Percentage: testutil.Dec("50")})
	assert.Equal(t, grading.ErrCutNotFound, errors.Cause(err))
}
