package grading

import (
	"context"
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Decimals kept on final grades.
const finalGradePlaces = 2

// RoundHalfUp rounds d to two decimal places, ties going up (3.345 -> 3.35).
// decimal.Round rounds ties away from zero, which is half-up for the non-negative values handled here.
func RoundHalfUp(d decimal.Decimal) decimal.Decimal {
	return d.Round(finalGradePlaces)
}

// WeightedAverage returns RoundHalfUp(Σ value × percentage / 100).
// No grades gives 0.
func WeightedAverage(grades []WeightedGrade) decimal.Decimal {
	sum := decimal.Zero
	for _, g := range grades {
		sum = sum.Add(g.Value.Mul(g.Percentage.Shift(-2)))
	}
	return RoundHalfUp(sum)
}

func checkWeightedGrade(g WeightedGrade) error {
	if !inRange(g.Value, MinGrade, MaxGrade) {
		return RangeError("value", fmt.Errorf("grade value %s out of range", g.Value))
	}
	if !inRange(g.Percentage, MinPercentage, MaxPercentage) {
		return RangeError("percentage", fmt.Errorf("cut percentage %s out of range", g.Percentage))
	}
	return nil
}

// RecomputeFinalGrade derives the FinalGrade of a (student, subject) pair from its individual grades
// and stores it, replacing any previous value.
// Nothing is written when the student or subject does not exist, when a stored grade is out of range,
// or when the weighted sum exceeds the final grade range.
func (svc *Service) RecomputeFinalGrade(ctx context.Context, studentID, subjectID string) (FinalGrade, error) {
	if _, err := svc.repo.GetStudent(ctx, studentID); err != nil {
		return FinalGrade{}, errors.Wrap(err, "getting student")
	}
	if _, err := svc.repo.GetSubject(ctx, subjectID); err != nil {
		return FinalGrade{}, errors.Wrap(err, "getting subject")
	}

	grades, err := svc.repo.ListWeightedGrades(ctx, studentID, subjectID)
	if err != nil {
		return FinalGrade{}, errors.Wrap(err, "listing weighted grades")
	}
	for _, g := range grades {
		if err = checkWeightedGrade(g); err != nil {
			return FinalGrade{}, err
		}
	}

	value := WeightedAverage(grades)
	if !inRange(value, MinGrade, MaxGrade) {
		return FinalGrade{}, errors.Wrapf(ErrFinalGradeOutOfRange, "final grade %s", value.StringFixed(finalGradePlaces))
	}

	fg, err := svc.repo.UpsertFinalGrade(ctx, FinalGrade{
		StudentID: studentID,
		SubjectID: subjectID,
		Value:     value,
		UpdatedAt: NowFunc().UTC(),
	})
	return fg, errors.Wrap(err, "upserting final grade")
}

// RecomputeSubject recomputes every pair of the subject that has individual grades or a final grade.
// It returns the number of final grades written.
func (svc *Service) RecomputeSubject(ctx context.Context, subjectID string) (int, error) {
	if _, err := svc.repo.GetSubject(ctx, subjectID); err != nil {
		return 0, errors.Wrap(err, "getting subject")
	}

	studentIDs, err := svc.gradedStudentIDs(ctx, subjectID)
	if err != nil {
		return 0, err
	}

	var count int
	for _, id := range studentIDs {
		if _, err = svc.RecomputeFinalGrade(ctx, id, subjectID); err != nil {
			return count, errors.Wrapf(err, "recomputing final grade of student %s", id)
		}
		count++
	}
	return count, nil
}

func (svc *Service) gradedStudentIDs(ctx context.Context, subjectID string) ([]string, error) {
	grades, err := svc.repo.ListGrades(ctx, GradeFilter{SubjectID: subjectID})
	if err != nil {
		return nil, errors.Wrap(err, "listing grades")
	}
	finals, err := svc.repo.ListFinalGrades(ctx, subjectID)
	if err != nil {
		return nil, errors.Wrap(err, "listing final grades")
	}

	seen := make(map[string]struct{}, len(finals))
	for _, g := range grades {
		seen[g.StudentID] = struct{}{}
	}
	for _, fg := range finals {
		seen[fg.StudentID] = struct{}{}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// GetFinalGrade returns the stored FinalGrade of the pair, or a zero-valued one if none was computed yet.
func (svc *Service) GetFinalGrade(ctx context.Context, studentID, subjectID string) (FinalGrade, error) {
	if _, err := svc.repo.GetStudent(ctx, studentID); err != nil {
		return FinalGrade{}, errors.Wrap(err, "getting student")
	}
	if _, err := svc.repo.GetSubject(ctx, subjectID); err != nil {
		return FinalGrade{}, errors.Wrap(err, "getting subject")
	}

	fg, err := svc.repo.GetFinalGrade(ctx, studentID, subjectID)
	if err != nil {
		if errors.Cause(err) == ErrFinalGradeNotFound {
			return FinalGrade{StudentID: studentID, SubjectID: subjectID, Value: decimal.Zero}, nil
		}
		return FinalGrade{}, errors.Wrap(err, "getting final grade")
	}
	return fg, nil
}
