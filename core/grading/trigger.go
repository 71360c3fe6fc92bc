package grading

import (
	"context"

	"github.com/pkg/errors"
)

// RecordGrade stores a new individual grade and refreshes the final grade of its (student, subject) pair.
//
// A failed refresh does not undo the stored grade: RecordGrade still returns a nil error and
// reports the failure in GradeEntry.RecomputeErr.
func (svc *Service) RecordGrade(ctx context.Context, ng NewGrade) (GradeEntry, error) {
	if err := svc.checkNewGrade(ctx, ng); err != nil {
		return GradeEntry{}, err
	}

	grade, err := svc.repo.CreateGrade(ctx, IndividualGrade{
		StudentID: ng.StudentID,
		SubjectID: ng.SubjectID,
		CutID:     ng.CutID,
		Value:     *ng.Value,
		CreatedAt: NowFunc().UTC(),
	})
	if err != nil {
		return GradeEntry{}, errors.Wrap(err, "creating grade")
	}

	entry := GradeEntry{Grade: grade}
	entry.FinalGrade, entry.RecomputeErr = svc.OnIndividualGradeCreated(ctx, grade)
	return entry, nil
}

// OnIndividualGradeCreated must run exactly once after each stored IndividualGrade.
// It recomputes the grade's (student, subject) pair synchronously and logs a failure as a warning.
func (svc *Service) OnIndividualGradeCreated(ctx context.Context, grade IndividualGrade) (FinalGrade, error) {
	fg, err := svc.RecomputeFinalGrade(ctx, grade.StudentID, grade.SubjectID)
	if err != nil {
		svc.warn("final grade not recomputed after grade entry", err, map[string]interface{}{
			"grade_id":   grade.ID,
			"student_id": grade.StudentID,
			"subject_id": grade.SubjectID,
		})
		return FinalGrade{}, err
	}
	return fg, nil
}

// checkNewGrade re-checks the value range and makes sure every reference resolves
// and the cut belongs to the grade's subject.
func (svc *Service) checkNewGrade(ctx context.Context, ng NewGrade) error {
	if ng.Value == nil || !inRange(*ng.Value, MinGrade, MaxGrade) {
		return RangeError("value", nil)
	}
	if _, err := svc.repo.GetStudent(ctx, ng.StudentID); err != nil {
		return errors.Wrap(err, "getting student")
	}
	if _, err := svc.repo.GetSubject(ctx, ng.SubjectID); err != nil {
		return errors.Wrap(err, "getting subject")
	}
	cut, err := svc.repo.GetCut(ctx, ng.CutID)
	if err != nil {
		return errors.Wrap(err, "getting cut")
	}
	if cut.SubjectID != ng.SubjectID {
		return fieldError(ErrCutSubjectMismatch)
	}
	return nil
}

// DeleteGrade removes an individual grade and recomputes its pair.
// As with grade entry, a failed recompute is only logged.
func (svc *Service) DeleteGrade(ctx context.Context, id string) error {
	grade, err := svc.repo.GetGrade(ctx, id)
	if err != nil {
		return errors.Wrap(err, "getting grade")
	}
	if err = svc.repo.DeleteGrade(ctx, id); err != nil {
		return errors.Wrap(err, "deleting grade")
	}
	if _, err = svc.RecomputeFinalGrade(ctx, grade.StudentID, grade.SubjectID); err != nil {
		svc.warn("final grade not recomputed after grade deletion", err, map[string]interface{}{
			"grade_id":   grade.ID,
			"student_id": grade.StudentID,
			"subject_id": grade.SubjectID,
		})
	}
	return nil
}
