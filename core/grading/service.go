package grading

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/gradebook/core"
)

var NowFunc = time.Now // mockable

type (
	ServiceInterface interface {
		// students
		CheckStudentCodeUniqueness(ctx context.Context, code string, excluded ...Student) error
		CreateStudent(ctx context.Context, ns NewStudent) (Student, error)
		QueryStudents(ctx context.Context, filter StudentFilter, ordering []core.DBOrdering) ([]Student, error)
		GetStudent(ctx context.Context, id string) (Student, error)
		GetStudentByCode(ctx context.Context, code string) (Student, error)
		UpdateStudent(ctx context.Context, id string, us UpdateStudent) (Student, error)
		DeleteStudent(ctx context.Context, id string) error

		// subjects & cuts
		CreateSubject(ctx context.Context, ns NewSubject) (Subject, error)
		ListSubjects(ctx context.Context) ([]Subject, error)
		GetSubject(ctx context.Context, id string) (Subject, error)
		GetSubjectByName(ctx context.Context, name string) (Subject, error)
		DeleteSubject(ctx context.Context, id string) error
		CreateCut(ctx context.Context, nc NewCut) (Cut, error)
		ListCuts(ctx context.Context, subjectID string) ([]Cut, error)
		GetCut(ctx context.Context, id string) (Cut, error)
		UpdateCut(ctx context.Context, id string, uc UpdateCut) (Cut, error)
		DeleteCut(ctx context.Context, id string) error

		// grades
		RecordGrade(ctx context.Context, ng NewGrade) (GradeEntry, error)
		OnIndividualGradeCreated(ctx context.Context, grade IndividualGrade) (FinalGrade, error)
		ListGrades(ctx context.Context, filter GradeFilter) ([]IndividualGrade, error)
		DeleteGrade(ctx context.Context, id string) error

		// final grades
		RecomputeFinalGrade(ctx context.Context, studentID, subjectID string) (FinalGrade, error)
		RecomputeSubject(ctx context.Context, subjectID string) (int, error)
		GetFinalGrade(ctx context.Context, studentID, subjectID string) (FinalGrade, error)
		ListStudents(ctx context.Context, filter ReportFilter) ([]StudentReportRow, error)
	}

	Service struct {
		repo   Repository
		logger core.Logger
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, logger core.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (svc *Service) warn(msg string, args ...interface{}) {
	if svc.logger != nil {
		svc.logger.Warn(msg, args...)
	}
}

// Students

func (svc *Service) CheckStudentCodeUniqueness(ctx context.Context, code string, excluded ...Student) error {
	return fieldError(svc.repo.CheckStudentCodeUniqueness(ctx, code, excluded...))
}

func (svc *Service) CreateStudent(ctx context.Context, ns NewStudent) (Student, error) {
	now := NowFunc().UTC()
	std, err := svc.repo.CreateStudent(ctx, Student{
		Code:       ns.Code,
		GivenName:  ns.GivenName,
		FamilyName: ns.FamilyName,
		Sex:        ns.Sex,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return Student{}, fieldError(errors.Wrap(err, "creating student"))
	}
	return std, nil
}

func (svc *Service) QueryStudents(ctx context.Context, filter StudentFilter, ordering []core.DBOrdering) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, filter, ordering)
}

func (svc *Service) GetStudent(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, id)
}

func (svc *Service) GetStudentByCode(ctx context.Context, code string) (Student, error) {
	return svc.repo.GetStudentByCode(ctx, core.CleanString(code))
}

func (svc *Service) UpdateStudent(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	std, err := svc.repo.UpdateStudent(ctx, Student{
		ID:         id,
		Code:       us.Code,
		GivenName:  us.GivenName,
		FamilyName: us.FamilyName,
		Sex:        us.Sex,
		UpdatedAt:  NowFunc().UTC(),
	})
	if err != nil {
		return Student{}, fieldError(errors.Wrap(err, "updating student"))
	}
	return std, nil
}

func (svc *Service) DeleteStudent(ctx context.Context, id string) error {
	return svc.repo.DeleteStudent(ctx, id)
}

// Subjects

func (svc *Service) CreateSubject(ctx context.Context, ns NewSubject) (Subject, error) {
	sub, err := svc.repo.CreateSubject(ctx, Subject{Name: ns.Name, Credits: ns.Credits})
	if err != nil {
		return Subject{}, fieldError(errors.Wrap(err, "creating subject"))
	}
	return sub, nil
}

func (svc *Service) ListSubjects(ctx context.Context) ([]Subject, error) {
	return svc.repo.ListSubjects(ctx)
}

func (svc *Service) GetSubject(ctx context.Context, id string) (Subject, error) {
	return svc.repo.GetSubject(ctx, id)
}

func (svc *Service) GetSubjectByName(ctx context.Context, name string) (Subject, error) {
	return svc.repo.GetSubjectByName(ctx, core.CleanString(name))
}

func (svc *Service) DeleteSubject(ctx context.Context, id string) error {
	return svc.repo.DeleteSubject(ctx, id)
}

// Cuts

func (svc *Service) CreateCut(ctx context.Context, nc NewCut) (Cut, error) {
	if err := checkCut(nc.Number, nc.Percentage); err != nil {
		return Cut{}, err
	}
	if _, err := svc.repo.GetSubject(ctx, nc.SubjectID); err != nil {
		return Cut{}, errors.Wrap(err, "getting subject")
	}
	cut, err := svc.repo.CreateCut(ctx, Cut{SubjectID: nc.SubjectID, Number: nc.Number, Percentage: nc.Percentage})
	if err != nil {
		return Cut{}, fieldError(errors.Wrap(err, "creating cut"))
	}
	return cut, nil
}

func (svc *Service) ListCuts(ctx context.Context, subjectID string) ([]Cut, error) {
	if _, err := svc.repo.GetSubject(ctx, subjectID); err != nil {
		return nil, errors.Wrap(err, "getting subject")
	}
	return svc.repo.ListCuts(ctx, subjectID)
}

func (svc *Service) GetCut(ctx context.Context, id string) (Cut, error) {
	return svc.repo.GetCut(ctx, id)
}

// UpdateCut changes the weight of a cut, then recomputes its subject.
// A failed recompute is logged, the new weight is kept.
func (svc *Service) UpdateCut(ctx context.Context, id string, uc UpdateCut) (Cut, error) {
	cut, err := svc.repo.GetCut(ctx, id)
	if err != nil {
		return Cut{}, errors.Wrap(err, "getting cut")
	}
	if err = checkCut(cut.Number, uc.Percentage); err != nil {
		return Cut{}, err
	}
	cut.Percentage = uc.Percentage
	if cut, err = svc.repo.UpdateCut(ctx, cut); err != nil {
		return Cut{}, errors.Wrap(err, "updating cut")
	}
	svc.recomputeAfterCutChange(ctx, cut, "update")
	return cut, nil
}

// DeleteCut removes a cut with its grades, then recomputes its subject.
func (svc *Service) DeleteCut(ctx context.Context, id string) error {
	cut, err := svc.repo.GetCut(ctx, id)
	if err != nil {
		return errors.Wrap(err, "getting cut")
	}
	if err = svc.repo.DeleteCut(ctx, id); err != nil {
		return errors.Wrap(err, "deleting cut")
	}
	svc.recomputeAfterCutChange(ctx, cut, "deletion")
	return nil
}

// checkCut re-checks the bounds of a cut, whatever validated the input before.
func checkCut(number int, percentage decimal.Decimal) error {
	if number < MinCutNumber || number > MaxCutNumber {
		return RangeError("number", nil)
	}
	if !inRange(percentage, MinPercentage, MaxPercentage) {
		return RangeError("percentage", nil)
	}
	return nil
}

func (svc *Service) recomputeAfterCutChange(ctx context.Context, cut Cut, change string) {
	if _, err := svc.RecomputeSubject(ctx, cut.SubjectID); err != nil {
		svc.warn("final grades not recomputed after cut "+change, err, map[string]interface{}{
			"cut_id":     cut.ID,
			"subject_id": cut.SubjectID,
		})
	}
}

// Grades

func (svc *Service) ListGrades(ctx context.Context, filter GradeFilter) ([]IndividualGrade, error) {
	return svc.repo.ListGrades(ctx, filter)
}
