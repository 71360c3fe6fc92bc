package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/grading"
)

type gradingRepository struct {
	db *DB
}

var _ grading.Repository = (*gradingRepository)(nil) // interface compliance check

func NewGradingRepository(db *DB) grading.Repository {
	return &gradingRepository{db: db}
}

// Students

func (repo *gradingRepository) CheckStudentCodeUniqueness(_ context.Context, code string, excluded ...grading.Student) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if repo.codeTaken(code, excluded...) {
		return grading.ErrStudentCodeExists
	}
	return nil
}

func (repo *gradingRepository) codeTaken(code string, excluded ...grading.Student) bool {
	for _, std := range repo.db.students {
		if std.Code == code && !isExcluded(std.ID, excluded) {
			return true
		}
	}
	return false
}

func (repo *gradingRepository) CreateStudent(_ context.Context, std grading.Student) (grading.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if repo.codeTaken(std.Code) {
		return grading.Student{}, grading.ErrStudentCodeExists
	}
	std.ID = uuid.New().String()
	repo.db.students[std.ID] = &std
	return std, nil
}

func (repo *gradingRepository) GetStudent(_ context.Context, id string) (grading.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if std, ok := repo.db.students[id]; ok {
		return *std, nil
	}
	return grading.Student{}, grading.ErrStudentNotFound
}

func (repo *gradingRepository) GetStudentByCode(_ context.Context, code string) (grading.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, std := range repo.db.students {
		if std.Code == code {
			return *std, nil
		}
	}
	return grading.Student{}, grading.ErrStudentNotFound
}

func (repo *gradingRepository) QueryStudents(_ context.Context, filter grading.StudentFilter, ordering []core.DBOrdering) ([]grading.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var codes map[string]struct{}
	if len(filter.Codes) > 0 {
		codes = make(map[string]struct{}, len(filter.Codes))
		for _, c := range filter.Codes {
			codes[c] = struct{}{}
		}
	}

	students := make([]grading.Student, 0, len(repo.db.students))
	for _, std := range repo.db.students {
		if filter.Sex != "" && std.Sex != filter.Sex {
			continue
		}
		if codes != nil {
			if _, ok := codes[std.Code]; !ok {
				continue
			}
		}
		students = append(students, *std)
	}

	// map iteration is random: start from a fixed order
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	sortStudents(students, ordering)
	return students, nil
}

func (repo *gradingRepository) UpdateStudent(_ context.Context, std grading.Student) (grading.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	origStd, ok := repo.db.students[std.ID]
	if !ok {
		return grading.Student{}, grading.ErrStudentNotFound
	}
	if repo.codeTaken(std.Code, *origStd) {
		return grading.Student{}, grading.ErrStudentCodeExists
	}
	origStd.Code = std.Code
	origStd.GivenName = std.GivenName
	origStd.FamilyName = std.FamilyName
	origStd.Sex = std.Sex
	origStd.UpdatedAt = std.UpdatedAt
	return *origStd, nil
}

func (repo *gradingRepository) DeleteStudent(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	delete(repo.db.students, id)
	for gid, g := range repo.db.grades {
		if g.StudentID == id {
			delete(repo.db.grades, gid)
		}
	}
	for key := range repo.db.finalGrades {
		if key.studentID == id {
			delete(repo.db.finalGrades, key)
		}
	}
	return nil
}

// Subjects

func (repo *gradingRepository) CreateSubject(_ context.Context, sub grading.Subject) (grading.Subject, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, s := range repo.db.subjects {
		if s.Name == sub.Name {
			return grading.Subject{}, grading.ErrSubjectNameExists
		}
	}
	sub.ID = uuid.New().String()
	repo.db.subjects[sub.ID] = &sub
	return sub, nil
}

func (repo *gradingRepository) GetSubject(_ context.Context, id string) (grading.Subject, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if sub, ok := repo.db.subjects[id]; ok {
		return *sub, nil
	}
	return grading.Subject{}, grading.ErrSubjectNotFound
}

func (repo *gradingRepository) GetSubjectByName(_ context.Context, name string) (grading.Subject, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, sub := range repo.db.subjects {
		if sub.Name == name {
			return *sub, nil
		}
	}
	return grading.Subject{}, grading.ErrSubjectNotFound
}

func (repo *gradingRepository) ListSubjects(_ context.Context) ([]grading.Subject, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	subjects := make([]grading.Subject, 0, len(repo.db.subjects))
	for _, sub := range repo.db.subjects {
		subjects = append(subjects, *sub)
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].Name < subjects[j].Name })
	return subjects, nil
}

func (repo *gradingRepository) DeleteSubject(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	delete(repo.db.subjects, id)
	for cid, c := range repo.db.cuts {
		if c.SubjectID == id {
			delete(repo.db.cuts, cid)
		}
	}
	for gid, g := range repo.db.grades {
		if g.SubjectID == id {
			delete(repo.db.grades, gid)
		}
	}
	for key := range repo.db.finalGrades {
		if key.subjectID == id {
			delete(repo.db.finalGrades, key)
		}
	}
	return nil
}

// Cuts

func (repo *gradingRepository) CreateCut(_ context.Context, cut grading.Cut) (grading.Cut, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.subjects[cut.SubjectID]; !ok {
		return grading.Cut{}, grading.ErrSubjectNotFound
	}
	for _, c := range repo.db.cuts {
		if c.SubjectID == cut.SubjectID && c.Number == cut.Number {
			return grading.Cut{}, grading.ErrCutNumberExists
		}
	}
	cut.ID = uuid.New().String()
	repo.db.cuts[cut.ID] = &cut
	return cut, nil
}

func (repo *gradingRepository) GetCut(_ context.Context, id string) (grading.Cut, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if cut, ok := repo.db.cuts[id]; ok {
		return *cut, nil
	}
	return grading.Cut{}, grading.ErrCutNotFound
}

func (repo *gradingRepository) ListCuts(_ context.Context, subjectID string) ([]grading.Cut, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	cuts := make([]grading.Cut, 0)
	for _, c := range repo.db.cuts {
		if c.SubjectID == subjectID {
			cuts = append(cuts, *c)
		}
	}
	sort.Slice(cuts, func(i, j int) bool { return cuts[i].Number < cuts[j].Number })
	return cuts, nil
}

// UpdateCut only changes the percentage.
func (repo *gradingRepository) UpdateCut(_ context.Context, cut grading.Cut) (grading.Cut, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	origCut, ok := repo.db.cuts[cut.ID]
	if !ok {
		return grading.Cut{}, grading.ErrCutNotFound
	}
	origCut.Percentage = cut.Percentage
	return *origCut, nil
}

func (repo *gradingRepository) DeleteCut(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	delete(repo.db.cuts, id)
	for gid, g := range repo.db.grades {
		if g.CutID == id {
			delete(repo.db.grades, gid)
		}
	}
	return nil
}

// Grades

func (repo *gradingRepository) CreateGrade(_ context.Context, grade grading.IndividualGrade) (grading.IndividualGrade, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.students[grade.StudentID]; !ok {
		return grading.IndividualGrade{}, grading.ErrStudentNotFound
	}
	if _, ok := repo.db.subjects[grade.SubjectID]; !ok {
		return grading.IndividualGrade{}, grading.ErrSubjectNotFound
	}
	if _, ok := repo.db.cuts[grade.CutID]; !ok {
		return grading.IndividualGrade{}, grading.ErrCutNotFound
	}
	grade.ID = uuid.New().String()
	repo.db.grades[grade.ID] = &grade
	return grade, nil
}

func (repo *gradingRepository) GetGrade(_ context.Context, id string) (grading.IndividualGrade, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if g, ok := repo.db.grades[id]; ok {
		return *g, nil
	}
	return grading.IndividualGrade{}, grading.ErrGradeNotFound
}

func (repo *gradingRepository) ListGrades(_ context.Context, filter grading.GradeFilter) ([]grading.IndividualGrade, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	grades := make([]grading.IndividualGrade, 0)
	for _, g := range repo.db.grades {
		if (filter.StudentID == "" || g.StudentID == filter.StudentID) &&
			(filter.SubjectID == "" || g.SubjectID == filter.SubjectID) &&
			(filter.CutID == "" || g.CutID == filter.CutID) {
			grades = append(grades, *g)
		}
	}
	sort.Slice(grades, func(i, j int) bool {
		if grades[i].CreatedAt.Equal(grades[j].CreatedAt) {
			return grades[i].ID < grades[j].ID
		}
		return grades[i].CreatedAt.Before(grades[j].CreatedAt)
	})
	return grades, nil
}

func (repo *gradingRepository) DeleteGrade(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	delete(repo.db.grades, id)
	return nil
}

func (repo *gradingRepository) ListWeightedGrades(_ context.Context, studentID, subjectID string) ([]grading.WeightedGrade, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	weighted := make([]grading.WeightedGrade, 0)
	for _, g := range repo.db.grades {
		if g.StudentID != studentID || g.SubjectID != subjectID {
			continue
		}
		if cut, ok := repo.db.cuts[g.CutID]; ok {
			weighted = append(weighted, grading.WeightedGrade{Value: g.Value, Percentage: cut.Percentage})
		}
	}
	return weighted, nil
}

// Final grades

func (repo *gradingRepository) UpsertFinalGrade(_ context.Context, fg grading.FinalGrade) (grading.FinalGrade, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.students[fg.StudentID]; !ok {
		return grading.FinalGrade{}, grading.ErrStudentNotFound
	}
	if _, ok := repo.db.subjects[fg.SubjectID]; !ok {
		return grading.FinalGrade{}, grading.ErrSubjectNotFound
	}
	repo.db.finalGrades[finalGradeKey{studentID: fg.StudentID, subjectID: fg.SubjectID}] = &fg
	return fg, nil
}

func (repo *gradingRepository) GetFinalGrade(_ context.Context, studentID, subjectID string) (grading.FinalGrade, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if fg, ok := repo.db.finalGrades[finalGradeKey{studentID: studentID, subjectID: subjectID}]; ok {
		return *fg, nil
	}
	return grading.FinalGrade{}, grading.ErrFinalGradeNotFound
}

func (repo *gradingRepository) ListFinalGrades(_ context.Context, subjectID string) ([]grading.FinalGrade, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	finals := make([]grading.FinalGrade, 0)
	for key, fg := range repo.db.finalGrades {
		if key.subjectID == subjectID {
			finals = append(finals, *fg)
		}
	}
	sort.Slice(finals, func(i, j int) bool { return finals[i].StudentID < finals[j].StudentID })
	return finals, nil
}

// sortStudents applies the orderings in turn; unknown fields are ignored.
// Strings compare byte-wise, like a "C" collation.
func sortStudents(students []grading.Student, ordering []core.DBOrdering) {
	if len(ordering) == 0 {
		return
	}
	sort.SliceStable(students, func(i, j int) bool {
		for _, ord := range ordering {
			c := compareStudents(students[i], students[j], ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}

func compareStudents(a, b grading.Student, field string) int {
	switch field {
	case "code":
		return strings.Compare(a.Code, b.Code)
	case "given_name":
		return strings.Compare(a.GivenName, b.GivenName)
	case "family_name":
		return strings.Compare(a.FamilyName, b.FamilyName)
	case "sex":
		return strings.Compare(string(a.Sex), string(b.Sex))
	case "created_at":
		return compareTimes(a, b, func(s grading.Student) int64 { return s.CreatedAt.UnixNano() })
	case "updated_at":
		return compareTimes(a, b, func(s grading.Student) int64 { return s.UpdatedAt.UnixNano() })
	default:
		return 0
	}
}

func compareTimes(a, b grading.Student, get func(grading.Student) int64) int {
	ta, tb := get(a), get(b)
	switch {
	case ta < tb:
		return -1
	case ta > tb:
		return 1
	default:
		return 0
	}
}

func isExcluded(id string, excluded []grading.Student) bool {
	for _, std := range excluded {
		if std.ID == id {
			return true
		}
	}
	return false
}
