package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/grading"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"

	studentColumns = "id, code, given_name, family_name, sex, created_at, updated_at"
	subjectColumns = "id, name, credits"
	cutColumns     = "id, subject_id, number, percentage"
	gradeColumns   = "id, student_id, subject_id, cut_id, value, created_at"
	finalColumns   = "student_id, subject_id, value, updated_at"
)

var (
	// unique constraints -> domain errors
	uniqueErrors = map[string]error{
		"students_code_key":          grading.ErrStudentCodeExists,
		"subjects_name_key":          grading.ErrSubjectNameExists,
		"cuts_subject_id_number_key": grading.ErrCutNumberExists,
	}

	// foreign key column suffixes -> domain errors
	foreignKeyErrors = map[string]error{
		"_student_id_fkey": grading.ErrStudentNotFound,
		"_subject_id_fkey": grading.ErrSubjectNotFound,
		"_cut_id_fkey":     grading.ErrCutNotFound,
	}

	// range check constraints -> input fields
	checkFields = map[string]string{
		"cuts_number_check":             "number",
		"cuts_percentage_check":         "percentage",
		"individual_grades_value_check": "value",
	}

	// orderable student fields; text compares byte-wise
	studentOrderColumns = map[string]string{
		"code":        `code COLLATE "C"`,
		"given_name":  `given_name COLLATE "C"`,
		"family_name": `family_name COLLATE "C"`,
		"sex":         "sex",
		"created_at":  "created_at",
		"updated_at":  "updated_at",
	}
)

type gradingRepository struct {
	db *sqlx.DB
}

var _ grading.Repository = (*gradingRepository)(nil) // interface compliance check

func NewGradingRepository(db *sql.DB) *gradingRepository {
	return &gradingRepository{db: sqlx.NewDb(db, "postgres")}
}

// trapErr maps "no rows" to notFound and postgres constraint violations to the matching domain errors.
// Range checks become validation errors on the offending field.
func (repo gradingRepository) trapErr(err error, notFound error, msg string) error {
	if err == nil {
		return nil
	}
	if err == sql.ErrNoRows && notFound != nil {
		return notFound
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case pqUniqueViolation:
			if domainErr, ok := uniqueErrors[pqErr.Constraint]; ok {
				return domainErr
			}
		case pqForeignKeyViolation:
			for suffix, domainErr := range foreignKeyErrors {
				if strings.HasSuffix(pqErr.Constraint, suffix) {
					return domainErr
				}
			}
		case pqCheckViolation:
			if pqErr.Constraint == "final_grades_value_check" {
				return grading.ErrFinalGradeOutOfRange
			}
			if field, ok := checkFields[pqErr.Constraint]; ok {
				return grading.RangeError(field, pqErr)
			}
		}
	}
	return errors.Wrap(err, msg)
}

func validID(ids ...string) bool {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return false
		}
	}
	return true
}

// Students

func (repo gradingRepository) CheckStudentCodeUniqueness(ctx context.Context, code string, excluded ...grading.Student) error {
	query, args := "SELECT EXISTS (SELECT 1 FROM students WHERE code = ?", []interface{}{code}
	ids := make([]string, 0, len(excluded))
	for _, std := range excluded {
		if validID(std.ID) {
			ids = append(ids, std.ID)
		}
	}
	if len(ids) > 0 {
		query += " AND id NOT IN (?)"
		args = append(args, ids)
	}
	query += ")"

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return errors.Wrap(err, "building uniqueness query")
	}

	var found bool
	if err = repo.db.GetContext(ctx, &found, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "checking student code uniqueness")
	}
	if found {
		return grading.ErrStudentCodeExists
	}
	return nil
}

func (repo gradingRepository) CreateStudent(ctx context.Context, std grading.Student) (grading.Student, error) {
	std.ID = uuid.New().String()
	_, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO students (`+studentColumns+`)
		VALUES (:id, :code, :given_name, :family_name, :sex, :created_at, :updated_at)`,
		std,
	)
	if err != nil {
		return grading.Student{}, repo.trapErr(err, nil, "inserting student")
	}
	return std, nil
}

func (repo gradingRepository) GetStudent(ctx context.Context, id string) (grading.Student, error) {
	if !validID(id) {
		return grading.Student{}, grading.ErrStudentNotFound
	}
	var std grading.Student
	err := repo.db.GetContext(ctx, &std, "SELECT "+studentColumns+" FROM students WHERE id = $1", id)
	return std, repo.trapErr(err, grading.ErrStudentNotFound, "finding student by ID")
}

func (repo gradingRepository) GetStudentByCode(ctx context.Context, code string) (grading.Student, error) {
	var std grading.Student
	err := repo.db.GetContext(ctx, &std, "SELECT "+studentColumns+" FROM students WHERE code = $1", code)
	return std, repo.trapErr(err, grading.ErrStudentNotFound, "finding student by code")
}

func (repo gradingRepository) QueryStudents(ctx context.Context, filter grading.StudentFilter, ordering []core.DBOrdering) ([]grading.Student, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Sex != "" {
		where = append(where, "sex = ?")
		args = append(args, filter.Sex)
	}
	if len(filter.Codes) > 0 {
		where = append(where, "code IN (?)")
		args = append(args, filter.Codes)
	}

	query := "SELECT " + studentColumns + " FROM students"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if orderBy := studentOrderBy(ordering); orderBy != "" {
		query += " ORDER BY " + orderBy
	}

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "building students query")
	}

	students := make([]grading.Student, 0)
	if err = repo.db.SelectContext(ctx, &students, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return students, nil
}

func studentOrderBy(ordering []core.DBOrdering) string {
	orderList := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		if col, ok := studentOrderColumns[ord.Field]; ok {
			orderList = append(orderList, col+" "+ord.Direction())
		}
	}
	return strings.Join(orderList, ", ")
}

func (repo gradingRepository) UpdateStudent(ctx context.Context, std grading.Student) (grading.Student, error) {
	if !validID(std.ID) {
		return grading.Student{}, grading.ErrStudentNotFound
	}
	var updated grading.Student
	err := repo.db.GetContext(ctx, &updated,
		`UPDATE students
		SET code = $2, given_name = $3, family_name = $4, sex = $5, updated_at = $6
		WHERE id = $1
		RETURNING `+studentColumns,
		std.ID, std.Code, std.GivenName, std.FamilyName, std.Sex, std.UpdatedAt,
	)
	return updated, repo.trapErr(err, grading.ErrStudentNotFound, "updating student")
}

func (repo gradingRepository) DeleteStudent(ctx context.Context, id string) error {
	return repo.deleteByID(ctx, "students", id)
}

func (repo gradingRepository) deleteByID(ctx context.Context, table, id string) error {
	if !validID(id) {
		return nil
	}
	_, err := repo.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = $1", id)
	return errors.Wrapf(err, "deleting from %s", table)
}

// Subjects

func (repo gradingRepository) CreateSubject(ctx context.Context, sub grading.Subject) (grading.Subject, error) {
	sub.ID = uuid.New().String()
	_, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO subjects (`+subjectColumns+`) VALUES (:id, :name, :credits)`,
		sub,
	)
	if err != nil {
		return grading.Subject{}, repo.trapErr(err, nil, "inserting subject")
	}
	return sub, nil
}

func (repo gradingRepository) GetSubject(ctx context.Context, id string) (grading.Subject, error) {
	if !validID(id) {
		return grading.Subject{}, grading.ErrSubjectNotFound
	}
	var sub grading.Subject
	err := repo.db.GetContext(ctx, &sub, "SELECT "+subjectColumns+" FROM subjects WHERE id = $1", id)
	return sub, repo.trapErr(err, grading.ErrSubjectNotFound, "finding subject by ID")
}

func (repo gradingRepository) GetSubjectByName(ctx context.Context, name string) (grading.Subject, error) {
	var sub grading.Subject
	err := repo.db.GetContext(ctx, &sub, "SELECT "+subjectColumns+" FROM subjects WHERE name = $1", name)
	return sub, repo.trapErr(err, grading.ErrSubjectNotFound, "finding subject by name")
}

func (repo gradingRepository) ListSubjects(ctx context.Context) ([]grading.Subject, error) {
	subjects := make([]grading.Subject, 0)
	err := repo.db.SelectContext(ctx, &subjects, "SELECT "+subjectColumns+` FROM subjects ORDER BY name COLLATE "C"`)
	return subjects, errors.Wrap(err, "listing subjects")
}

func (repo gradingRepository) DeleteSubject(ctx context.Context, id string) error {
	return repo.deleteByID(ctx, "subjects", id)
}

// Cuts

func (repo gradingRepository) CreateCut(ctx context.Context, cut grading.Cut) (grading.Cut, error) {
	if !validID(cut.SubjectID) {
		return grading.Cut{}, grading.ErrSubjectNotFound
	}
	cut.ID = uuid.New().String()
	_, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO cuts (`+cutColumns+`) VALUES (:id, :subject_id, :number, :percentage)`,
		cut,
	)
	if err != nil {
		return grading.Cut{}, repo.trapErr(err, nil, "inserting cut")
	}
	return cut, nil
}

func (repo gradingRepository) GetCut(ctx context.Context, id string) (grading.Cut, error) {
	if !validID(id) {
		return grading.Cut{}, grading.ErrCutNotFound
	}
	var cut grading.Cut
	err := repo.db.GetContext(ctx, &cut, "SELECT "+cutColumns+" FROM cuts WHERE id = $1", id)
	return cut, repo.trapErr(err, grading.ErrCutNotFound, "finding cut by ID")
}

func (repo gradingRepository) ListCuts(ctx context.Context, subjectID string) ([]grading.Cut, error) {
	cuts := make([]grading.Cut, 0)
	if !validID(subjectID) {
		return cuts, nil
	}
	err := repo.db.SelectContext(ctx, &cuts, "SELECT "+cutColumns+" FROM cuts WHERE subject_id = $1 ORDER BY number", subjectID)
	return cuts, errors.Wrap(err, "listing cuts")
}

// UpdateCut only changes the percentage.
func (repo gradingRepository) UpdateCut(ctx context.Context, cut grading.Cut) (grading.Cut, error) {
	if !validID(cut.ID) {
		return grading.Cut{}, grading.ErrCutNotFound
	}
	var updated grading.Cut
	err := repo.db.GetContext(ctx, &updated,
		"UPDATE cuts SET percentage = $2 WHERE id = $1 RETURNING "+cutColumns,
		cut.ID, cut.Percentage,
	)
	return updated, repo.trapErr(err, grading.ErrCutNotFound, "updating cut")
}

func (repo gradingRepository) DeleteCut(ctx context.Context, id string) error {
	return repo.deleteByID(ctx, "cuts", id)
}

// Grades

func (repo gradingRepository) CreateGrade(ctx context.Context, grade grading.IndividualGrade) (grading.IndividualGrade, error) {
	switch {
	case !validID(grade.StudentID):
		return grading.IndividualGrade{}, grading.ErrStudentNotFound
	case !validID(grade.SubjectID):
		return grading.IndividualGrade{}, grading.ErrSubjectNotFound
	case !validID(grade.CutID):
		return grading.IndividualGrade{}, grading.ErrCutNotFound
	}
	grade.ID = uuid.New().String()
	_, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO individual_grades (`+gradeColumns+`)
		VALUES (:id, :student_id, :subject_id, :cut_id, :value, :created_at)`,
		grade,
	)
	if err != nil {
		return grading.IndividualGrade{}, repo.trapErr(err, nil, "inserting grade")
	}
	return grade, nil
}

func (repo gradingRepository) GetGrade(ctx context.Context, id string) (grading.IndividualGrade, error) {
	if !validID(id) {
		return grading.IndividualGrade{}, grading.ErrGradeNotFound
	}
	var grade grading.IndividualGrade
	err := repo.db.GetContext(ctx, &grade, "SELECT "+gradeColumns+" FROM individual_grades WHERE id = $1", id)
	return grade, repo.trapErr(err, grading.ErrGradeNotFound, "finding grade by ID")
}

func (repo gradingRepository) ListGrades(ctx context.Context, filter grading.GradeFilter) ([]grading.IndividualGrade, error) {
	grades := make([]grading.IndividualGrade, 0)

	var (
		where []string
		args  []interface{}
	)
	for _, cond := range []struct{ col, val string }{
		{"student_id", filter.StudentID},
		{"subject_id", filter.SubjectID},
		{"cut_id", filter.CutID},
	} {
		if cond.val == "" {
			continue
		}
		if !validID(cond.val) {
			return grades, nil
		}
		where = append(where, cond.col+" = ?")
		args = append(args, cond.val)
	}

	query := "SELECT " + gradeColumns + " FROM individual_grades"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at, id"

	err := repo.db.SelectContext(ctx, &grades, repo.db.Rebind(query), args...)
	return grades, errors.Wrap(err, "listing grades")
}

func (repo gradingRepository) DeleteGrade(ctx context.Context, id string) error {
	return repo.deleteByID(ctx, "individual_grades", id)
}

func (repo gradingRepository) ListWeightedGrades(ctx context.Context, studentID, subjectID string) ([]grading.WeightedGrade, error) {
	weighted := make([]grading.WeightedGrade, 0)
	if !validID(studentID, subjectID) {
		return weighted, nil
	}
	err := repo.db.SelectContext(ctx, &weighted,
		`SELECT g.value, c.percentage
		FROM individual_grades g
		JOIN cuts c ON c.id = g.cut_id
		WHERE g.student_id = $1 AND g.subject_id = $2`,
		studentID, subjectID,
	)
	return weighted, errors.Wrap(err, "listing weighted grades")
}

// Final grades

// UpsertFinalGrade writes the pair's final grade in a single statement, last write wins.
func (repo gradingRepository) UpsertFinalGrade(ctx context.Context, fg grading.FinalGrade) (grading.FinalGrade, error) {
	switch {
	case !validID(fg.StudentID):
		return grading.FinalGrade{}, grading.ErrStudentNotFound
	case !validID(fg.SubjectID):
		return grading.FinalGrade{}, grading.ErrSubjectNotFound
	}
	var stored grading.FinalGrade
	err := repo.db.GetContext(ctx, &stored,
		`INSERT INTO final_grades (`+finalColumns+`)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (student_id, subject_id)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
		RETURNING `+finalColumns,
		fg.StudentID, fg.SubjectID, fg.Value, fg.UpdatedAt,
	)
	return stored, repo.trapErr(err, nil, "upserting final grade")
}

func (repo gradingRepository) GetFinalGrade(ctx context.Context, studentID, subjectID string) (grading.FinalGrade, error) {
	if !validID(studentID, subjectID) {
		return grading.FinalGrade{}, grading.ErrFinalGradeNotFound
	}
	var fg grading.FinalGrade
	err := repo.db.GetContext(ctx, &fg,
		"SELECT "+finalColumns+" FROM final_grades WHERE student_id = $1 AND subject_id = $2",
		studentID, subjectID,
	)
	return fg, repo.trapErr(err, grading.ErrFinalGradeNotFound, "finding final grade")
}

func (repo gradingRepository) ListFinalGrades(ctx context.Context, subjectID string) ([]grading.FinalGrade, error) {
	finals := make([]grading.FinalGrade, 0)
	if !validID(subjectID) {
		return finals, nil
	}
	err := repo.db.SelectContext(ctx, &finals,
		"SELECT "+finalColumns+" FROM final_grades WHERE subject_id = $1 ORDER BY student_id",
		subjectID,
	)
	return finals, errors.Wrap(err, "listing final grades")
}
