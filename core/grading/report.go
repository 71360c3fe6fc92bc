package grading

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/gradebook/core"
)

// reportOrdering is the base order of the students report: family name (byte-wise) then code.
var reportOrdering = []core.DBOrdering{
	{Field: "family_name", Ascending: true},
	{Field: "code", Ascending: true},
}

// ListStudents lists the students annotated with their final grade in filter.SubjectID.
// Students without a final grade in that subject get 0.
// Rows come in base order unless filter.Order asks for a stable sort by final grade.
func (svc *Service) ListStudents(ctx context.Context, filter ReportFilter) ([]StudentReportRow, error) {
	if filter.SubjectID == "" {
		return nil, fieldError(ErrSubjectRequired)
	}
	if _, err := svc.repo.GetSubject(ctx, filter.SubjectID); err != nil {
		return nil, errors.Wrap(err, "getting subject")
	}

	students, err := svc.repo.QueryStudents(ctx, StudentFilter{Sex: filter.Sex}, reportOrdering)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	finals, err := svc.repo.ListFinalGrades(ctx, filter.SubjectID)
	if err != nil {
		return nil, errors.Wrap(err, "listing final grades")
	}

	values := make(map[string]decimal.Decimal, len(finals))
	for _, fg := range finals {
		values[fg.StudentID] = fg.Value
	}

	rows := make([]StudentReportRow, 0, len(students))
	for _, std := range students {
		value, ok := values[std.ID]
		if !ok {
			value = decimal.Zero
		}
		rows = append(rows, StudentReportRow{
			Code:       std.Code,
			GivenName:  std.GivenName,
			FamilyName: std.FamilyName,
			Sex:        std.Sex,
			FinalGrade: value,
			Student:    std,
		})
	}

	sortReportRows(rows, filter.Order)
	return rows, nil
}

func sortReportRows(rows []StudentReportRow, order SortOrder) {
	switch order {
	case Ascending:
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].FinalGrade.LessThan(rows[j].FinalGrade) })
	case Descending:
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].FinalGrade.GreaterThan(rows[j].FinalGrade) })
	}
}
