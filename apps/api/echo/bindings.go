package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/grading"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field != "" {
			ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
		}
	}
}

// ReportQuery holds the query params of the students report.
// Unknown sex or sort values are ignored, not rejected.
type ReportQuery struct {
	Subject string `query:"subject"`
	Sex     string `query:"sex"`
	Sort    string `query:"sort"`
}

func (q ReportQuery) Filter() grading.ReportFilter {
	sex, _ := grading.ParseSex(q.Sex)
	return grading.ReportFilter{
		SubjectID: core.CleanString(q.Subject),
		Sex:       sex,
		Order:     grading.ParseSortOrder(q.Sort),
	}
}

type StudentQuery struct {
	Sex   string   `query:"sex"`
	Codes []string `query:"code"`
}

func (q StudentQuery) Filter() grading.StudentFilter {
	sex, _ := grading.ParseSex(q.Sex)
	return grading.StudentFilter{Sex: sex, Codes: core.CleanStrings(q.Codes)}
}

type FinalGradeQuery struct {
	StudentID string `json:"student" query:"student" validate:"required"`
	SubjectID string `json:"subject" query:"subject" validate:"required"`
}
