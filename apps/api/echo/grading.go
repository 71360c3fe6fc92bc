package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core/grading"
)

var errStdNotFoundInCtx = errors.New("student object not found in echo.Context")

type gradingApi struct {
	svc      grading.ServiceInterface
	validate *validator.Validate
}

func registerGradingAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc grading.ServiceInterface, validate *validator.Validate) {
	api := gradingApi{
		svc:      svc,
		validate: validate,
	}
	admin := []echo.MiddlewareFunc{jwt, adminMiddleware()}

	// students
	g.GET("/students", api.report)
	g.POST("/students", api.createStudent, admin...)
	g.GET("/roster", api.queryStudents, admin...)

	sg := g.Group("/students/:code", jwt, adminMiddleware(), studentMiddleware(svc))
	sg.GET("", api.retrieveStudent)
	sg.PUT("", api.updateStudent)
	sg.DELETE("", api.destroyStudent)

	// subjects & cuts
	g.GET("/subjects", api.listSubjects)
	g.POST("/subjects", api.createSubject, admin...)
	g.GET("/subjects/:id", api.retrieveSubject)
	g.DELETE("/subjects/:id", api.destroySubject, admin...)
	g.POST("/subjects/:id/recompute", api.recomputeSubject, admin...)
	g.GET("/subjects/:id/cuts", api.listCuts)
	g.POST("/subjects/:id/cuts", api.createCut, admin...)
	g.PUT("/cuts/:id", api.updateCut, admin...)
	g.DELETE("/cuts/:id", api.destroyCut, admin...)

	// grades
	g.POST("/grades", api.recordGrade, admin...)
	g.GET("/grades", api.listGrades, admin...)
	g.DELETE("/grades/:id", api.destroyGrade, admin...)
	g.GET("/final-grades", api.retrieveFinalGrade)
}

// Students

func (api *gradingApi) report(ctx echo.Context) error {
	var query ReportQuery
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to ReportQuery")
	}

	rows, err := api.svc.ListStudents(ctx.Request().Context(), query.Filter())
	if err != nil {
		return errors.Wrap(err, "listing students")
	}
	if rows == nil {
		rows = []grading.StudentReportRow{}
	}
	return ctx.JSON(http.StatusOK, rows)
}

func (api *gradingApi) createStudent(ctx echo.Context) error {
	var data grading.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	std, err := api.svc.CreateStudent(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, std)
}

func (api *gradingApi) queryStudents(ctx echo.Context) error {
	var query StudentQuery
	if err := ctx.Bind(&query); err != nil {
		return ctx.JSON(http.StatusOK, []grading.Student{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	students, err := api.svc.QueryStudents(ctx.Request().Context(), query.Filter(), ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []grading.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *gradingApi) retrieveStudent(ctx echo.Context) error {
	std, ok := ctx.Get(contextObjectKey).(grading.Student)
	if !ok {
		return errors.Wrap(errStdNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *gradingApi) updateStudent(ctx echo.Context) error {
	std, ok := ctx.Get(contextObjectKey).(grading.Student)
	if !ok {
		return errors.Wrap(errStdNotFoundInCtx, "retrieving object from context")
	}

	var data grading.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err := data.Validate(ctx.Request().Context(), std, api.validate, api.svc); err != nil {
		return err
	}

	std, err := api.svc.UpdateStudent(ctx.Request().Context(), std.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *gradingApi) destroyStudent(ctx echo.Context) error {
	std, ok := ctx.Get(contextObjectKey).(grading.Student)
	if !ok {
		return errors.Wrap(errStdNotFoundInCtx, "retrieving object from context")
	}
	if err := api.svc.DeleteStudent(ctx.Request().Context(), std.ID); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Subjects

func (api *gradingApi) listSubjects(ctx echo.Context) error {
	subjects, err := api.svc.ListSubjects(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing subjects")
	}
	if subjects == nil {
		subjects = []grading.Subject{}
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *gradingApi) createSubject(ctx echo.Context) error {
	var data grading.NewSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sub, err := api.svc.CreateSubject(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating subject")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *gradingApi) retrieveSubject(ctx echo.Context) error {
	sub, err := api.svc.GetSubject(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting subject")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *gradingApi) destroySubject(ctx echo.Context) error {
	c := ctx.Request().Context()
	sub, err := api.svc.GetSubject(c, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting subject")
	}
	if err = api.svc.DeleteSubject(c, sub.ID); err != nil {
		return errors.Wrap(err, "deleting subject")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *gradingApi) recomputeSubject(ctx echo.Context) error {
	n, err := api.svc.RecomputeSubject(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "recomputing subject")
	}
	return ctx.JSON(http.StatusOK, RecomputeResponse{Recomputed: n})
}

// Cuts

func (api *gradingApi) listCuts(ctx echo.Context) error {
	cuts, err := api.svc.ListCuts(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing cuts")
	}
	if cuts == nil {
		cuts = []grading.Cut{}
	}
	return ctx.JSON(http.StatusOK, cuts)
}

func (api *gradingApi) createCut(ctx echo.Context) error {
	var data grading.NewCut
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCut")
	}
	data.SubjectID = ctx.Param("id")
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cut, err := api.svc.CreateCut(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating cut")
	}
	return ctx.JSON(http.StatusCreated, cut)
}

func (api *gradingApi) updateCut(ctx echo.Context) error {
	var data grading.UpdateCut
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCut")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cut, err := api.svc.UpdateCut(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating cut")
	}
	return ctx.JSON(http.StatusOK, cut)
}

func (api *gradingApi) destroyCut(ctx echo.Context) error {
	if err := api.svc.DeleteCut(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting cut")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Grades

func (api *gradingApi) recordGrade(ctx echo.Context) error {
	var data grading.NewGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGrade")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	entry, err := api.svc.RecordGrade(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "recording grade")
	}

	resp := GradeEntryResponse{Grade: entry.Grade}
	if entry.RecomputeErr != nil {
		resp.Warning = "grade saved, but the final grade could not be recomputed: " + errors.Cause(entry.RecomputeErr).Error()
	} else {
		resp.FinalGrade = &entry.FinalGrade
		resp.Success = "grade saved and final grade updated"
	}
	return ctx.JSON(http.StatusCreated, resp)
}

func (api *gradingApi) listGrades(ctx echo.Context) error {
	var filter grading.GradeFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []grading.IndividualGrade{})
	}
	filter.Clean()

	grades, err := api.svc.ListGrades(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "listing grades")
	}
	if grades == nil {
		grades = []grading.IndividualGrade{}
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api *gradingApi) destroyGrade(ctx echo.Context) error {
	if err := api.svc.DeleteGrade(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting grade")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *gradingApi) retrieveFinalGrade(ctx echo.Context) error {
	var query FinalGradeQuery
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to FinalGradeQuery")
	}
	if err := api.validate.Struct(query); err != nil {
		return err
	}

	fg, err := api.svc.GetFinalGrade(ctx.Request().Context(), query.StudentID, query.SubjectID)
	if err != nil {
		return errors.Wrap(err, "getting final grade")
	}
	return ctx.JSON(http.StatusOK, fg)
}

type (
	GradeEntryResponse struct {
		Grade      grading.IndividualGrade `json:"grade"`
		FinalGrade *grading.FinalGrade     `json:"final_grade,omitempty"`
		Success    string                  `json:"success,omitempty"`
		Warning    string                  `json:"warning,omitempty"`
	}

	RecomputeResponse struct {
		Recomputed int `json:"recomputed"`
	}
)
