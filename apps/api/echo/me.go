package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/sajili/core/attendance"
	"github.com/trezcool/sajili/core/course"
	"github.com/trezcool/sajili/core/record"
)

type meApi struct {
	deps ServerDeps
}

// registerMeAPI registers the endpoints of the student portal.
func registerMeAPI(g *echo.Group, jwt, std echo.MiddlewareFunc, deps ServerDeps) {
	api := meApi{deps: deps}

	mg := g.Group("/me", jwt, std)
	mg.GET("", api.retrieve)
	mg.GET("/courses", api.courses)
	mg.GET("/sessions", api.activeSessions)
	mg.GET("/report", api.report)
	mg.GET("/records", api.records)

	g.POST("/attendance/scan", api.scan, jwt, std)
}

func (api *meApi) retrieve(ctx echo.Context) error {
	std, err := getContextStudent(ctx, api.deps.StudentSvc)
	if err != nil {
		return errors.Wrap(err, "getting context student")
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *meApi) courses(ctx echo.Context) error {
	std, err := getContextStudent(ctx, api.deps.StudentSvc)
	if err != nil {
		return errors.Wrap(err, "getting context student")
	}
	courses, err := api.deps.CourseSvc.ForStudent(ctx.Request().Context(), std)
	if err != nil {
		return errors.Wrap(err, "querying student courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

// activeSessions lists the running sessions of the student's courses, without their codes:
// a code is only obtained by scanning it.
func (api *meApi) activeSessions(ctx echo.Context) error {
	std, err := getContextStudent(ctx, api.deps.StudentSvc)
	if err != nil {
		return errors.Wrap(err, "getting context student")
	}
	courses, err := api.deps.CourseSvc.ForStudent(ctx.Request().Context(), std)
	if err != nil {
		return errors.Wrap(err, "querying student courses")
	}

	sessions := []attendance.Session{}
	if len(courses) > 0 {
		ids := make([]string, 0, len(courses))
		for _, crs := range courses {
			ids = append(ids, crs.ID)
		}
		active, err := api.deps.SessionSvc.Active(ctx.Request().Context(), ids...)
		if err != nil {
			return errors.Wrap(err, "querying active sessions")
		}
		for _, sess := range active {
			sess.Code = ""
			sessions = append(sessions, sess)
		}
	}
	return ctx.JSON(http.StatusOK, sessions)
}

func (api *meApi) report(ctx echo.Context) error {
	std, err := getContextStudent(ctx, api.deps.StudentSvc)
	if err != nil {
		return errors.Wrap(err, "getting context student")
	}
	rep, err := api.deps.ReportSvc.StudentReport(ctx.Request().Context(), std)
	if err != nil {
		return errors.Wrap(err, "computing student report")
	}
	return ctx.JSON(http.StatusOK, rep)
}

func (api *meApi) records(ctx echo.Context) error {
	std, err := getContextStudent(ctx, api.deps.StudentSvc)
	if err != nil {
		return errors.Wrap(err, "getting context student")
	}
	records, err := api.deps.RecordSvc.Query(ctx.Request().Context(), &record.QueryFilter{
		StudentID: std.ID,
		CourseID:  ctx.QueryParam("course_id"),
	})
	if err != nil {
		return errors.Wrap(err, "querying records")
	}
	if records == nil {
		records = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *meApi) scan(ctx echo.Context) error {
	std, err := getContextStudent(ctx, api.deps.StudentSvc)
	if err != nil {
		return errors.Wrap(err, "getting context student")
	}

	var data record.NewScan
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewScan")
	}
	if err = data.Validate(api.deps.Validate); err != nil {
		return err
	}

	rec, err := api.deps.RecordSvc.Scan(ctx.Request().Context(), std, data)
	if err != nil {
		return errors.Wrap(err, "scanning attendance code")
	}
	return ctx.JSON(http.StatusCreated, rec)
}
