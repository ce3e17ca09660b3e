package echoapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/sajili/core/report"
)

const csvExt = ".csv"

type reportApi struct {
	deps ServerDeps
}

func registerReportAPI(g *echo.Group, jwt, staff echo.MiddlewareFunc, deps ServerDeps) {
	api := reportApi{deps: deps}

	rg := g.Group("/reports", jwt, staff)
	rg.GET("/courses/:id", api.course)
	rg.POST("/courses/:id/email", api.email)
}

func reportFilter(ctx echo.Context) report.Filter {
	filter := report.Filter{
		Level:      ctx.QueryParam("level"),
		Department: ctx.QueryParam("department"),
	}
	filter.Clean()
	return filter
}

// course returns the report of a course as JSON, or as a CSV download when the ID ends with ".csv".
func (api *reportApi) course(ctx echo.Context) error {
	id := ctx.Param("id")
	asCSV := strings.HasSuffix(id, csvExt)
	id = strings.TrimSuffix(id, csvExt)

	rep, err := api.deps.ReportSvc.CourseReport(ctx.Request().Context(), id, reportFilter(ctx))
	if err != nil {
		return errors.Wrap(err, "computing course report")
	}
	if !asCSV {
		return ctx.JSON(http.StatusOK, rep)
	}

	var buf bytes.Buffer
	if err = report.WriteCSV(&buf, rep); err != nil {
		return errors.Wrap(err, "writing csv")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", report.Filename(rep.Course)))
	return ctx.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (api *reportApi) email(ctx echo.Context) error {
	var data report.EmailRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EmailRequest")
	}
	data.Filter.Clean()
	if err := api.deps.Validate.Struct(data); err != nil {
		return err
	}

	err := api.deps.ReportSvc.EmailCourseReport(ctx.Request().Context(), ctx.Param("id"), data.Filter, data.To...)
	if err != nil {
		return errors.Wrap(err, "emailing course report")
	}
	return ctx.JSON(http.StatusAccepted, SuccessResponse{Success: "The report will be delivered shortly."})
}
