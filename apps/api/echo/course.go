package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/sajili/core/course"
)

type courseApi struct {
	deps ServerDeps
}

// Staff read the catalog, admins edit it.
func registerCourseAPI(g *echo.Group, jwt, staff, admin echo.MiddlewareFunc, deps ServerDeps) {
	api := courseApi{deps: deps}

	cg := g.Group("/courses", jwt, staff)
	cg.POST("", api.create, admin)
	cg.GET("", api.query)
	cg.DELETE("", api.destroyMultiple, admin)

	dg := cg.Group("/:id", objectMiddleware(func(ctx context.Context, id string) (interface{}, error) {
		return deps.CourseSvc.GetByID(ctx, id)
	}))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, admin)
	dg.DELETE("", api.destroy, admin)
}

func contextCourseObject(ctx echo.Context) (course.Course, error) {
	crs, ok := contextObject(ctx).(course.Course)
	if !ok {
		return course.Course{}, errors.Wrap(errObjNotFoundInCtx, "retrieving course from context")
	}
	return crs, nil
}

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.deps.Validate, api.deps.CourseSvc); err != nil {
		return err
	}

	crs, err := api.deps.CourseSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) query(ctx echo.Context) error {
	filter := &course.QueryFilter{
		Search:     ctx.QueryParam("search"),
		Level:      ctx.QueryParam("level"),
		Department: ctx.QueryParam("department"),
		Semester:   ctx.QueryParam("semester"),
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	courses, err := api.deps.CourseSvc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	crs, err := contextCourseObject(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) update(ctx echo.Context) error {
	crs, err := contextCourseObject(ctx)
	if err != nil {
		return err
	}

	var data course.UpdateCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err = data.Validate(crs, api.deps.Validate, api.deps.CourseSvc); err != nil {
		return err
	}

	crs, err = api.deps.CourseSvc.Update(ctx.Request().Context(), crs, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	crs, err := contextCourseObject(ctx)
	if err != nil {
		return err
	}
	if err = api.deps.CourseSvc.Delete(ctx.Request().Context(), crs.ID); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) destroyMultiple(ctx echo.Context) error {
	ids := idsParam(ctx)
	if len(ids) == 0 {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.deps.CourseSvc.Delete(ctx.Request().Context(), ids...); err != nil {
		return errors.Wrap(err, "deleting courses")
	}
	return ctx.NoContent(http.StatusNoContent)
}
