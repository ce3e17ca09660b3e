package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/skip2/go-qrcode"

	"github.com/trezcool/sajili/core/attendance"
	"github.com/trezcool/sajili/core/record"
	"github.com/trezcool/sajili/core/session"
)

const qrSize = 256 // px

type (
	StopResponse struct {
		Session      attendance.Session `json:"session"`
		AbsentMarked int                `json:"absent_marked"`
	}
)

type sessionApi struct {
	deps ServerDeps
}

func registerSessionAPI(g *echo.Group, jwt, staff echo.MiddlewareFunc, deps ServerDeps) {
	api := sessionApi{deps: deps}

	sg := g.Group("/sessions", jwt, staff)
	sg.POST("", api.create)
	sg.GET("", api.query)

	dg := sg.Group("/:id", objectMiddleware(func(ctx context.Context, id string) (interface{}, error) {
		return deps.SessionSvc.GetByID(ctx, id)
	}))
	dg.GET("", api.retrieve)
	dg.DELETE("", api.destroy)
	dg.POST("/start", api.start)
	dg.POST("/stop", api.stop)
	dg.POST("/refresh", api.refresh)
	dg.GET("/qr", api.qr)
	dg.GET("/qr.png", api.qrImage)
	dg.GET("/records", api.queryRecords)
	dg.POST("/records", api.mark)
}

func contextSessionObject(ctx echo.Context) (attendance.Session, error) {
	sess, ok := contextObject(ctx).(attendance.Session)
	if !ok {
		return attendance.Session{}, errors.Wrap(errObjNotFoundInCtx, "retrieving session from context")
	}
	return sess, nil
}

func (api *sessionApi) create(ctx echo.Context) error {
	var data session.NewSession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSession")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	sess, err := api.deps.SessionSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating session")
	}
	return ctx.JSON(http.StatusCreated, sess)
}

func (api *sessionApi) query(ctx echo.Context) error {
	filter := &session.QueryFilter{
		CourseID: ctx.QueryParam("course_id"),
		IsActive: boolParam(ctx, "is_active"),
	}
	filter.Clean()

	sessions, err := api.deps.SessionSvc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying sessions")
	}
	if sessions == nil {
		sessions = []attendance.Session{}
	}
	return ctx.JSON(http.StatusOK, sessions)
}

func (api *sessionApi) retrieve(ctx echo.Context) error {
	sess, err := contextSessionObject(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *sessionApi) destroy(ctx echo.Context) error {
	sess, err := contextSessionObject(ctx)
	if err != nil {
		return err
	}
	if err = api.deps.SessionSvc.Delete(ctx.Request().Context(), sess.ID); err != nil {
		return errors.Wrap(err, "deleting session")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *sessionApi) start(ctx echo.Context) error {
	sess, err := contextSessionObject(ctx)
	if err != nil {
		return err
	}
	if sess, err = api.deps.SessionSvc.Start(ctx.Request().Context(), sess.ID); err != nil {
		return errors.Wrap(err, "starting session")
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *sessionApi) stop(ctx echo.Context) error {
	sess, err := contextSessionObject(ctx)
	if err != nil {
		return err
	}
	if sess, err = api.deps.SessionSvc.Stop(ctx.Request().Context(), sess.ID); err != nil {
		return errors.Wrap(err, "stopping session")
	}

	resp := StopResponse{Session: sess}
	if markAbsent := boolParam(ctx, "mark_absent"); markAbsent != nil && *markAbsent {
		if resp.AbsentMarked, err = api.deps.RecordSvc.MarkAbsentees(ctx.Request().Context(), sess.ID); err != nil {
			return errors.Wrap(err, "marking absentees")
		}
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *sessionApi) refresh(ctx echo.Context) error {
	sess, err := contextSessionObject(ctx)
	if err != nil {
		return err
	}
	if sess, err = api.deps.SessionSvc.RefreshCode(ctx.Request().Context(), sess.ID); err != nil {
		return errors.Wrap(err, "refreshing session code")
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *sessionApi) qr(ctx echo.Context) error {
	sess, err := contextSessionObject(ctx)
	if err != nil {
		return err
	}
	if !sess.IsActive {
		return session.ErrSessionInactive
	}
	return ctx.JSON(http.StatusOK, session.NewQR(sess, api.deps.Conf.Attendance.CodeMaxAge))
}

func (api *sessionApi) qrImage(ctx echo.Context) error {
	sess, err := contextSessionObject(ctx)
	if err != nil {
		return err
	}
	if !sess.IsActive {
		return session.ErrSessionInactive
	}

	png, err := qrcode.Encode(sess.Code, qrcode.Medium, qrSize)
	if err != nil {
		return errors.Wrap(err, "encoding qr code")
	}
	ctx.Response().Header().Set("Cache-Control", "no-store")
	return ctx.Blob(http.StatusOK, "image/png", png)
}

func (api *sessionApi) queryRecords(ctx echo.Context) error {
	sess, err := contextSessionObject(ctx)
	if err != nil {
		return err
	}
	records, err := api.deps.RecordSvc.Query(ctx.Request().Context(), &record.QueryFilter{SessionID: sess.ID})
	if err != nil {
		return errors.Wrap(err, "querying records")
	}
	if records == nil {
		records = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *sessionApi) mark(ctx echo.Context) error {
	sess, err := contextSessionObject(ctx)
	if err != nil {
		return err
	}

	var data record.NewMark
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMark")
	}
	if err = data.Validate(api.deps.Validate); err != nil {
		return err
	}

	rec, err := api.deps.RecordSvc.MarkManual(ctx.Request().Context(), sess.ID, data)
	if err != nil {
		return errors.Wrap(err, "marking attendance")
	}
	return ctx.JSON(http.StatusCreated, rec)
}
