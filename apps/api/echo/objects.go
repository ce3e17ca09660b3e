package echoapi

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

var errObjNotFoundInCtx = errors.New("object not found in echo.Context")

type loaderFunc func(ctx context.Context, id string) (interface{}, error)

// objectMiddleware loads the object identified by the `:id` path param into the context.
// Not found errors of the loader end up as 404 responses.
func objectMiddleware(load loaderFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			obj, err := load(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				return errors.Wrap(err, "loading object")
			}
			ctx.Set(contextObjectKey, obj)
			return next(ctx)
		}
	}
}

func contextObject(ctx echo.Context) interface{} {
	return ctx.Get(contextObjectKey)
}
