package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/sajili/core/student"
	"github.com/trezcool/sajili/core/user"
)

// staffMiddleware only lets through staff holding role or a more privileged one.
func staffMiddleware(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin && user.Grants(claims.Roles, role) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// studentMiddleware only lets signed in students through, with their Student loaded in the context.
func studentMiddleware(svc *student.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if _, err := getContextStudent(ctx, svc); err != nil {
				return errors.Wrap(err, "getting context student")
			}
			return next(ctx)
		}
	}
}
