package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core/grading"
)

const contextObjectKey = "object"

func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// studentMiddleware loads the Student named by the `code` path param into the context.
func studentMiddleware(svc grading.ServiceInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			std, err := svc.GetStudentByCode(ctx.Request().Context(), ctx.Param("code"))
			if err != nil {
				if grading.IsNotFound(err) {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding student by code")
			}
			ctx.Set(contextObjectKey, std)
			return next(ctx)
		}
	}
}
