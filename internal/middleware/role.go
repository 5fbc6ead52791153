package middleware // middleware provides shared request processing for handlers

import (
	"github.com/labstack/echo/v4" // echo provides middleware chaining and context

	"github.com/iliyamo/cinema-booking/internal/apperr"
	"github.com/iliyamo/cinema-booking/internal/auth"
	"github.com/iliyamo/cinema-booking/internal/utils"
)

var errBadUserID = apperr.New(apperr.KindValidation, "validation_error", "userId must be a positive integer")

// RequireSelf returns a middleware that only lets a principal act on its
// own data. The target user id is read from the query parameter param. A
// malformed id is a 400; an id other than the caller's is a 401 whether or
// not that user exists. It must run after Authenticate.
func RequireSelf(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return c.JSON(apperr.Response(auth.ErrUnauthenticated))
			}
			target, err := utils.ParseID(c.QueryParam(param))
			if err != nil {
				return c.JSON(apperr.Response(errBadUserID.Msg(param + " must be a positive integer")))
			}
			if err := auth.RequireSelf(p, target); err != nil {
				return c.JSON(apperr.Response(err))
			}
			return next(c)
		}
	}
}
