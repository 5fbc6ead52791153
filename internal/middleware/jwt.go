package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/cinema-booking/internal/apperr" // error taxonomy rendered as JSON
	"github.com/iliyamo/cinema-booking/internal/auth"   // gate validating tokens against the user store
	"github.com/iliyamo/cinema-booking/internal/logger"
)

// Authenticate returns an Echo middleware that validates the Bearer access
// token through gate and stores the resulting principal in the context.
// Handlers read it back with PrincipalFrom. Every failure is a 401, except a
// failing user lookup which is a 500 and is logged with its cause.
func Authenticate(gate *auth.Gate, log *logger.Logger) echo.MiddlewareFunc {
	if log == nil {
		log = logger.Discard()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			p, err := gate.AuthorizeHeader(c.Request().Context(), header)
			if err != nil {
				status, body := apperr.Response(err)
				if status >= http.StatusInternalServerError {
					log.WithRequestID(c.Response().Header().Get(echo.HeaderXRequestID)).WithError(err).
						ErrorContext(c.Request().Context(), "authentication failed",
							slog.String("method", c.Request().Method),
							slog.String("path", c.Path()),
						)
				}
				return c.JSON(status, body)
			}
			SetPrincipal(c, p)
			return next(c)
		}
	}
}
