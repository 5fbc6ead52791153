// Package handler exposes the HTTP handlers of the booking API. Handlers
// translate requests into calls on the booking service and the repositories
// and render every failure through the apperr taxonomy.
package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/apperr"
	"github.com/iliyamo/cinema-booking/internal/logger"
	"github.com/iliyamo/cinema-booking/internal/middleware"
)

var (
	errBadBody         = apperr.New(apperr.KindValidation, "validation_error", "request body is invalid")
	errBadQuery        = apperr.New(apperr.KindValidation, "validation_error", "query parameter is invalid")
	errBadCredentials  = apperr.New(apperr.KindValidation, "invalid_credentials", "invalid username or password")
	errUsernameTaken   = apperr.New(apperr.KindValidation, "username_taken", "username is already registered")
	errRefreshInvalid  = apperr.New(apperr.KindUnauthenticated, "invalid_refresh_token", "refresh token is invalid or expired")
	errUnknownSchedule = apperr.New(apperr.KindValidation, "invalid_schedule", "scheduleId does not match any schedule")
	errBillNotFound    = apperr.New(apperr.KindNotFound, "bill_not_found", "bill not found")
	errMovieNotFound   = apperr.New(apperr.KindNotFound, "movie_not_found", "movie not found")
	errInternal        = apperr.New(apperr.KindFatal, "internal_error", "internal server error")
)

// respond renders err. Server-side failures are logged with their cause,
// which never reaches the client.
func respond(c echo.Context, log *logger.Logger, err error) error {
	status, body := apperr.Response(err)
	if status >= http.StatusInternalServerError {
		l := log.WithRequestID(c.Response().Header().Get(echo.HeaderXRequestID)).WithError(err)
		if p, ok := middleware.PrincipalFrom(c); ok {
			l = l.WithUserID(p.UserID)
		}
		l.ErrorContext(c.Request().Context(), "request failed",
			slog.String("method", c.Request().Method),
			slog.String("path", c.Path()),
		)
	}
	return c.JSON(status, body)
}

// HTTPErrorHandler renders errors that escape handlers and middleware, such
// as unknown routes or echo's own HTTP errors, in the same JSON shape as
// the taxonomy errors.
func HTTPErrorHandler(log *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code := strings.ToLower(strings.ReplaceAll(http.StatusText(he.Code), " ", "_"))
			if code == "" {
				code = "error"
			}
			msg := fmt.Sprint(he.Message)
			if he.Code >= http.StatusInternalServerError {
				msg = "internal server error"
			}
			_ = c.JSON(he.Code, map[string]any{"error": code, "message": msg})
			return
		}
		_ = respond(c, log, err)
	}
}

// bind decodes the JSON body into dst and runs the registered validator.
// Malformed JSON and values of the wrong type are validation errors.
func bind(c echo.Context, dst any, normalize func()) error {
	if err := c.Bind(dst); err != nil {
		return errBadBody.Msg("request body must be JSON with fields of the expected types").Wrap(err)
	}
	if normalize != nil {
		normalize()
	}
	return c.Validate(dst)
}
