package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/auth"
	"github.com/iliyamo/cinema-booking/internal/logger"
	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/model"
)

var now = time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewRequestValidator()
	e.HTTPErrorHandler = HTTPErrorHandler(logger.Discard())
	return e
}

// as authenticates every request as userID.
func as(userID uint64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			middleware.SetPrincipal(c, auth.Principal{UserID: userID, Username: "ann@example.com"})
			return next(c)
		}
	}
}

func do(e *echo.Echo, method, target, body string, header ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type userMap map[uint64]model.User

func (u userMap) UserByID(_ context.Context, id uint64) (model.User, bool, error) {
	m, ok := u[id]
	return m, ok, nil
}

func TestHTTPErrorHandler_UnknownRoute(t *testing.T) {
	rec := do(newEcho(), http.MethodGet, "/nowhere", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not_found","message":"Not Found"}`, rec.Body.String())
}

func TestRespond_HidesInternalCause(t *testing.T) {
	var logs bytes.Buffer
	log := logger.NewWithWriter(&logs, "prod", "info")
	e := newEcho()
	e.GET("/boom", func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderXRequestID, "req-1")
		return respond(c, log, errInternal.Wrap(assert.AnError))
	}, as(7))

	rec := do(e, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
	assert.Contains(t, logs.String(), assert.AnError.Error())
	assert.Contains(t, logs.String(), `"request_id":"req-1"`)
	assert.Contains(t, logs.String(), `"user_id":7`)
}

func TestRequestValidator_Messages(t *testing.T) {
	v := NewRequestValidator()

	err := v.Validate(&registerReq{Username: "not-an-email", Password: "secret1", FullName: "Ann"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "username must be a valid email address")

	err = v.Validate(&registerReq{Username: "ann@example.com", Password: "123", FullName: "Ann"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password must be at least 6 characters")

	assert.NoError(t, v.Validate(&registerReq{Username: "ann@example.com", Password: "secret1", FullName: "Ann"}))
}

func TestHealth(t *testing.T) {
	e := newEcho()
	e.GET("/healthz", Health)
	rec := do(e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

func TestReady(t *testing.T) {
	e := newEcho()
	e.GET("/up", Ready(pinger{}))
	e.GET("/down", Ready(pinger{err: assert.AnError}))

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/up", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(e, http.MethodGet, "/down", "").Code)
}
