package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/cinema-booking/internal/auth"
	"github.com/iliyamo/cinema-booking/internal/handler"
	"github.com/iliyamo/cinema-booking/internal/logger"
	"github.com/iliyamo/cinema-booking/internal/middleware"
)

// Deps are the handlers and shared middleware the routes are built from.
type Deps struct {
	Log       *logger.Logger
	Gate      *auth.Gate
	DB        handler.Pinger
	Auth      *handler.AuthHandler
	Schedules *handler.ScheduleHandler
	Catalog   *handler.CatalogHandler
	Bills     *handler.BillHandler
	RateLimit *middleware.RateLimiter
	// Cache wraps the public listings. Nil disables it.
	Cache echo.MiddlewareFunc
}

// New builds the echo instance with the global middleware stack and every
// route registered.
func New(d Deps) *echo.Echo {
	if d.Log == nil {
		d.Log = logger.Discard()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()
	e.HTTPErrorHandler = handler.HTTPErrorHandler(d.Log)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(d.Log.RequestLogger())

	RegisterRoutes(e, d.DB)
	RegisterAuth(e, d.Auth)
	RegisterPublic(e, d.Schedules, d.Catalog, d.Cache)
	RegisterCustomer(e, d)
	return e
}

// RegisterRoutes registers the probes. /readyz is only mounted when a
// database handle is available.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health)
	if db != nil {
		e.GET("/readyz", handler.Ready(db))
	}
}

// RegisterAuth registers the session endpoints. None of them needs an
// access token; logout accepts one to end every session of its user.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	e.POST("/register", a.Register)
	e.POST("/login", a.Login)
	e.POST("/refresh-token", a.Refresh)
	e.POST("/logout", a.Logout)
}

// RegisterPublic registers the unauthenticated schedule and movie listings
// behind the optional response cache.
func RegisterPublic(e *echo.Echo, s *handler.ScheduleHandler, catalog *handler.CatalogHandler, cache echo.MiddlewareFunc) {
	var mw []echo.MiddlewareFunc
	if cache != nil {
		mw = append(mw, cache)
	}
	e.GET("/api/schedules", s.List, mw...)
	if catalog != nil {
		e.GET("/api/movies/showing", catalog.Showing, mw...)
		e.GET("/api/movies/showing/search", catalog.Search, mw...)
		e.GET("/api/movies/details", catalog.Details, mw...)
	}
}
