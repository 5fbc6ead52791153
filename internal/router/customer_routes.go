package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/middleware"
)

// RegisterCustomer registers the endpoints that need a valid access token
// under /api. Bill creation is additionally rate limited, and the ticket
// list only serves the caller's own userId. Authentication is attached per
// route so that unknown /api paths stay 404.
func RegisterCustomer(e *echo.Echo, d Deps) {
	g := e.Group("/api")
	authn := middleware.Authenticate(d.Gate, d.Log)

	g.GET("/seats", d.Schedules.Seats, authn)
	if d.Catalog != nil {
		g.GET("/branches", d.Catalog.Branches, authn)
		g.GET("/rooms", d.Catalog.Rooms, authn)
	}

	limit := []echo.MiddlewareFunc{authn}
	if d.RateLimit != nil {
		limit = append(limit, d.RateLimit.Middleware())
	}
	g.POST("/bills/create-new-bill", d.Bills.Create, limit...)
	g.POST("/bills", d.Bills.Create, limit...)
	g.GET("/bills/:id/qrcode", d.Bills.QRCode, authn)

	g.GET("/tickets", d.Bills.Tickets, authn, middleware.RequireSelf("userId"))
}
