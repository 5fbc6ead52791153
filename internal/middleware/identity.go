package middleware

// identity.go holds the helpers that move the authenticated principal in
// and out of the echo context. Authenticate stores it, handlers and the
// rate limiter read it back.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/auth"
)

const principalKey = "principal"

// SetPrincipal stores p on the request context.
func SetPrincipal(c echo.Context, p auth.Principal) { c.Set(principalKey, p) }

// PrincipalFrom returns the principal stored by Authenticate.
func PrincipalFrom(c echo.Context) (auth.Principal, bool) {
	p, ok := c.Get(principalKey).(auth.Principal)
	return p, ok && p.UserID != 0
}

// userID returns the authenticated user id as a string, or "anon".
func userID(c echo.Context) string {
	if p, ok := PrincipalFrom(c); ok {
		return strconv.FormatUint(p.UserID, 10)
	}
	return "anon"
}
