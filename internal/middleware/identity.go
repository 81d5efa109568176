package middleware

// identity.go holds the helpers handlers and other middleware use to read
// the identity JWTAuth stored in the echo context.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-management/internal/utils"
)

// ClaimsFrom returns the verified claims of the current request.
func ClaimsFrom(c echo.Context) (*utils.Claims, bool) {
	cl, ok := c.Get(ClaimsKey).(*utils.Claims)
	return cl, ok && cl != nil
}

// UserID returns the authenticated account id.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(UserIDKey).(uint64)
	return id, ok
}

// actor renders the caller for log lines: the account id, or "guest" when
// the request is not authenticated.
func actor(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "guest"
}
