package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/billing-staff-auth/internal/auth"
)

// principalID returns the id of the resolved principal, or "guest" when
// the request is not authenticated.  Logout clears the holder, so the
// value stored by Resolve is used as a fallback.
func principalID(c echo.Context) string {
	if p, ok := auth.Current(c.Request().Context()); ok {
		return strconv.FormatUint(p.User.ID, 10)
	}
	if id, ok := c.Get("user_id").(uint64); ok && id != 0 {
		return strconv.FormatUint(id, 10)
	}
	return "guest"
}
