package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/billing-staff-auth/internal/auth"
	"github.com/iliyamo/billing-staff-auth/internal/model"
)

// RequireRole returns a middleware function that enforces that the
// authenticated principal has one of the specified roles.  If the role is
// not in the allowed set, the request is aborted with a 403 Forbidden
// response.  It assumes Resolve ran before it.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := auth.Current(c.Request().Context())
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthenticated."})
			}
			if !allowed[p.Role] {
				return c.JSON(http.StatusForbidden, echo.Map{
					"success": false,
					"message": "You do not have permission to access this resource",
				})
			}
			return next(c)
		}
	}
}
