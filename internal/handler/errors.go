package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/billing-staff-auth/internal/service"
)

// operation names the endpoint an error came from; each has its own
// generic failure message.
type operation int

const (
	opLogin operation = iota
	opLogout
	opCheckAuth
	opCreateStaff
	opProfile
)

var internalMessages = map[operation]string{
	opLogin:       "An error occurred during login.",
	opLogout:      "Logout failed",
	opCheckAuth:   "An error occurred while checking authentication.",
	opCreateStaff: "An error occurred while creating the staff account.",
	opProfile:     "An error occurred while loading the profile.",
}

// writeError is the single translation from service errors to HTTP
// responses.  Only validation errors carry detail; everything else gets a
// fixed message.
func writeError(c echo.Context, op operation, err error) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"message": "The given data was invalid.",
			"errors":  verr.Fields,
		})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "Invalid credentials"})
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{
			"success": false,
			"message": "You do not have permission to access this system",
		})
	case errors.Is(err, service.ErrUnauthenticated):
		if op == opCheckAuth {
			return c.JSON(http.StatusUnauthorized, echo.Map{"authenticated": false})
		}
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthenticated."})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": internalMessages[op]})
	}
}
