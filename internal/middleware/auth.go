package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/billing-staff-auth/internal/auth"
	"github.com/iliyamo/billing-staff-auth/internal/service"
	"github.com/iliyamo/billing-staff-auth/internal/session"
)

// Resolver turns request credentials into a principal.  *service.AuthService
// implements it.
type Resolver interface {
	ResolveToken(ctx context.Context, plain string) (*auth.Principal, error)
	ResolveSession(ctx context.Context, spec session.CookieSpec, sessionID string) (*auth.Principal, error)
}

// Resolve attaches a per-request identity holder to the request context
// and fills it from a role session cookie or, failing that, a Bearer
// token.  It never rejects a request for missing credentials; RequireAuth
// does that.
func Resolve(r Resolver, cookies *session.Cookies) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx, holder := auth.WithHolder(req.Context())
			c.SetRequest(req.WithContext(ctx))

			p, err := resolve(ctx, c, r, cookies)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{
					"success": false,
					"message": "An internal error occurred.",
				})
			}
			if p != nil {
				holder.SetCurrent(p)
				c.Set("user_id", p.User.ID)
				c.Set("role", string(p.Role))
			}
			return next(c)
		}
	}
}

func resolve(ctx context.Context, c echo.Context, r Resolver, cookies *session.Cookies) (*auth.Principal, error) {
	for _, spec := range session.LoginSpecs() {
		id, ok := cookies.SessionID(c.Request(), spec)
		if !ok {
			continue
		}
		p, err := r.ResolveSession(ctx, spec, id)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, service.ErrUnauthenticated) {
			return nil, err
		}
	}
	if raw, ok := bearerToken(c); ok {
		p, err := r.ResolveToken(ctx, raw)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, service.ErrUnauthenticated) {
			return nil, err
		}
	}
	return nil, nil
}

func bearerToken(c echo.Context) (string, bool) {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return raw, raw != ""
}

// RequireAuth rejects requests without a resolved principal.  It must run
// after Resolve.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := auth.Current(c.Request().Context()); !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthenticated."})
			}
			return next(c)
		}
	}
}
