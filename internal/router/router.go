package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/billing-staff-auth/internal/handler"
	"github.com/iliyamo/billing-staff-auth/internal/middleware"
	"github.com/iliyamo/billing-staff-auth/internal/model"
	"github.com/iliyamo/billing-staff-auth/internal/session"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// Gate bundles the middleware that resolves and enforces authentication.
type Gate struct {
	Resolve     echo.MiddlewareFunc
	RequireAuth echo.MiddlewareFunc
}

func NewGate(r middleware.Resolver, cookies *session.Cookies) Gate {
	return Gate{Resolve: middleware.Resolve(r, cookies), RequireAuth: middleware.RequireAuth()}
}

// Protected returns the middleware chain for an authenticated route,
// optionally restricted to roles.
func (g Gate) Protected(roles ...model.Role) []echo.MiddlewareFunc {
	mws := []echo.MiddlewareFunc{g.Resolve, g.RequireAuth}
	if len(roles) > 0 {
		mws = append(mws, middleware.RequireRole(roles...))
	}
	return mws
}

// AuthOptions tunes RegisterAuth.
type AuthOptions struct {
	// OpenProvisioning leaves POST /create-staff unauthenticated.
	OpenProvisioning bool
}

// RegisterAuth registers the authentication routes.  Resolve runs on every
// one of them so handlers always find an identity holder in the request
// context.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, gate Gate, opts AuthOptions) {
	e.POST("/admin-login", a.Login, gate.Resolve)
	e.POST("/admin-logout", a.Logout, gate.Protected()...)
	// check-auth answers 401 {authenticated:false} itself.
	e.GET("/check-auth", a.CheckAuth, gate.Resolve)

	if opts.OpenProvisioning {
		e.POST("/create-staff", a.CreateStaff, gate.Resolve)
	} else {
		e.POST("/create-staff", a.CreateStaff, gate.Protected(model.RoleAdmin)...)
	}

	e.GET("/user", a.Me, gate.Protected()...)
	e.GET("/admin/profile", a.Profile, gate.Protected()...)
}

// Mount registers the handlers of an external collaborator on its group.
type Mount func(g *echo.Group)

// Collaborator mount points.
const (
	PrefixAccounts      = "/accounts"
	PrefixBillHandler   = "/bill-handler"
	PrefixRates         = "/rates"
	PrefixAnnouncements = "/announcements"
	PrefixPayments      = "/payments"
)

// MountRoles lists who may reach each collaborator prefix.
var MountRoles = map[string][]model.Role{
	PrefixAccounts:      {model.RoleAdmin},
	PrefixBillHandler:   {model.RoleBillHandler},
	PrefixRates:         {model.RoleAdmin},
	PrefixAnnouncements: {model.RoleAdmin, model.RoleBillHandler},
	PrefixPayments:      {model.RoleAdmin, model.RoleBillHandler},
}

// RegisterMounts attaches each mount under its prefix behind the
// authentication gate and the roles of MountRoles.  Prefixes missing from
// MountRoles only require authentication.
func RegisterMounts(e *echo.Echo, gate Gate, mounts map[string]Mount) {
	for prefix, m := range mounts {
		m(e.Group(prefix, gate.Protected(MountRoles[prefix]...)...))
	}
}
