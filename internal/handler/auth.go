package handler

import (
	"context"  // request-scoped deadlines for store calls
	"net/http" // HTTP status codes
	"time"     // handler timeouts

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing
	"go.uber.org/zap"             // structured logging

	"github.com/iliyamo/billing-staff-auth/internal/auth"    // per-request identity holder
	"github.com/iliyamo/billing-staff-auth/internal/model"   // staff records and roles
	"github.com/iliyamo/billing-staff-auth/internal/service" // login, logout, check-auth, provisioning
	"github.com/iliyamo/billing-staff-auth/internal/session" // role cookies and session ids
)

// Authenticator is the part of *service.AuthService the handlers use.
type Authenticator interface {
	Login(ctx context.Context, in service.LoginInput, id auth.Provider) (*service.LoginResult, error)
	CheckAuth(ctx context.Context, id auth.Provider) (*service.CheckResult, error)
	Logout(ctx context.Context, id auth.Provider) (*service.LogoutResult, error)
	CreateStaff(ctx context.Context, in service.CreateStaffInput, id auth.Provider) (model.StaffRecord, error)
	Profile(ctx context.Context, id auth.Provider) (model.StaffRecord, error)
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Svc     Authenticator    // auth flows
	Cookies *session.Cookies // signs and expires role cookies
	Log     *zap.Logger
}

func NewAuthHandler(svc Authenticator, cookies *session.Cookies, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{Svc: svc, Cookies: cookies, Log: log}
}

// ----- DTOs -----

type loginReq struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type loginUser struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Role     string `json:"role"` // admin | bill handler | meter handler
	Email    string `json:"email"`
}

type staffResp struct {
	ID            uint64    `json:"id"`
	Name          string    `json:"name"`
	Username      string    `json:"username"`
	Role          string    `json:"role"`
	Address       string    `json:"address"`
	ContactNumber string    `json:"contact_number"`
	Email         string    `json:"email"`
	CreatedAt     time.Time `json:"created_at"`
}

func toStaffResp(s model.StaffRecord) staffResp {
	return staffResp{
		ID:            s.ID,
		Name:          s.Name,
		Username:      s.Username,
		Role:          string(s.Role),
		Address:       s.Address,
		ContactNumber: s.ContactNumber,
		Email:         s.Email,
		CreatedAt:     s.CreatedAt,
	}
}

func invalidBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid body"})
}

// Login: verify credentials, start the role session and return a token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil { // JSON or form body
		return invalidBody(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Svc.Login(ctx, service.LoginInput{
		Username: req.Username,
		Password: req.Password,
		// the cookie pair is only known once the role is
		PriorSession: func(spec session.CookieSpec) (string, bool) {
			return h.Cookies.SessionID(c.Request(), spec)
		},
	}, auth.FromContext(c.Request().Context()))
	if err != nil {
		return writeError(c, opLogin, err) // 401, 403, 422 or 500
	}

	ck, err := h.Cookies.Issue(res.Cookie, res.Session.ID) // signed session id
	if err != nil {
		h.Log.Error("login: issue cookie", zap.Error(err))
		return writeError(c, opLogin, service.ErrInternal)
	}
	c.SetCookie(ck)

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Login successful!",
		"token":   res.Token,
		"user": loginUser{
			ID:       res.User.ID,
			Name:     res.Staff.Name,
			Username: res.Staff.Username,
			Role:     string(res.Staff.Role),
			Email:    res.Staff.Email,
		},
	})
}

// Logout: revoke all tokens, destroy the session and expire the cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Svc.Logout(ctx, auth.FromContext(c.Request().Context()))
	if err != nil {
		return writeError(c, opLogout, err) // tokens and session left as they were
	}
	if res.Cookie != (session.CookieSpec{}) { // zero when the staff record is gone
		c.SetCookie(h.Cookies.Expire(res.Cookie))
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Logged out successfully"})
}

// CheckAuth: report the current identity and a usable bearer token.
func (h *AuthHandler) CheckAuth(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Svc.CheckAuth(ctx, auth.FromContext(c.Request().Context())) // mints on first call per session
	if err != nil {
		return writeError(c, opCheckAuth, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"authenticated": true,
		"user":          res.User,
		"token":         res.Token,
	})
}

// CreateStaff: provision a staff account.
func (h *AuthHandler) CreateStaff(c echo.Context) error {
	var req service.CreateStaffInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	// field rules are checked in the service so every failure is reported at once

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rec, err := h.Svc.CreateStaff(ctx, req, auth.FromContext(c.Request().Context()))
	if err != nil {
		return writeError(c, opCreateStaff, err) // 422 carries per-field messages
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "Staff account created successfully",
		"staff":   toStaffResp(rec),
	})
}

// Me: the identity bound to the request.
func (h *AuthHandler) Me(c echo.Context) error {
	p, ok := auth.Current(c.Request().Context()) // set by the resolve middleware
	if !ok {
		return writeError(c, opProfile, service.ErrUnauthenticated)
	}
	return c.JSON(http.StatusOK, p.User)
}

// Profile: the staff record behind the current identity.
func (h *AuthHandler) Profile(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rec, err := h.Svc.Profile(ctx, auth.FromContext(c.Request().Context()))
	if err != nil {
		return writeError(c, opProfile, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "staff": toStaffResp(rec)})
}
