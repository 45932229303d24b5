package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/iliyamo/billing-staff-auth/internal/config"
	"github.com/iliyamo/billing-staff-auth/internal/model"
	"github.com/iliyamo/billing-staff-auth/internal/utils"
)

// CookieSpec is the name/path pair a role's session cookie lives under.
// Login and logout must compute it identically or the browser keeps the
// cookie.
type CookieSpec struct {
	Name string
	Path string
}

// SpecForRole derives the cookie pair from a role:
// "bill handler" -> session_bill_handler at /bill-handler.
func SpecForRole(role model.Role) CookieSpec {
	r := string(role)
	return CookieSpec{
		Name: "session_" + strings.ReplaceAll(r, " ", "_"),
		Path: "/" + strings.ReplaceAll(r, " ", "-"),
	}
}

// LoginSpecs lists the cookie pairs of every role allowed to log in, in
// the order they are tried when resolving a request.
func LoginSpecs() []CookieSpec {
	out := make([]CookieSpec, 0, len(model.LoginRoles))
	for _, r := range model.LoginRoles {
		out = append(out, SpecForRole(r))
	}
	return out
}

// Cookies builds and reads session cookies using the process-wide
// SessionConfig.  It never mutates that config.
type Cookies struct {
	cfg config.SessionConfig
}

func NewCookies(cfg config.SessionConfig) *Cookies { return &Cookies{cfg: cfg} }

// Issue returns the cookie carrying sessionID under spec.  The value is
// signed so a client cannot choose its own session id.
func (c *Cookies) Issue(spec CookieSpec, sessionID string) (*http.Cookie, error) {
	v, err := utils.SignSessionID(c.cfg.Secret, sessionID, spec.Name, c.cfg.Lifetime)
	if err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     spec.Name,
		Value:    v,
		Path:     spec.Path,
		Domain:   c.cfg.Domain,
		MaxAge:   int(c.cfg.Lifetime / time.Second),
		Expires:  time.Now().Add(c.cfg.Lifetime),
		Secure:   c.cfg.Secure,
		HttpOnly: true,
		SameSite: c.cfg.SameSite,
	}, nil
}

// Expire returns a cookie that deletes spec's cookie on the client.
func (c *Cookies) Expire(spec CookieSpec) *http.Cookie {
	return &http.Cookie{
		Name:     spec.Name,
		Value:    "",
		Path:     spec.Path,
		Domain:   c.cfg.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   c.cfg.Secure,
		HttpOnly: true,
		SameSite: c.cfg.SameSite,
	}
}

// SessionID extracts the session id from the request cookie for spec.
// ok is false when the cookie is absent or its signature does not verify.
func (c *Cookies) SessionID(r *http.Request, spec CookieSpec) (string, bool) {
	ck, err := r.Cookie(spec.Name)
	if err != nil || ck.Value == "" {
		return "", false
	}
	id, err := utils.ParseSessionID(c.cfg.Secret, ck.Value, spec.Name)
	if err != nil {
		return "", false
	}
	return id, true
}
