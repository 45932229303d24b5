// Package auth carries the authenticated principal of a request.  Each
// request gets its own Holder through the context; nothing is global.
package auth

import (
	"context"
	"sync"

	"github.com/iliyamo/billing-staff-auth/internal/model"
	"github.com/iliyamo/billing-staff-auth/internal/session"
)

// Method records how a principal authenticated.
type Method string

const (
	MethodSession Method = "session"
	MethodToken   Method = "token"
)

// Principal is the identity bound to the current request.
type Principal struct {
	User model.UserIdentity
	Role model.Role

	// Session is set for cookie authentication, and for the login request
	// itself.  Cookie is the role-derived pair it was read from.
	Session *session.Session
	Cookie  session.CookieSpec

	// Token is the plain bearer token presented, for token authentication.
	Token  string
	Method Method
}

// Provider is the identity capability set handed to the auth service.
type Provider interface {
	Current() (*Principal, bool)
	SetCurrent(p *Principal)
	Clear()
}

// Holder is the per-request Provider.
type Holder struct {
	mu sync.Mutex
	p  *Principal
}

func (h *Holder) Current() (*Principal, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.p, h.p != nil
}

func (h *Holder) SetCurrent(p *Principal) {
	h.mu.Lock()
	h.p = p
	h.mu.Unlock()
}

func (h *Holder) Clear() { h.SetCurrent(nil) }

type holderKey struct{}

// WithHolder attaches an empty Holder to ctx.  If ctx already carries one
// it is reused.
func WithHolder(ctx context.Context) (context.Context, *Holder) {
	if h, ok := ctx.Value(holderKey{}).(*Holder); ok {
		return ctx, h
	}
	h := &Holder{}
	return context.WithValue(ctx, holderKey{}, h), h
}

// FromContext returns the Holder of ctx.  A context without one yields a
// detached Holder so callers never deal with nil.
func FromContext(ctx context.Context) Provider {
	if h, ok := ctx.Value(holderKey{}).(*Holder); ok {
		return h
	}
	return &Holder{}
}

// Current is shorthand for FromContext(ctx).Current().
func Current(ctx context.Context) (*Principal, bool) {
	return FromContext(ctx).Current()
}
