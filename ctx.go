package auth

import (
	"context"

	"github.com/goliatone/go-router"
)

// Locals keys shared by the interceptors and page handlers
const (
	LocalsSession = "session"
	LocalsTenant  = "tenant"
	LocalsMessage = "msg"
)

var sessionCtxKey = &contextKey{"session"}
var tenantCtxKey = &contextKey{"tenant"}
var messageCtxKey = &contextKey{"msg"}

type contextKey struct {
	name string
}

// LocalsStore is the request scoped storage both *fiber.Ctx and
// router.Context provide, transport interceptors read through it
type LocalsStore interface {
	Locals(key any, value ...any) any
}

// WithSession sets the session claims in the given context
func WithSession(ctx context.Context, claims *SessionClaims) context.Context {
	return context.WithValue(ctx, sessionCtxKey, claims)
}

// SessionFromContext finds the session claims in the context
func SessionFromContext(ctx context.Context) (*SessionClaims, bool) {
	raw, ok := ctx.Value(sessionCtxKey).(*SessionClaims)
	return raw, ok && raw != nil
}

// WithTenant sets the resolved tenant in the given context
func WithTenant(ctx context.Context, tenant ResolvedTenant) context.Context {
	return context.WithValue(ctx, tenantCtxKey, tenant)
}

// TenantFromContext finds the resolved tenant in the context
func TenantFromContext(ctx context.Context) (ResolvedTenant, bool) {
	raw, ok := ctx.Value(tenantCtxKey).(ResolvedTenant)
	return raw, ok
}

// WithMessage sets the flash message in the given context
func WithMessage(ctx context.Context, msg string) context.Context {
	return context.WithValue(ctx, messageCtxKey, msg)
}

// MessageFromContext finds the flash message in the context
func MessageFromContext(ctx context.Context) (string, bool) {
	raw, ok := ctx.Value(messageCtxKey).(string)
	return raw, ok
}

// SetSession attaches claims to the request, both as a local and on the
// user context so handlers taking a context.Context see it too.
func SetSession(c router.Context, claims *SessionClaims) {
	c.Locals(LocalsSession, claims)
	c.SetContext(WithSession(c.Context(), claims))
}

// SessionFrom returns the claims set by the auth interceptor
func SessionFrom(c LocalsStore) (*SessionClaims, bool) {
	raw, ok := c.Locals(LocalsSession).(*SessionClaims)
	return raw, ok && raw != nil
}

// SetTenant attaches the resolution outcome to the request
func SetTenant(c router.Context, tenant ResolvedTenant) {
	c.Locals(LocalsTenant, tenant)
	c.SetContext(WithTenant(c.Context(), tenant))
}

// TenantFrom returns the resolution outcome, ok is false when the tenant
// interceptor did not run
func TenantFrom(c LocalsStore) (ResolvedTenant, bool) {
	raw, ok := c.Locals(LocalsTenant).(ResolvedTenant)
	return raw, ok
}

// SetMessage attaches a flash message to the request
func SetMessage(c router.Context, msg string) {
	c.Locals(LocalsMessage, msg)
	c.SetContext(WithMessage(c.Context(), msg))
}

// MessageFrom returns the flash message
func MessageFrom(c LocalsStore) (string, bool) {
	raw, ok := c.Locals(LocalsMessage).(string)
	return raw, ok
}
