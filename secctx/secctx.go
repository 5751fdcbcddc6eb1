package secctx

import (
	"context"

	"github.com/Maxvgrad/spring-security/authn"
)

// Context wraps the authentication token of the current request. It lives
// for the duration of one request and may additionally be persisted by a
// Repository for reuse on subsequent requests.
type Context struct {
	token *authn.Token
}

// NewSecurityContext creates a security context around the given token.
func NewSecurityContext(token *authn.Token) *Context {
	return &Context{token: token}
}

// Token returns the wrapped authentication token, which may be nil.
func (c *Context) Token() *authn.Token {
	if c == nil {
		return nil
	}
	return c.token
}

type contextKey string

const (
	holderKey          contextKey = "secctx.holder"
	securityContextKey contextKey = "secctx.context"
)

// holder is the per-request mutable slot for the security context. The
// filter chain installs one at chain entry so that filters can publish the
// authenticated context without re-wrapping the request.
type holder struct {
	sc *Context
}

// WithHolder returns a context carrying an empty security-context slot.
// Called once per request by the filter chain before the first filter runs.
func WithHolder(ctx context.Context) context.Context {
	return context.WithValue(ctx, holderKey, &holder{})
}

// Set publishes the security context into the request's slot. It reports
// false when no slot is installed, in which case the caller must fall back
// to NewContext.
func Set(ctx context.Context, sc *Context) bool {
	h, ok := ctx.Value(holderKey).(*holder)
	if !ok {
		return false
	}
	h.sc = sc
	return true
}

// Clear removes the security context from the request's slot.
func Clear(ctx context.Context) {
	if h, ok := ctx.Value(holderKey).(*holder); ok {
		h.sc = nil
	}
}

// NewContext returns a derived context carrying the security context as an
// immutable value. Used when no holder is installed, e.g. when a filter runs
// outside an assembled chain.
func NewContext(parent context.Context, sc *Context) context.Context {
	return context.WithValue(parent, securityContextKey, sc)
}

// FromContext extracts the current security context. The per-request slot
// takes precedence over an immutable context value.
func FromContext(ctx context.Context) (*Context, bool) {
	if h, ok := ctx.Value(holderKey).(*holder); ok && h.sc != nil {
		return h.sc, true
	}
	sc, ok := ctx.Value(securityContextKey).(*Context)
	return sc, ok
}
