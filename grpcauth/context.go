package grpcauth

import (
	"context"

	"github.com/Maxvgrad/spring-security/authn"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// tokenKey is the context key for storing the authenticated token.
const tokenKey contextKey = "grpcauth.token"

// WithToken returns a new context carrying the authenticated token. The
// interceptors use it to expose the caller's identity to service methods.
func WithToken(ctx context.Context, token *authn.Token) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFromContext extracts the authenticated token from the context.
// Returns the token and true if found, or nil and false if not present.
func TokenFromContext(ctx context.Context) (*authn.Token, bool) {
	token, ok := ctx.Value(tokenKey).(*authn.Token)
	return token, ok
}
