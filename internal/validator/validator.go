// Package validator contains the shared token validation machinery used by
// the bearer-token authentication manager: JWT validation against a JWKS
// endpoint and opaque token validation via RFC 7662 introspection.
package validator

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Logger is an interface for optional debug logging in validators.
type Logger interface {
	Printf(format string, args ...any)
}

// Common validation errors.
var (
	ErrTokenEmpty    = errors.New("validator: token is empty")
	ErrTokenExpired  = errors.New("validator: token has expired")
	ErrTokenInvalid  = errors.New("validator: token is invalid")
	ErrTokenInactive = errors.New("validator: token is inactive")
)

// TokenClaims represents the claims extracted from a validated token.
type TokenClaims struct {
	Subject  string
	Issuer   string
	Audience []string
	Expiry   time.Time
	IssuedAt time.Time
	Scopes   []string
	Roles    []string
	Email    string
}

// TokenValidator validates a raw bearer token and extracts its claims.
type TokenValidator interface {
	ValidateToken(ctx context.Context, tokenString string) (*TokenClaims, error)
}

// extractScopes reads OAuth2 scopes from a claim set. Both the
// space-separated "scope" string and the "scp" array form are supported.
func extractScopes(claims map[string]any) []string {
	if scope := claimString(claims, "scope"); scope != "" {
		return strings.Fields(scope)
	}
	return claimStrings(claims, "scp")
}

// extractRoles reads role claims from a claim set. The "roles" array is the
// primary source; "groups" is a fallback used by several providers.
func extractRoles(claims map[string]any) []string {
	if roles := claimStrings(claims, "roles"); len(roles) > 0 {
		return roles
	}
	return claimStrings(claims, "groups")
}

func claimString(claims map[string]any, key string) string {
	value, ok := claims[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

func claimStrings(claims map[string]any, key string) []string {
	switch value := claims[key].(type) {
	case []any:
		out := make([]string, 0, len(value))
		for _, v := range value {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		out := make([]string, len(value))
		copy(out, value)
		return out
	case string:
		if value == "" {
			return nil
		}
		return []string{value}
	default:
		return nil
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

func contains(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
