package authn

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Maxvgrad/spring-security/internal/validator"
)

// RolePrefix is prepended to role claims when deriving authorities.
const RolePrefix = "ROLE_"

// ScopePrefix is prepended to OAuth2 scopes when deriving authorities.
const ScopePrefix = "SCOPE_"

// TokenClaims re-exports the validated claim set for callers that need more
// than the derived token.
type TokenClaims = validator.TokenClaims

// TokenValidator validates a raw bearer token and extracts its claims.
type TokenValidator = validator.TokenValidator

// BearerTokenManager authenticates bearer-token candidates by delegating to
// a TokenValidator (JWT against JWKS, or opaque via introspection) and
// deriving authorities from the validated claims: each role claim becomes
// ROLE_<role> and each scope becomes SCOPE_<scope>.
type BearerTokenManager struct {
	validator validator.TokenValidator
}

// NewBearerTokenManager creates a manager around the given validator.
func NewBearerTokenManager(v validator.TokenValidator) *BearerTokenManager {
	return &BearerTokenManager{validator: v}
}

// NewJWTManager creates a bearer-token manager validating JWTs against the
// given JWKS endpoint.
//
// Parameters:
//   - jwksURL: URL of the JWKS endpoint
//   - issuer: expected iss claim
//   - audience: expected aud claim
//
// The JWKS is cached and refreshed hourly with a TLS-validating default
// client. Use NewBearerTokenManager with a hand-built validator for custom
// HTTP clients or refresh intervals.
func NewJWTManager(jwksURL, issuer, audience string) (*BearerTokenManager, error) {
	v, err := validator.NewJWTTokenValidator(jwksURL, issuer, audience, nil, time.Hour, nil)
	if err != nil {
		return nil, err
	}
	return NewBearerTokenManager(v), nil
}

// NewIntrospectionManager creates a bearer-token manager validating opaque
// tokens via RFC 7662 introspection.
func NewIntrospectionManager(introspectionURL, issuer, audience, clientID, clientSecret string, httpClient *http.Client) (*BearerTokenManager, error) {
	v, err := validator.NewOpaqueTokenValidator(introspectionURL, issuer, audience, clientID, clientSecret, httpClient, nil)
	if err != nil {
		return nil, err
	}
	return NewBearerTokenManager(v), nil
}

// Authenticate validates the candidate's raw bearer token.
func (m *BearerTokenManager) Authenticate(ctx context.Context, token *Token) (*Token, error) {
	raw := token.Credentials()
	if raw == "" {
		return nil, Unsupported("candidate token carries no bearer credentials")
	}

	claims, err := m.validator.ValidateToken(ctx, raw)
	if err != nil {
		switch {
		case errors.Is(err, validator.ErrTokenExpired):
			return nil, Expired("bearer token has expired", err)
		case errors.Is(err, validator.ErrTokenInvalid),
			errors.Is(err, validator.ErrTokenInactive),
			errors.Is(err, validator.ErrTokenEmpty):
			return nil, &Error{Reason: ReasonBadCredentials, Message: "bearer token rejected", Cause: err}
		default:
			// Endpoint unreachable or misbehaving: a processing error,
			// not an authentication failure.
			return nil, err
		}
	}

	authorities := make([]string, 0, len(claims.Roles)+len(claims.Scopes))
	for _, role := range claims.Roles {
		authorities = append(authorities, RolePrefix+role)
	}
	for _, scope := range claims.Scopes {
		authorities = append(authorities, ScopePrefix+scope)
	}

	return NewAuthenticated(claims.Subject, authorities...), nil
}
