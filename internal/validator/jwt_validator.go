package validator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

// allowedSigningMethods lists the asymmetric algorithms accepted for JWT
// validation. Symmetric methods are rejected so a leaked JWKS cannot be used
// to mint tokens.
var allowedSigningMethods = []string{"RS256", "RS384", "RS512", "ES256", "ES384", "ES512"}

// JWTTokenValidator validates JWT bearer tokens against a JWKS endpoint.
// Keys are cached and refreshed in the background.
type JWTTokenValidator struct {
	issuer   string
	audience string
	jwks     *keyfunc.JWKS
	logger   Logger
}

// NewJWTTokenValidator creates a JWT validator backed by the given JWKS
// endpoint.
//
// Parameters:
//   - jwksURL: URL of the JWKS endpoint
//   - issuer: expected iss claim
//   - audience: expected aud claim
//   - httpClient: client for JWKS fetches (nil uses http.DefaultClient)
//   - cacheTTL: JWKS refresh interval (0 uses 1 hour)
//   - logger: optional debug logger (may be nil)
func NewJWTTokenValidator(
	jwksURL,
	issuer,
	audience string,
	httpClient *http.Client,
	cacheTTL time.Duration,
	logger Logger,
) (*JWTTokenValidator, error) {
	if jwksURL == "" {
		return nil, errors.New("validator: JWKS URL is required")
	}
	if issuer == "" {
		return nil, errors.New("validator: issuer is required")
	}
	if audience == "" {
		return nil, errors.New("validator: audience is required")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if cacheTTL == 0 {
		cacheTTL = time.Hour
	}

	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		Client:            httpClient,
		RefreshInterval:   cacheTTL,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			if logger != nil {
				logger.Printf("validator: JWKS refresh failed: %v", err)
			}
		},
	})
	if err != nil {
		return nil, fmt.Errorf("validator: failed to initialize JWKS cache: %w", err)
	}

	return &JWTTokenValidator{
		issuer:   issuer,
		audience: audience,
		jwks:     jwks,
		logger:   logger,
	}, nil
}

// ValidateToken verifies the token signature, issuer, audience, and expiry,
// and extracts the claims.
func (v *JWTTokenValidator) ValidateToken(_ context.Context, tokenString string) (*TokenClaims, error) {
	if tokenString == "" {
		return nil, ErrTokenEmpty
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		v.jwks.Keyfunc,
		jwt.WithValidMethods(allowedSigningMethods),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	tokenClaims, err := buildJWTClaims(claims)
	if err != nil {
		return nil, err
	}

	if v.logger != nil {
		v.logger.Printf("validator: validated JWT for subject %s with scopes %v", tokenClaims.Subject, tokenClaims.Scopes)
	}

	return tokenClaims, nil
}

// Close stops the background JWKS refresh goroutine.
func (v *JWTTokenValidator) Close() {
	v.jwks.EndBackground()
}

func buildJWTClaims(claims jwt.MapClaims) (*TokenClaims, error) {
	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return nil, fmt.Errorf("%w: missing subject claim", ErrTokenInvalid)
	}
	issuer, err := claims.GetIssuer()
	if err != nil {
		return nil, fmt.Errorf("%w: invalid issuer claim", ErrTokenInvalid)
	}
	audience, err := claims.GetAudience()
	if err != nil {
		return nil, fmt.Errorf("%w: invalid audience claim", ErrTokenInvalid)
	}

	var expiry time.Time
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiry = exp.Time
	}
	var issuedAt time.Time
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		issuedAt = iat.Time
	}

	raw := map[string]any(claims)
	return &TokenClaims{
		Subject:  subject,
		Issuer:   issuer,
		Audience: audience,
		Expiry:   expiry,
		IssuedAt: issuedAt,
		Scopes:   extractScopes(raw),
		Roles:    extractRoles(raw),
		Email:    firstNonEmpty(claimString(raw, "email"), claimString(raw, "preferred_username")),
	}, nil
}
