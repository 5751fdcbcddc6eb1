package testutil

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"io"
	"math/big"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// NewLocalHTTPServer starts an HTTP server bound to IPv4 loopback only.
// The sandbox blocks IPv6 listeners, so force tcp4 to keep tests runnable.
func NewLocalHTTPServer(tb testing.TB, handler http.Handler) *httptest.Server {
	tb.Helper()

	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		tb.Fatalf("failed to create IPv4 listener: %v", err)
	}

	server := httptest.NewUnstartedServer(handler)
	server.Listener = listener
	server.Start()

	return server
}

// RoundTripFunc allows inlining http.RoundTripper implementations.
type RoundTripFunc func(*http.Request) (*http.Response, error)

// RoundTrip calls the underlying function.
func (f RoundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// MockOAuth2Server simulates an OAuth2 token endpoint without real sockets.
// It records requests and serves responses through a custom RoundTripper.
type MockOAuth2Server struct {
	URL      string
	Ctx      context.Context
	Requests []*http.Request
}

// NewMockOAuth2Server builds a mock OAuth2 endpoint backed by an in-memory RoundTripper.
// If handler is nil, it returns a default successful token response.
func NewMockOAuth2Server(tb testing.TB, handler RoundTripFunc) *MockOAuth2Server {
	tb.Helper()

	server := &MockOAuth2Server{
		URL: "https://mock-oauth.example.com",
	}

	if handler == nil {
		handler = StaticJSONResponse(`{
			"access_token": "mock-access-token",
			"token_type": "Bearer",
			"expires_in": 3600
		}`)
	}

	rt := RoundTripFunc(func(req *http.Request) (*http.Response, error) {
		server.Requests = append(server.Requests, req)
		return handler(req)
	})

	server.Ctx = context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{
		Transport: rt,
	})

	return server
}

// StaticJSONResponse returns a RoundTripper that always responds with the provided JSON body.
func StaticJSONResponse(body string) RoundTripFunc {
	return func(req *http.Request) (*http.Response, error) {
		header := make(http.Header)
		header.Set("Content-Type", "application/json")
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     header,
			Body:       io.NopCloser(strings.NewReader(body)),
			Request:    req,
		}, nil
	}
}

// TestKeyPair holds an RSA key pair for JWT testing.
type TestKeyPair struct {
	PrivateKey *rsa.PrivateKey
	PublicKey  *rsa.PublicKey
}

// GenerateTestKeyPair generates a new RSA key pair for testing.
func GenerateTestKeyPair(tb testing.TB) *TestKeyPair {
	tb.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		tb.Fatalf("failed to generate RSA key pair: %v", err)
	}

	return &TestKeyPair{
		PrivateKey: privateKey,
		PublicKey:  &privateKey.PublicKey,
	}
}

// CreateJWKSServer creates a mock JWKS server with proper RSA public key encoding.
// This is used for JWT validation integration tests.
func CreateJWKSServer(tb testing.TB, publicKey *rsa.PublicKey) *httptest.Server {
	tb.Helper()

	n := encodeBase64URL(publicKey.N.Bytes())
	e := encodeBase64URL(big.NewInt(int64(publicKey.E)).Bytes())

	jwks := map[string]interface{}{
		"keys": []map[string]interface{}{
			{
				"kty": "RSA",
				"kid": "test-key-1",
				"use": "sig",
				"alg": "RS256",
				"n":   n,
				"e":   e,
			},
		},
	}

	return NewLocalHTTPServer(tb, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(jwks); err != nil {
			tb.Errorf("failed to encode JWKS: %v", err)
		}
	}))
}

// encodeBase64URL encodes bytes to base64url (without padding) as required by JWK spec.
func encodeBase64URL(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

// JWTTestSetup contains all components needed for JWT validation testing.
type JWTTestSetup struct {
	KeyPair    *TestKeyPair
	JWKSServer *httptest.Server
	Issuer     string
	Audience   string
}

// NewJWTTestSetup creates a complete test setup with JWKS server and key pair.
func NewJWTTestSetup(tb testing.TB) *JWTTestSetup {
	tb.Helper()

	keyPair := GenerateTestKeyPair(tb)
	jwksServer := CreateJWKSServer(tb, keyPair.PublicKey)

	tb.Cleanup(func() {
		jwksServer.Close()
	})

	return &JWTTestSetup{
		KeyPair:    keyPair,
		JWKSServer: jwksServer,
		Issuer:     "https://auth.example.com",
		Audience:   "my-api",
	}
}

// JWTClaims provides a builder pattern for creating test JWT claims.
type JWTClaims struct {
	claims jwt.MapClaims
}

// NewJWTClaims creates a new JWTClaims builder with default valid claims.
func NewJWTClaims(issuer, audience, subject string) *JWTClaims {
	return &JWTClaims{
		claims: jwt.MapClaims{
			"iss": issuer,
			"aud": []string{audience},
			"sub": subject,
			"exp": time.Now().Add(time.Hour).Unix(),
			"iat": time.Now().Add(-time.Minute).Unix(),
		},
	}
}

// WithExpiry sets a custom expiry time.
func (c *JWTClaims) WithExpiry(exp time.Time) *JWTClaims {
	c.claims["exp"] = exp.Unix()
	return c
}

// WithScope sets the scope claim (space-separated string).
func (c *JWTClaims) WithScope(scope string) *JWTClaims {
	c.claims["scope"] = scope
	return c
}

// WithRoles sets the roles claim.
func (c *JWTClaims) WithRoles(roles ...string) *JWTClaims {
	values := make([]interface{}, len(roles))
	for i, r := range roles {
		values[i] = r
	}
	c.claims["roles"] = values
	return c
}

// WithEmail sets the email claim.
func (c *JWTClaims) WithEmail(email string) *JWTClaims {
	c.claims["email"] = email
	return c
}

// WithIssuer overrides the issuer.
func (c *JWTClaims) WithIssuer(issuer string) *JWTClaims {
	c.claims["iss"] = issuer
	return c
}

// WithAudience overrides the audience.
func (c *JWTClaims) WithAudience(audience []string) *JWTClaims {
	c.claims["aud"] = audience
	return c
}

// WithoutClaim removes a specific claim.
func (c *JWTClaims) WithoutClaim(key string) *JWTClaims {
	delete(c.claims, key)
	return c
}

// WithCustomClaim adds a custom claim.
func (c *JWTClaims) WithCustomClaim(key string, value interface{}) *JWTClaims {
	c.claims[key] = value
	return c
}

// SignToken signs the claims with the given private key and returns the token string.
func (c *JWTClaims) SignToken(tb testing.TB, privateKey *rsa.PrivateKey) string {
	tb.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, c.claims)
	token.Header["kid"] = "test-key-1"

	tokenString, err := token.SignedString(privateKey)
	if err != nil {
		tb.Fatalf("failed to sign token: %v", err)
	}

	return tokenString
}

// CreateValidToken creates a valid token with default claims.
func CreateValidToken(tb testing.TB, setup *JWTTestSetup, subject string) string {
	tb.Helper()

	return NewJWTClaims(setup.Issuer, setup.Audience, subject).
		SignToken(tb, setup.KeyPair.PrivateKey)
}

// CreateExpiredToken creates a token that has already expired.
func CreateExpiredToken(tb testing.TB, setup *JWTTestSetup, subject string) string {
	tb.Helper()

	return NewJWTClaims(setup.Issuer, setup.Audience, subject).
		WithExpiry(time.Now().Add(-time.Hour)).
		SignToken(tb, setup.KeyPair.PrivateKey)
}

// CreateTokenWithWrongIssuer creates a token with an incorrect issuer.
func CreateTokenWithWrongIssuer(tb testing.TB, setup *JWTTestSetup, subject string) string {
	tb.Helper()

	return NewJWTClaims("https://wrong-issuer.com", setup.Audience, subject).
		SignToken(tb, setup.KeyPair.PrivateKey)
}

// CreateTokenWithWrongAudience creates a token with an incorrect audience.
func CreateTokenWithWrongAudience(tb testing.TB, setup *JWTTestSetup, subject string) string {
	tb.Helper()

	return NewJWTClaims(setup.Issuer, "wrong-audience", subject).
		SignToken(tb, setup.KeyPair.PrivateKey)
}
