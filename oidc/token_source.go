package oidc

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Logger is an interface for optional logging in this package.
type Logger interface {
	Printf(format string, args ...any)
}

// TokenSourceOption is a functional option for TokenSource.
type TokenSourceOption func(*TokenSource)

// WithTokenSourceLogger sets a logger for token refresh events.
func WithTokenSourceLogger(logger Logger) TokenSourceOption {
	return func(ts *TokenSource) {
		ts.logger = logger
	}
}

// WithExpiryLeeway refreshes tokens the given duration before their actual
// expiry to avoid near-expiry races. Default is one minute.
func WithExpiryLeeway(leeway time.Duration) TokenSourceOption {
	return func(ts *TokenSource) {
		ts.expiryLeeway = leeway
	}
}

// TokenSource obtains and caches OAuth2 access tokens using the client
// credentials flow. It is safe for concurrent use and refreshes lazily when
// the cached token nears expiry.
type TokenSource struct {
	config       *clientcredentials.Config
	expiryLeeway time.Duration
	logger       Logger

	mu    sync.RWMutex
	token *oauth2.Token
}

// NewTokenSource creates a token source for the client credentials flow.
//
// Parameters:
//   - tokenURL: OAuth2 token endpoint (e.g. "https://auth.example.com/oauth/v2/token")
//   - clientID: OAuth2 client identifier
//   - clientSecret: OAuth2 client secret
//   - scopes: space-separated OAuth2 scopes (e.g. "openid profile email")
func NewTokenSource(tokenURL, clientID, clientSecret, scopes string, opts ...TokenSourceOption) *TokenSource {
	ts := &TokenSource{
		config: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			Scopes:       strings.Fields(scopes),
		},
		expiryLeeway: time.Minute,
	}
	for _, opt := range opts {
		opt(ts)
	}
	return ts
}

// Token returns a valid access token, fetching or refreshing if necessary.
// Double-checked locking keeps the common cached path contention free.
func (ts *TokenSource) Token(ctx context.Context) (*oauth2.Token, error) {
	ts.mu.RLock()
	token := ts.token
	ts.mu.RUnlock()
	if ts.valid(token) {
		return token, nil
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.valid(ts.token) {
		return ts.token, nil
	}

	token, err := ts.config.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("oidc: failed to obtain token: %w", err)
	}
	if ts.logger != nil {
		ts.logger.Printf("oidc: obtained access token, expires at %s", token.Expiry.Format(time.RFC3339))
	}
	ts.token = token
	return token, nil
}

func (ts *TokenSource) valid(token *oauth2.Token) bool {
	if token == nil || !token.Valid() {
		return false
	}
	if token.Expiry.IsZero() {
		return true
	}
	return time.Now().Add(ts.expiryLeeway).Before(token.Expiry)
}
