package oidc

import (
	"fmt"
	"net/http"
)

// Transport is an http.RoundTripper that injects a Bearer access token from
// a TokenSource into every outgoing request. It wraps an existing transport,
// typically http.DefaultTransport.
type Transport struct {
	// Base is the underlying transport. Nil uses http.DefaultTransport.
	Base http.RoundTripper

	// Source provides the access tokens.
	Source *TokenSource
}

// NewTransport creates a transport injecting tokens from the given source.
func NewTransport(source *TokenSource, base http.RoundTripper) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{Base: base, Source: source}
}

// RoundTrip fetches a valid token and sets the Authorization header on a
// clone of the request before delegating to the base transport. The token
// fetch honors the request context's cancellation and deadline.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Source == nil {
		return nil, fmt.Errorf("oidc: transport has no token source")
	}

	token, err := t.Source.Token(req.Context())
	if err != nil {
		return nil, fmt.Errorf("oidc: failed to get token: %w", err)
	}

	clone := req.Clone(req.Context())
	token.SetAuthHeader(clone)

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(clone)
}
