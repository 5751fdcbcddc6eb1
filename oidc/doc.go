// Package oidc provides OpenID Connect client helpers: a cached client
// credentials token source, a token-injecting HTTP transport and a
// userinfo-backed user service.
//
// TokenSource obtains machine-to-machine access tokens and refreshes them
// lazily before expiry:
//
//	ts := oidc.NewTokenSource(
//	    "https://auth.example.com/oauth/v2/token",
//	    clientID, clientSecret,
//	    "openid profile",
//	)
//	token, err := ts.Token(ctx)
//
// Transport wires the token source into an http.Client so every outgoing
// request carries a Bearer token:
//
//	client := &http.Client{Transport: oidc.NewTransport(ts, nil)}
//
// UserService resolves an access token to an authenticated principal via the
// provider's userinfo endpoint:
//
//	svc := oidc.NewUserService("https://auth.example.com/oidc/v1/userinfo")
//	user, err := svc.LoadUser(ctx, token, idTokenSubject)
//
// The returned authn.Token carries ROLE_USER plus SCOPE_ prefixed authorities
// for each scope granted to the access token.
package oidc
