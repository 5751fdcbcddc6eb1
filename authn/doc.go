// Package authn provides the authentication building blocks of the security
// pipeline: tokens, credential converters, and authentication managers.
//
// # Tokens
//
// A Token is either a candidate (raw credentials extracted from a request)
// or authenticated (verified principal plus granted authorities). Candidates
// are produced by Converters; authenticated tokens are produced by Managers
// and are immutable.
//
// # Converters
//
// A Converter inspects an incoming request and extracts candidate
// credentials, or reports "not applicable" by returning (nil, nil):
//
//	token, err := authn.BasicConverter{}.Convert(r)
//	if token == nil && err == nil {
//	    // no credentials present; continue unauthenticated
//	}
//
// Built-in converters cover HTTP Basic, bearer tokens, and form login
// submissions.
//
// # Managers
//
// A Manager validates a candidate and returns an authenticated token:
//
//	users := map[string]authn.User{
//	    "user": {Password: "password", Authorities: []string{"ROLE_USER"}},
//	}
//	manager := authn.NewInMemoryManager(users)
//
// Authentication failures satisfy errors.Is(err, ErrAuthenticationFailed)
// and are handled by the configured failure handler; any other error is an
// unexpected processing error and surfaces as a server error.
//
// BearerTokenManager validates JWT or opaque bearer tokens against an
// OAuth2/OIDC provider:
//
//	manager, err := authn.NewJWTManager(
//	    "https://auth.example.com/.well-known/jwks.json",
//	    "https://auth.example.com",
//	    "my-api",
//	)
//
// DelegatingManager composes several managers, trying each until one
// supports the presented credentials.
//
// All types in this package are safe for concurrent use.
package authn
