// Package testutil provides shared test helpers for the security packages.
//
// It includes utilities to spin up IPv4-only local HTTP servers (avoiding IPv6 in sandboxes),
// stub OAuth2 token endpoints without real sockets, and mint signed JWTs against a mock JWKS server.
//
// # Utilities
//
//   - NewLocalHTTPServer: start httptest server bound to 127.0.0.1
//   - MockOAuth2Server and StaticJSONResponse: stub OAuth2 token endpoints and capture requests
//   - RoundTripFunc: inline http.RoundTripper implementations
//   - NewJWTTestSetup / JWTClaims: RSA key pair, JWKS server, and a claims builder for signed test tokens
package testutil
