package authn

// Token is an authentication token: a principal identity, the set of granted
// authorities, and an authenticated flag.
//
// A candidate token created by a Converter carries raw credentials and is not
// authenticated. A Manager consumes a candidate and returns an authenticated
// token whose credentials have been erased. Once authenticated a token is
// immutable; accessors return copies of internal state.
type Token struct {
	principal     string
	credentials   string
	authorities   []string
	authenticated bool
	anonymous     bool
}

// NewCandidate creates an unauthenticated token holding raw credentials,
// typically produced by a Converter from an incoming request.
func NewCandidate(principal, credentials string) *Token {
	return &Token{principal: principal, credentials: credentials}
}

// NewAuthenticated creates an authenticated token with the given granted
// authorities. Credentials are never carried by authenticated tokens.
func NewAuthenticated(principal string, authorities ...string) *Token {
	return &Token{
		principal:     principal,
		authorities:   copyStrings(authorities),
		authenticated: true,
	}
}

// NewAnonymous creates an authenticated token representing an anonymous
// caller. Anonymous tokens never satisfy the Authenticated authorization
// rule.
func NewAnonymous() *Token {
	return &Token{
		principal:     "anonymous",
		authorities:   []string{"ROLE_ANONYMOUS"},
		authenticated: true,
		anonymous:     true,
	}
}

// Principal returns the identity associated with the token. For candidate
// tokens this is the claimed identity, if any.
func (t *Token) Principal() string {
	return t.principal
}

// Credentials returns the raw credentials of a candidate token. Authenticated
// tokens return the empty string.
func (t *Token) Credentials() string {
	if t.authenticated {
		return ""
	}
	return t.credentials
}

// Authorities returns a copy of the granted authority set.
func (t *Token) Authorities() []string {
	return copyStrings(t.authorities)
}

// HasAuthority reports whether the exact authority has been granted.
func (t *Token) HasAuthority(authority string) bool {
	for _, a := range t.authorities {
		if a == authority {
			return true
		}
	}
	return false
}

// Authenticated reports whether the token represents a verified identity.
func (t *Token) Authenticated() bool {
	return t.authenticated
}

// Anonymous reports whether the token represents an anonymous caller.
func (t *Token) Anonymous() bool {
	return t.anonymous
}

func copyStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
