package authz

import (
	"context"
	"net/http"

	"github.com/Maxvgrad/spring-security/authn"
)

// Decision is the outcome of an authorization check. It is produced per
// check and never retained.
type Decision struct {
	Granted bool
	Reason  string
}

// Grant returns a positive decision.
func Grant() Decision {
	return Decision{Granted: true}
}

// Deny returns a negative decision with the given reason.
func Deny(reason string) Decision {
	return Decision{Reason: reason}
}

// TokenSupplier lazily resolves the current authentication token. It returns
// nil when the request is unauthenticated. Authorization rules receive a
// supplier rather than a token because authorization may be evaluated before
// authentication state has been resolved.
type TokenSupplier func() *authn.Token

// Context carries the request under authorization plus any variables
// extracted by the matcher that selected the rule. Request is nil for
// non-HTTP callers such as gRPC interceptors.
type Context struct {
	Request   *http.Request
	Variables map[string]string
}

// Manager decides whether a request is authorized.
type Manager interface {
	Check(ctx context.Context, token TokenSupplier, ac *Context) (Decision, error)
}

// ManagerFunc adapts a plain function to the Manager interface.
type ManagerFunc func(ctx context.Context, token TokenSupplier, ac *Context) (Decision, error)

// Check calls the underlying function.
func (f ManagerFunc) Check(ctx context.Context, token TokenSupplier, ac *Context) (Decision, error) {
	return f(ctx, token, ac)
}

// RolePrefix is prepended to role names by HasRole.
const RolePrefix = "ROLE_"

// PermitAll returns a manager that grants every request.
func PermitAll() Manager {
	return ManagerFunc(func(context.Context, TokenSupplier, *Context) (Decision, error) {
		return Grant(), nil
	})
}

// DenyAll returns a manager that denies every request.
func DenyAll() Manager {
	return ManagerFunc(func(context.Context, TokenSupplier, *Context) (Decision, error) {
		return Deny("access denied to all"), nil
	})
}

// HasAuthority returns a manager granting access iff the authenticated
// principal holds the exact authority.
func HasAuthority(authority string) Manager {
	return hasAnyAuthority(authority)
}

// HasAnyAuthority returns a manager granting access iff the authenticated
// principal holds at least one of the authorities.
func HasAnyAuthority(authorities ...string) Manager {
	return hasAnyAuthority(authorities...)
}

// HasRole returns a manager granting access iff the authenticated principal
// holds the authority ROLE_<role>.
func HasRole(role string) Manager {
	return hasAnyAuthority(RolePrefix + role)
}

// HasAnyRole returns a manager granting access iff the authenticated
// principal holds at least one ROLE_-prefixed authority for the given roles.
func HasAnyRole(roles ...string) Manager {
	authorities := make([]string, len(roles))
	for i, role := range roles {
		authorities[i] = RolePrefix + role
	}
	return hasAnyAuthority(authorities...)
}

// Authenticated returns a manager granting access iff a non-anonymous
// authenticated principal is present.
func Authenticated() Manager {
	return ManagerFunc(func(_ context.Context, token TokenSupplier, _ *Context) (Decision, error) {
		t := token()
		if t == nil || !t.Authenticated() || t.Anonymous() {
			return Deny("authentication required"), nil
		}
		return Grant(), nil
	})
}

func hasAnyAuthority(authorities ...string) Manager {
	return ManagerFunc(func(_ context.Context, token TokenSupplier, _ *Context) (Decision, error) {
		t := token()
		if t == nil || !t.Authenticated() || t.Anonymous() {
			return Deny("authentication required"), nil
		}
		for _, authority := range authorities {
			if t.HasAuthority(authority) {
				return Grant(), nil
			}
		}
		return Deny("missing required authority"), nil
	})
}
