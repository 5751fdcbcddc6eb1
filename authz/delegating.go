package authz

import (
	"context"
	"fmt"

	"github.com/Maxvgrad/spring-security/matcher"
)

// Entry pairs a request matcher with the authorization manager that decides
// requests the matcher selects.
type Entry struct {
	Matcher matcher.RequestMatcher
	Manager Manager
}

// DelegatingManager evaluates an ordered list of (matcher, manager) entries.
// The first matcher that matches the request determines which manager
// decides; its decision is final and no further entries are consulted.
// Requests matching no entry are denied (fail-closed).
type DelegatingManager struct {
	entries []Entry
}

// NewDelegatingManager creates a delegating manager over the given entries,
// evaluated in the order provided. Use Builder to enforce registration
// invariants.
func NewDelegatingManager(entries ...Entry) *DelegatingManager {
	copied := make([]Entry, len(entries))
	copy(copied, entries)
	return &DelegatingManager{entries: copied}
}

// Check finds the first matching entry and delegates the decision to it.
func (m *DelegatingManager) Check(ctx context.Context, token TokenSupplier, ac *Context) (Decision, error) {
	if ac.Request != nil {
		for _, entry := range m.entries {
			result := entry.Matcher.Matches(ac.Request)
			if !result.Matched {
				continue
			}
			return entry.Manager.Check(ctx, token, &Context{
				Request:   ac.Request,
				Variables: result.Variables,
			})
		}
	}
	return Deny("no authorization rule matched"), nil
}

// Builder assembles the ordered rule list of a DelegatingManager while
// enforcing the registration invariants eagerly:
//
//   - a matcher registered after AnyRequest would be unreachable and is a
//     configuration error;
//   - every matcher must be paired with exactly one rule before the next
//     matcher may be registered;
//   - building with an unpaired matcher is a configuration error.
//
// The first violation is recorded and reported by Err and Build; subsequent
// calls are no-ops. Typical use:
//
//	rules, err := authz.NewBuilder().
//	    Match(matcher.Path("/admin/**")).HasRole("ADMIN").
//	    Match(matcher.Path("/public/**")).PermitAll().
//	    AnyRequest().Authenticated().
//	    Build()
type Builder struct {
	entries       []Entry
	pending       matcher.RequestMatcher
	anyRegistered bool
	err           error
}

// NewBuilder creates an empty rule builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Match registers a request matcher. The returned builder expects a rule
// method (PermitAll, HasRole, ...) before the next Match.
func (b *Builder) Match(m matcher.RequestMatcher) *Builder {
	if b.err != nil {
		return b
	}
	if b.anyRegistered {
		b.err = fmt.Errorf("authz: cannot register a matcher after AnyRequest: it would be unreachable")
		return b
	}
	if b.pending != nil {
		b.err = fmt.Errorf("authz: the previous matcher does not have an access rule defined")
		return b
	}
	b.pending = m
	return b
}

// AnyRequest registers a catch-all matcher. It must be the last matcher
// registered.
func (b *Builder) AnyRequest() *Builder {
	b.Match(matcher.Any())
	if b.err == nil {
		b.anyRegistered = true
	}
	return b
}

// PermitAll pairs the pending matcher with a rule granting every request.
func (b *Builder) PermitAll() *Builder {
	return b.Access(PermitAll())
}

// DenyAll pairs the pending matcher with a rule denying every request.
func (b *Builder) DenyAll() *Builder {
	return b.Access(DenyAll())
}

// HasRole pairs the pending matcher with a ROLE_<role> authority rule.
func (b *Builder) HasRole(role string) *Builder {
	return b.Access(HasRole(role))
}

// HasAuthority pairs the pending matcher with an exact authority rule.
func (b *Builder) HasAuthority(authority string) *Builder {
	return b.Access(HasAuthority(authority))
}

// Authenticated pairs the pending matcher with a rule requiring a
// non-anonymous authenticated principal.
func (b *Builder) Authenticated() *Builder {
	return b.Access(Authenticated())
}

// Access pairs the pending matcher with a custom authorization manager.
func (b *Builder) Access(manager Manager) *Builder {
	if b.err != nil {
		return b
	}
	if b.pending == nil {
		b.err = fmt.Errorf("authz: no matcher registered for the access rule")
		return b
	}
	b.entries = append(b.entries, Entry{Matcher: b.pending, Manager: manager})
	b.pending = nil
	return b
}

// Err returns the first configuration error recorded during registration.
func (b *Builder) Err() error {
	return b.err
}

// Build validates the registration state and returns the delegating manager.
func (b *Builder) Build() (*DelegatingManager, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.pending != nil {
		b.err = fmt.Errorf("authz: the last matcher does not have an access rule defined")
		return nil, b.err
	}
	return NewDelegatingManager(b.entries...), nil
}
