package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Maxvgrad/spring-security/matcher"
)

// ErrAuthenticationRequired is passed to an entry point when a protected
// resource is reached without an authenticated principal.
var ErrAuthenticationRequired = errors.New("web: authentication required")

// EntryPoint produces the response when authentication is required but
// missing or failed: a challenge for programmatic clients, a redirect to a
// login resource for interactive ones.
type EntryPoint interface {
	Commence(w http.ResponseWriter, r *http.Request, reason error) error
}

// EntryPointFunc adapts a plain function to the EntryPoint interface.
type EntryPointFunc func(w http.ResponseWriter, r *http.Request, reason error) error

// Commence calls the underlying function.
func (f EntryPointFunc) Commence(w http.ResponseWriter, r *http.Request, reason error) error {
	return f(w, r, reason)
}

// BasicEntryPoint answers with a 401 status and an HTTP Basic challenge.
type BasicEntryPoint struct {
	// Realm is the challenge realm. Empty uses "Realm".
	Realm string
}

// Commence writes the WWW-Authenticate challenge.
func (e BasicEntryPoint) Commence(w http.ResponseWriter, _ *http.Request, _ error) error {
	realm := e.Realm
	if realm == "" {
		realm = "Realm"
	}
	w.Header().Set("WWW-Authenticate", fmt.Sprintf("Basic realm=%q", realm))
	w.WriteHeader(http.StatusUnauthorized)
	return nil
}

// RedirectEntryPoint redirects the client to a login resource.
type RedirectEntryPoint struct {
	Location string
}

// Commence issues a 302 redirect to the configured location.
func (e RedirectEntryPoint) Commence(w http.ResponseWriter, r *http.Request, _ error) error {
	http.Redirect(w, r, e.Location, http.StatusFound)
	return nil
}

// EntryPointEntry pairs a request matcher with the entry point answering the
// requests it selects.
type EntryPointEntry struct {
	Matcher    matcher.RequestMatcher
	EntryPoint EntryPoint
}

// DelegatingEntryPoint selects an entry point by trying each registered
// (matcher, entry point) pair in registration order, falling back to the
// configured default when none match.
type DelegatingEntryPoint struct {
	entries      []EntryPointEntry
	defaultEntry EntryPoint
}

// NewDelegatingEntryPoint creates a delegating entry point. The fallback
// must not be nil.
func NewDelegatingEntryPoint(fallback EntryPoint, entries ...EntryPointEntry) *DelegatingEntryPoint {
	copied := make([]EntryPointEntry, len(entries))
	copy(copied, entries)
	return &DelegatingEntryPoint{entries: copied, defaultEntry: fallback}
}

// Commence delegates to the first entry point whose matcher matches.
func (e *DelegatingEntryPoint) Commence(w http.ResponseWriter, r *http.Request, reason error) error {
	for _, entry := range e.entries {
		if entry.Matcher.Matches(r).Matched {
			return entry.EntryPoint.Commence(w, r, reason)
		}
	}
	return e.defaultEntry.Commence(w, r, reason)
}
