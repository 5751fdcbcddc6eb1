package secctx

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Repository loads and saves the security context across requests.
//
// The filter pipeline treats repositories as opaque: Save must have fully
// completed before a successful authentication proceeds to its success
// handler. Saving a nil context clears any persisted state.
type Repository interface {
	Load(r *http.Request) (*Context, error)
	Save(w http.ResponseWriter, r *http.Request, sc *Context) error
}

// RequestAttributeRepository scopes the security context to the current
// request: Save publishes into the per-request slot installed by the filter
// chain and nothing survives the response. It is the default repository for
// stateless authentication such as HTTP Basic or bearer tokens.
type RequestAttributeRepository struct{}

// Load returns the context previously saved during this request, if any.
func (RequestAttributeRepository) Load(r *http.Request) (*Context, error) {
	sc, _ := FromContext(r.Context())
	return sc, nil
}

// Save publishes the context into the request's slot.
func (RequestAttributeRepository) Save(_ http.ResponseWriter, r *http.Request, sc *Context) error {
	if sc == nil {
		Clear(r.Context())
		return nil
	}
	if !Set(r.Context(), sc) {
		return errors.New("secctx: no security context slot installed for this request")
	}
	return nil
}

// DefaultSessionCookie is the cookie name used by SessionRepository unless
// overridden.
const DefaultSessionCookie = "SECURITYSESSION"

// SessionRepositoryOption is a functional option for SessionRepository.
type SessionRepositoryOption func(*SessionRepository)

// WithCookieName overrides the session cookie name.
func WithCookieName(name string) SessionRepositoryOption {
	return func(r *SessionRepository) {
		r.cookieName = name
	}
}

// WithSessionTTL overrides the session lifetime. Default is 30 minutes.
func WithSessionTTL(ttl time.Duration) SessionRepositoryOption {
	return func(r *SessionRepository) {
		r.ttl = ttl
	}
}

// WithSecureCookie marks the session cookie Secure, restricting it to TLS
// connections.
func WithSecureCookie() SessionRepositoryOption {
	return func(r *SessionRepository) {
		r.secure = true
	}
}

// SessionRepository persists the security context in an in-memory session
// store keyed by an HttpOnly cookie. It is the default repository for form
// login. Sessions expire after the configured TTL; expired entries are
// dropped lazily on access.
type SessionRepository struct {
	cookieName string
	ttl        time.Duration
	secure     bool

	mu       sync.Mutex
	sessions map[string]sessionEntry
}

type sessionEntry struct {
	sc      *Context
	expires time.Time
}

// NewSessionRepository creates an empty session-backed repository.
func NewSessionRepository(opts ...SessionRepositoryOption) *SessionRepository {
	repo := &SessionRepository{
		cookieName: DefaultSessionCookie,
		ttl:        30 * time.Minute,
		sessions:   make(map[string]sessionEntry),
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// Load resolves the session cookie to a stored security context. A missing
// cookie, unknown session, or expired session yields (nil, nil).
func (s *SessionRepository) Load(r *http.Request) (*Context, error) {
	cookie, err := r.Cookie(s.cookieName)
	if err != nil {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[cookie.Value]
	if !ok {
		return nil, nil
	}
	if time.Now().After(entry.expires) {
		delete(s.sessions, cookie.Value)
		return nil, nil
	}
	return entry.sc, nil
}

// Save stores the context under a fresh session ID and sets the cookie. The
// ID rotates on every save; a cookie value presented by the client is never
// adopted as a session key, it is only used to discard the previous entry.
// A nil context removes the session and expires the cookie.
func (s *SessionRepository) Save(w http.ResponseWriter, r *http.Request, sc *Context) error {
	existing := ""
	if cookie, err := r.Cookie(s.cookieName); err == nil {
		existing = cookie.Value
	}

	if sc == nil {
		if existing != "" {
			s.mu.Lock()
			delete(s.sessions, existing)
			s.mu.Unlock()
			http.SetCookie(w, &http.Cookie{
				Name:     s.cookieName,
				Value:    "",
				Path:     "/",
				MaxAge:   -1,
				HttpOnly: true,
				Secure:   s.secure,
			})
		}
		return nil
	}

	id, err := newSessionID()
	if err != nil {
		return fmt.Errorf("secctx: failed to generate session id: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})

	s.mu.Lock()
	if existing != "" {
		delete(s.sessions, existing)
	}
	s.sessions[id] = sessionEntry{sc: sc, expires: time.Now().Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

func newSessionID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
