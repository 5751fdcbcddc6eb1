package authn

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
)

// Manager validates candidate credentials and produces an authenticated
// token.
//
// On success the returned token is authenticated and carries the granted
// authorities. An authentication failure (wrong, expired, or malformed
// credentials) is reported as an error satisfying
// errors.Is(err, ErrAuthenticationFailed); any other error is treated by the
// filter pipeline as an unexpected processing error.
//
// Implementations must be safe for concurrent use; the pipeline guarantees
// at most one Authenticate call per request pass through a filter.
type Manager interface {
	Authenticate(ctx context.Context, token *Token) (*Token, error)
}

// ManagerFunc adapts a plain function to the Manager interface.
type ManagerFunc func(ctx context.Context, token *Token) (*Token, error)

// Authenticate calls the underlying function.
func (f ManagerFunc) Authenticate(ctx context.Context, token *Token) (*Token, error) {
	return f(ctx, token)
}

// User is an entry of an InMemoryManager.
type User struct {
	Password    string
	Authorities []string
}

// InMemoryManager authenticates username/password candidates against a fixed
// set of users. Password comparison is constant time.
//
// It is intended for tests, examples, and small internal tools; production
// deployments should delegate to a real credential store.
type InMemoryManager struct {
	users map[string]User
}

// NewInMemoryManager creates a manager over the given username -> user map.
// The map is copied; later mutation of the argument has no effect.
func NewInMemoryManager(users map[string]User) *InMemoryManager {
	copied := make(map[string]User, len(users))
	for name, user := range users {
		copied[name] = User{
			Password:    user.Password,
			Authorities: copyStrings(user.Authorities),
		}
	}
	return &InMemoryManager{users: copied}
}

// Authenticate validates the candidate's username and password.
func (m *InMemoryManager) Authenticate(_ context.Context, token *Token) (*Token, error) {
	user, ok := m.users[token.Principal()]
	// Hash both sides so the comparison is constant time regardless of
	// password length, and runs even for unknown users.
	expected := sha256.Sum256([]byte(user.Password))
	presented := sha256.Sum256([]byte(token.Credentials()))
	if subtle.ConstantTimeCompare(expected[:], presented[:]) != 1 || !ok {
		return nil, BadCredentials("invalid username or password")
	}
	return NewAuthenticated(token.Principal(), user.Authorities...), nil
}

// DelegatingManager tries a sequence of managers in order. A manager that
// reports Unsupported is skipped; the first definitive answer (success or
// failure) wins. If every delegate reports Unsupported, authentication fails
// with an Unsupported error.
type DelegatingManager struct {
	delegates []Manager
}

// NewDelegatingManager creates a manager delegating to the given managers in
// the order provided.
func NewDelegatingManager(delegates ...Manager) *DelegatingManager {
	return &DelegatingManager{delegates: delegates}
}

// Authenticate tries each delegate in order.
func (m *DelegatingManager) Authenticate(ctx context.Context, token *Token) (*Token, error) {
	for _, delegate := range m.delegates {
		authenticated, err := delegate.Authenticate(ctx, token)
		if err != nil {
			var authErr *Error
			if errors.As(err, &authErr) && authErr.Reason == ReasonUnsupported {
				continue
			}
			return nil, err
		}
		return authenticated, nil
	}
	return nil, Unsupported("no authentication manager supports the presented credentials")
}
