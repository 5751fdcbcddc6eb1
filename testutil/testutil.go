// Package testutil provides test doubles for applications built on the
// security packages.
package testutil

import (
	"context"
	"net/http"
	"sync"

	"github.com/Maxvgrad/spring-security/authn"
	"github.com/Maxvgrad/spring-security/secctx"
)

// RecordingRepository is a secctx.Repository that keeps contexts in memory
// and records every call, so tests can assert persistence ordering.
type RecordingRepository struct {
	mu sync.Mutex

	// Stored is returned by Load and replaced by Save.
	Stored *secctx.Context

	// LoadErr and SaveErr, when set, are returned by the corresponding call.
	LoadErr error
	SaveErr error

	// Calls lists the operations performed, in order: "load" or "save".
	Calls []string

	// Saved collects every context passed to Save.
	Saved []*secctx.Context
}

// Load returns the stored context.
func (r *RecordingRepository) Load(req *http.Request) (*secctx.Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, "load")
	if r.LoadErr != nil {
		return nil, r.LoadErr
	}
	return r.Stored, nil
}

// Save records the context and makes it the stored one.
func (r *RecordingRepository) Save(w http.ResponseWriter, req *http.Request, sc *secctx.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, "save")
	r.Saved = append(r.Saved, sc)
	if r.SaveErr != nil {
		return r.SaveErr
	}
	r.Stored = sc
	return nil
}

// SaveCount returns how many times Save was called.
func (r *RecordingRepository) SaveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, call := range r.Calls {
		if call == "save" {
			count++
		}
	}
	return count
}

// StaticManager returns an authentication manager that accepts any candidate
// and returns the given token.
func StaticManager(token *authn.Token) authn.Manager {
	return authn.ManagerFunc(func(ctx context.Context, candidate *authn.Token) (*authn.Token, error) {
		return token, nil
	})
}

// ErrorManager returns an authentication manager that always fails with the
// given error.
func ErrorManager(err error) authn.Manager {
	return authn.ManagerFunc(func(ctx context.Context, candidate *authn.Token) (*authn.Token, error) {
		return nil, err
	})
}
