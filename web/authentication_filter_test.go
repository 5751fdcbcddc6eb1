package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Maxvgrad/spring-security/authn"
	"github.com/Maxvgrad/spring-security/matcher"
	"github.com/Maxvgrad/spring-security/secctx"
	"github.com/Maxvgrad/spring-security/testutil"
)

// counters tracks which collaborators of the authentication filter ran.
type counters struct {
	converts      int
	authenticates int
	successes     int
	failures      int
	failureErr    error
}

func countingConverter(c *counters, token *authn.Token, err error) authn.Converter {
	return authn.ConverterFunc(func(r *http.Request) (*authn.Token, error) {
		c.converts++
		return token, err
	})
}

func countingManager(c *counters, token *authn.Token, err error) authn.Manager {
	return authn.ManagerFunc(func(ctx context.Context, candidate *authn.Token) (*authn.Token, error) {
		c.authenticates++
		return token, err
	})
}

type countingSuccessHandler struct {
	c *counters
	// savesAtInvocation captures the repository save count when the handler
	// runs, to assert persistence completed first.
	repo              *testutil.RecordingRepository
	savesAtInvocation int
}

func (h *countingSuccessHandler) OnSuccess(w http.ResponseWriter, r *http.Request, chain *FilterChain, _ *authn.Token) error {
	h.c.successes++
	if h.repo != nil {
		h.savesAtInvocation = h.repo.SaveCount()
	}
	return chain.Next(w, r)
}

type countingFailureHandler struct{ c *counters }

func (h countingFailureHandler) OnFailure(w http.ResponseWriter, r *http.Request, err error) error {
	h.c.failures++
	h.c.failureErr = err
	w.WriteHeader(http.StatusUnauthorized)
	return nil
}

// runFilter serves one request through a chain containing only the filter,
// returning the recorder and whether the terminal handler ran.
func runFilter(t *testing.T, f Filter, req *http.Request) (*httptest.ResponseRecorder, bool) {
	t.Helper()

	terminalRan := false
	terminal := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		terminalRan = true
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	NewSecurityFilterChain(nil, f).Handler(terminal).ServeHTTP(rec, req)
	return rec, terminalRan
}

func TestAuthenticationFilterSkipsNonMatchingRequests(t *testing.T) {
	c := &counters{}
	filter := NewAuthenticationFilter(
		countingManager(c, nil, errors.New("must not run")),
		WithConverter(countingConverter(c, nil, errors.New("must not run"))),
		WithRequiresMatcher(matcher.PathMethod(http.MethodPost, "/login")),
	)

	_, terminalRan := runFilter(t, filter, httptest.NewRequest(http.MethodGet, "/other", nil))

	if c.converts != 0 || c.authenticates != 0 {
		t.Errorf("converter/manager ran for a non-matching request: %+v", c)
	}
	if !terminalRan {
		t.Error("chain must continue for non-matching requests")
	}
}

func TestAuthenticationFilterContinuesWithoutCredentials(t *testing.T) {
	c := &counters{}
	repo := &testutil.RecordingRepository{}
	filter := NewAuthenticationFilter(
		countingManager(c, nil, errors.New("must not run")),
		WithConverter(countingConverter(c, nil, nil)),
		WithSecurityContextRepository(repo),
		WithFailureHandler(countingFailureHandler{c}),
	)

	rec, terminalRan := runFilter(t, filter, httptest.NewRequest(http.MethodGet, "/", nil))

	if c.authenticates != 0 || c.failures != 0 {
		t.Errorf("manager or failure handler ran without credentials: %+v", c)
	}
	if repo.SaveCount() != 0 {
		t.Error("nothing must be saved without credentials")
	}
	if !terminalRan || rec.Code != http.StatusOK {
		t.Errorf("chain must continue unauthenticated, status = %d", rec.Code)
	}
}

func TestAuthenticationFilterConverterErrorIsServerError(t *testing.T) {
	c := &counters{}
	filter := NewAuthenticationFilter(
		countingManager(c, nil, errors.New("must not run")),
		WithConverter(countingConverter(c, nil, errors.New("undecodable header"))),
		WithFailureHandler(countingFailureHandler{c}),
	)

	rec, terminalRan := runFilter(t, filter, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if c.authenticates != 0 || c.failures != 0 || terminalRan {
		t.Errorf("nothing else may run after a converter error: %+v terminal=%v", c, terminalRan)
	}
}

func TestAuthenticationFilterSuccess(t *testing.T) {
	c := &counters{}
	repo := &testutil.RecordingRepository{}
	success := &countingSuccessHandler{c: c, repo: repo}
	authenticated := authn.NewAuthenticated("user", "ROLE_USER")

	var observed *authn.Token
	observer := FilterFunc(func(w http.ResponseWriter, r *http.Request, chain *FilterChain) error {
		if sc, ok := secctx.FromContext(r.Context()); ok {
			observed = sc.Token()
		}
		return chain.Next(w, r)
	})

	filter := NewAuthenticationFilter(
		countingManager(c, authenticated, nil),
		WithConverter(countingConverter(c, authn.NewCandidate("user", "password"), nil)),
		WithSecurityContextRepository(repo),
		WithSuccessHandler(success),
		WithFailureHandler(countingFailureHandler{c}),
	)

	terminalRan := false
	terminal := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		terminalRan = true
		w.WriteHeader(http.StatusOK)
	})
	rec := httptest.NewRecorder()
	NewSecurityFilterChain(nil, filter, observer).Handler(terminal).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if c.successes != 1 || c.failures != 0 {
		t.Fatalf("handlers = %+v, want one success and no failures", c)
	}
	if repo.SaveCount() != 1 {
		t.Fatalf("saves = %d, want 1", repo.SaveCount())
	}
	if success.savesAtInvocation != 1 {
		t.Error("the security context must be saved before the success handler runs")
	}
	if len(repo.Saved) != 1 || repo.Saved[0].Token() != authenticated {
		t.Error("the saved context must wrap the authenticated token")
	}
	if observed != authenticated {
		t.Error("downstream filters must observe the authenticated token")
	}
	if !terminalRan || rec.Code != http.StatusOK {
		t.Errorf("default flow must reach the application, status = %d", rec.Code)
	}
}

func TestAuthenticationFilterFailure(t *testing.T) {
	c := &counters{}
	repo := &testutil.RecordingRepository{}
	failure := authn.BadCredentials("wrong password")

	filter := NewAuthenticationFilter(
		countingManager(c, nil, failure),
		WithConverter(countingConverter(c, authn.NewCandidate("user", "wrong"), nil)),
		WithSecurityContextRepository(repo),
		WithFailureHandler(countingFailureHandler{c}),
	)

	rec, terminalRan := runFilter(t, filter, httptest.NewRequest(http.MethodGet, "/", nil))

	if c.failures != 1 {
		t.Fatalf("failures = %d, want 1", c.failures)
	}
	if !errors.Is(c.failureErr, authn.ErrAuthenticationFailed) {
		t.Errorf("failure handler must receive the authentication error, got %v", c.failureErr)
	}
	if repo.SaveCount() != 0 {
		t.Error("nothing must be saved on failure")
	}
	if terminalRan {
		t.Error("the chain must not continue after a failure")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestAuthenticationFilterDefaultFailureChallenge(t *testing.T) {
	// Without an explicit failure handler the filter answers with a Basic
	// challenge.
	c := &counters{}
	filter := NewAuthenticationFilter(
		countingManager(c, nil, authn.BadCredentials("wrong password")),
		WithConverter(countingConverter(c, authn.NewCandidate("user", "wrong"), nil)),
	)

	rec, _ := runFilter(t, filter, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if got := rec.Header().Get("WWW-Authenticate"); got != `Basic realm="Realm"` {
		t.Errorf("WWW-Authenticate = %q, want the default Basic challenge", got)
	}
}

func TestAuthenticationFilterManagerErrorIsServerError(t *testing.T) {
	c := &counters{}
	filter := NewAuthenticationFilter(
		countingManager(c, nil, errors.New("credential store unreachable")),
		WithConverter(countingConverter(c, authn.NewCandidate("user", "password"), nil)),
		WithFailureHandler(countingFailureHandler{c}),
	)

	rec, terminalRan := runFilter(t, filter, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if c.failures != 0 {
		t.Error("unexpected errors must not reach the failure handler")
	}
	if terminalRan {
		t.Error("the chain must not continue after an unexpected error")
	}
}

func TestAuthenticationFilterSaveErrorIsServerError(t *testing.T) {
	c := &counters{}
	repo := &testutil.RecordingRepository{SaveErr: errors.New("session store down")}
	success := &countingSuccessHandler{c: c}

	filter := NewAuthenticationFilter(
		countingManager(c, authn.NewAuthenticated("user"), nil),
		WithConverter(countingConverter(c, authn.NewCandidate("user", "password"), nil)),
		WithSecurityContextRepository(repo),
		WithSuccessHandler(success),
	)

	rec, _ := runFilter(t, filter, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if c.successes != 0 {
		t.Error("the success handler must not run when persistence fails")
	}
}
