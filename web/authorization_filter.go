package web

import (
	"net/http"

	"github.com/Maxvgrad/spring-security/authn"
	"github.com/Maxvgrad/spring-security/authz"
	"github.com/Maxvgrad/spring-security/secctx"
)

// AccessDeniedHandler produces the response when an authenticated principal
// is denied access to a resource.
type AccessDeniedHandler interface {
	Handle(w http.ResponseWriter, r *http.Request, reason string) error
}

// AccessDeniedHandlerFunc adapts a plain function to the interface.
type AccessDeniedHandlerFunc func(w http.ResponseWriter, r *http.Request, reason string) error

// Handle calls the underlying function.
func (f AccessDeniedHandlerFunc) Handle(w http.ResponseWriter, r *http.Request, reason string) error {
	return f(w, r, reason)
}

// ForbiddenHandler answers denials with a plain 403.
type ForbiddenHandler struct{}

// Handle writes a 403 status.
func (ForbiddenHandler) Handle(w http.ResponseWriter, _ *http.Request, _ string) error {
	w.WriteHeader(http.StatusForbidden)
	return nil
}

// AuthorizationFilterOption is a functional option for AuthorizationFilter.
type AuthorizationFilterOption func(*AuthorizationFilter)

// WithEntryPoint sets the entry point commenced when an unauthenticated
// request is denied. Default is a Basic challenge.
func WithEntryPoint(entryPoint EntryPoint) AuthorizationFilterOption {
	return func(f *AuthorizationFilter) {
		f.entryPoint = entryPoint
	}
}

// WithAccessDeniedHandler sets the handler for denials of authenticated
// requests. Default writes 403.
func WithAccessDeniedHandler(handler AccessDeniedHandler) AuthorizationFilterOption {
	return func(f *AuthorizationFilter) {
		f.denied = handler
	}
}

// WithAuthorizationLogger sets an optional logger.
func WithAuthorizationLogger(logger Logger) AuthorizationFilterOption {
	return func(f *AuthorizationFilter) {
		f.logger = logger
	}
}

// AuthorizationFilter consults an authorization manager (normally the
// delegating rule chain) for every request reaching it. Granted requests
// continue down the chain. Denied requests are translated: missing or
// anonymous authentication commences the entry point, an authenticated
// principal gets the access denied handler.
type AuthorizationFilter struct {
	manager    authz.Manager
	entryPoint EntryPoint
	denied     AccessDeniedHandler
	logger     Logger
}

// NewAuthorizationFilter creates an authorization filter around the given
// manager.
func NewAuthorizationFilter(manager authz.Manager, opts ...AuthorizationFilterOption) *AuthorizationFilter {
	f := &AuthorizationFilter{
		manager:    manager,
		entryPoint: BasicEntryPoint{},
		denied:     ForbiddenHandler{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// DoFilter authorizes the request and continues or translates the denial.
func (f *AuthorizationFilter) DoFilter(w http.ResponseWriter, r *http.Request, chain *FilterChain) error {
	supplier := authz.TokenSupplier(func() *authn.Token {
		sc, ok := secctx.FromContext(r.Context())
		if !ok {
			return nil
		}
		return sc.Token()
	})

	decision, err := f.manager.Check(r.Context(), supplier, &authz.Context{Request: r})
	if err != nil {
		return err
	}
	if decision.Granted {
		return chain.Next(w, r)
	}

	if f.logger != nil {
		f.logger.Printf("web: access denied for %s %s: %s", r.Method, r.URL.Path, decision.Reason)
	}

	token := supplier()
	if token == nil || !token.Authenticated() || token.Anonymous() {
		return f.entryPoint.Commence(w, r, ErrAuthenticationRequired)
	}
	return f.denied.Handle(w, r, decision.Reason)
}
