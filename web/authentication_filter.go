package web

import (
	"fmt"
	"net/http"

	"github.com/Maxvgrad/spring-security/authn"
	"github.com/Maxvgrad/spring-security/matcher"
	"github.com/Maxvgrad/spring-security/secctx"
)

// SuccessHandler reacts to a successful authentication. It owns the response
// from this point: it may continue the chain, redirect, or write a body.
type SuccessHandler interface {
	OnSuccess(w http.ResponseWriter, r *http.Request, chain *FilterChain, token *authn.Token) error
}

// FailureHandler reacts to an authentication failure. It owns the response
// from this point; the chain does not continue.
type FailureHandler interface {
	OnFailure(w http.ResponseWriter, r *http.Request, err error) error
}

// ContinueChainSuccessHandler passes the request on to the next filter,
// leaving response production to downstream filters and the application.
type ContinueChainSuccessHandler struct{}

// OnSuccess continues the filter chain.
func (ContinueChainSuccessHandler) OnSuccess(w http.ResponseWriter, r *http.Request, chain *FilterChain, _ *authn.Token) error {
	return chain.Next(w, r)
}

// RedirectSuccessHandler redirects after successful authentication, the
// classic post-login redirect.
type RedirectSuccessHandler struct {
	Location string
}

// OnSuccess issues a 302 redirect to the configured location.
func (h RedirectSuccessHandler) OnSuccess(w http.ResponseWriter, r *http.Request, _ *FilterChain, _ *authn.Token) error {
	http.Redirect(w, r, h.Location, http.StatusFound)
	return nil
}

// EntryPointFailureHandler answers an authentication failure by commencing
// the given entry point.
type EntryPointFailureHandler struct {
	EntryPoint EntryPoint
}

// OnFailure delegates to the entry point.
func (h EntryPointFailureHandler) OnFailure(w http.ResponseWriter, r *http.Request, err error) error {
	return h.EntryPoint.Commence(w, r, err)
}

// AuthenticationFilterOption is a functional option for AuthenticationFilter.
type AuthenticationFilterOption func(*AuthenticationFilter)

// WithConverter sets the credential converter. Default is
// authn.BasicConverter.
func WithConverter(converter authn.Converter) AuthenticationFilterOption {
	return func(f *AuthenticationFilter) {
		f.converter = converter
	}
}

// WithRequiresMatcher restricts the filter to requests matching m. Requests
// not matching skip the filter entirely. Default is every request.
func WithRequiresMatcher(m matcher.RequestMatcher) AuthenticationFilterOption {
	return func(f *AuthenticationFilter) {
		f.requires = m
	}
}

// WithSecurityContextRepository sets the repository that persists the
// authenticated context. Default is the request-scoped repository.
func WithSecurityContextRepository(repository secctx.Repository) AuthenticationFilterOption {
	return func(f *AuthenticationFilter) {
		f.repository = repository
	}
}

// WithSuccessHandler sets the handler invoked after a successful
// authentication. Default continues the chain.
func WithSuccessHandler(handler SuccessHandler) AuthenticationFilterOption {
	return func(f *AuthenticationFilter) {
		f.success = handler
	}
}

// WithFailureHandler sets the handler invoked on authentication failure.
// Default commences a Basic entry point (401 plus challenge).
func WithFailureHandler(handler FailureHandler) AuthenticationFilterOption {
	return func(f *AuthenticationFilter) {
		f.failure = handler
	}
}

// WithFilterLogger sets an optional logger.
func WithFilterLogger(logger Logger) AuthenticationFilterOption {
	return func(f *AuthenticationFilter) {
		f.logger = logger
	}
}

// AuthenticationFilter orchestrates authentication for matched requests:
//
//  1. requests not matching the requires-authentication matcher pass through
//     untouched;
//  2. the converter extracts candidate credentials; none present means the
//     chain continues unauthenticated, a conversion error is an unexpected
//     processing error;
//  3. the manager authenticates the candidate; an authentication failure is
//     answered by the failure handler, any other error propagates as an
//     unexpected processing error;
//  4. the authenticated context is saved through the repository, which must
//     complete before
//  5. the success handler takes over the response.
type AuthenticationFilter struct {
	manager    authn.Manager
	converter  authn.Converter
	requires   matcher.RequestMatcher
	repository secctx.Repository
	success    SuccessHandler
	failure    FailureHandler
	logger     Logger
}

// NewAuthenticationFilter creates an authentication filter around the given
// manager with Basic authentication defaults.
func NewAuthenticationFilter(manager authn.Manager, opts ...AuthenticationFilterOption) *AuthenticationFilter {
	f := &AuthenticationFilter{
		manager:    manager,
		converter:  authn.BasicConverter{},
		requires:   matcher.Any(),
		repository: secctx.RequestAttributeRepository{},
		success:    ContinueChainSuccessHandler{},
		failure:    EntryPointFailureHandler{EntryPoint: BasicEntryPoint{}},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// DoFilter runs the authentication state machine for one request.
func (f *AuthenticationFilter) DoFilter(w http.ResponseWriter, r *http.Request, chain *FilterChain) error {
	if !f.requires.Matches(r).Matched {
		return chain.Next(w, r)
	}

	candidate, err := f.converter.Convert(r)
	if err != nil {
		return fmt.Errorf("web: credential conversion failed: %w", err)
	}
	if candidate == nil {
		return chain.Next(w, r)
	}

	authenticated, err := f.manager.Authenticate(r.Context(), candidate)
	if err != nil {
		if authn.IsAuthenticationError(err) {
			if f.logger != nil {
				f.logger.Printf("web: authentication failed for %s %s: %v", r.Method, r.URL.Path, err)
			}
			return f.failure.OnFailure(w, r, err)
		}
		return fmt.Errorf("web: authentication processing failed: %w", err)
	}

	sc := secctx.NewSecurityContext(authenticated)
	if f.repository != nil {
		if err := f.repository.Save(w, r, sc); err != nil {
			return fmt.Errorf("web: failed to save security context: %w", err)
		}
	}
	// Publish for downstream filters even when the repository stores
	// elsewhere (e.g. a session).
	if !secctx.Set(r.Context(), sc) {
		r = r.WithContext(secctx.NewContext(r.Context(), sc))
	}

	if f.logger != nil {
		f.logger.Printf("web: authenticated %s for %s %s", authenticated.Principal(), r.Method, r.URL.Path)
	}
	return f.success.OnSuccess(w, r, chain, authenticated)
}
