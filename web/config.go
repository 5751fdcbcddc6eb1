package web

import (
	"errors"
	"net/http"

	"github.com/Maxvgrad/spring-security/authn"
	"github.com/Maxvgrad/spring-security/authz"
	"github.com/Maxvgrad/spring-security/headers"
	"github.com/Maxvgrad/spring-security/matcher"
	"github.com/Maxvgrad/spring-security/secctx"
)

// BasicAuthConfig enables HTTP Basic authentication.
type BasicAuthConfig struct {
	// Realm is the challenge realm. Empty uses "Realm".
	Realm string
}

// FormLoginConfig enables form login authentication.
type FormLoginConfig struct {
	// LoginPage is the login resource. Empty uses "/login". Credentials are
	// accepted as a POST to this path; unauthenticated interactive clients
	// are redirected to it.
	LoginPage string
	// DefaultSuccessURL is the post-login redirect target. Empty uses "/".
	DefaultSuccessURL string
}

// Config is the explicit configuration of one security filter chain. All
// collaborators are passed here; there is no ambient registry. Zero values
// give a chain that writes security headers and does nothing else.
type Config struct {
	// SecurityMatcher scopes the whole chain. Nil matches every request.
	SecurityMatcher matcher.RequestMatcher

	// AuthenticationManager validates credentials for Basic and FormLogin.
	// Required when either is enabled.
	AuthenticationManager authn.Manager

	// ContextRepository persists authentication across requests. Nil uses
	// the request-scoped repository for Basic and a session repository for
	// FormLogin.
	ContextRepository secctx.Repository

	// Authorize is the ordered rule chain protecting matched requests. Nil
	// disables authorization.
	Authorize *authz.Builder

	// Basic enables HTTP Basic authentication.
	Basic *BasicAuthConfig

	// FormLogin enables form login authentication.
	FormLogin *FormLoginConfig

	// HeaderWriters overrides the security header set. Nil uses
	// headers.Default(); an empty non-nil slice disables header writing.
	HeaderWriters []headers.Writer

	// EntryPoint overrides entry-point selection for authorization
	// denials. Nil derives one from the enabled authentication mechanisms.
	EntryPoint EntryPoint

	// Logger receives optional diagnostics from the assembled filters.
	Logger Logger
}

// restMediaTypes are the media types identifying programmatic clients for
// entry-point content negotiation.
var restMediaTypes = []string{
	"application/atom+xml",
	"application/x-www-form-urlencoded",
	"application/json",
	"application/octet-stream",
	"application/xml",
	"multipart/form-data",
	"text/xml",
}

// Build assembles the ordered filter chain described by the configuration.
// Configuration errors (missing manager, invalid authorization rules) are
// reported here, never at request time.
func (c Config) Build() (*SecurityFilterChain, error) {
	if (c.Basic != nil || c.FormLogin != nil) && c.AuthenticationManager == nil {
		return nil, errors.New("web: an authentication manager is required when basic or form login is enabled")
	}

	builder := NewChainBuilder()
	if c.SecurityMatcher != nil {
		builder.SecurityMatcher(c.SecurityMatcher)
	}

	writers := c.HeaderWriters
	if writers == nil {
		writers = headers.Default()
	}
	if len(writers) > 0 {
		builder.AddAt(NewHeaderWriterFilter(headers.Composite(writers...)), OrderHeadersWriter)
	}

	if c.ContextRepository != nil {
		builder.AddAt(NewSecurityContextFilter(c.ContextRepository), OrderSecurityContext)
	}

	// Entry points contributed by the authentication mechanisms, selected
	// by content negotiation. Form login goes first so interactive clients
	// are redirected rather than challenged.
	var entryPoints []EntryPointEntry

	if c.FormLogin != nil {
		loginPage := c.FormLogin.LoginPage
		if loginPage == "" {
			loginPage = "/login"
		}
		successURL := c.FormLogin.DefaultSuccessURL
		if successURL == "" {
			successURL = "/"
		}

		repository := c.ContextRepository
		if repository == nil {
			repository = secctx.NewSessionRepository()
			builder.AddAt(NewSecurityContextFilter(repository), OrderSecurityContext)
		}

		entryPoints = append([]EntryPointEntry{{
			Matcher:    matcher.MediaType("text/html"),
			EntryPoint: RedirectEntryPoint{Location: loginPage},
		}}, entryPoints...)

		builder.AddAt(NewAuthenticationFilter(
			c.AuthenticationManager,
			WithConverter(authn.FormLoginConverter{}),
			WithRequiresMatcher(matcher.PathMethod(http.MethodPost, loginPage)),
			WithSuccessHandler(RedirectSuccessHandler{Location: successURL}),
			WithFailureHandler(EntryPointFailureHandler{
				EntryPoint: RedirectEntryPoint{Location: loginPage + "?error"},
			}),
			WithSecurityContextRepository(repository),
			WithFilterLogger(c.Logger),
		), OrderFormLogin)
	}

	if c.Basic != nil {
		basicEntryPoint := BasicEntryPoint{Realm: c.Basic.Realm}
		entryPoints = append(entryPoints, EntryPointEntry{
			Matcher:    matcher.MediaType(restMediaTypes...),
			EntryPoint: basicEntryPoint,
		})

		repository := c.ContextRepository
		basicOpts := []AuthenticationFilterOption{
			WithConverter(authn.BasicConverter{}),
			WithFailureHandler(EntryPointFailureHandler{EntryPoint: basicEntryPoint}),
			WithFilterLogger(c.Logger),
		}
		if repository != nil {
			basicOpts = append(basicOpts, WithSecurityContextRepository(repository))
		}
		builder.AddAt(NewAuthenticationFilter(c.AuthenticationManager, basicOpts...), OrderHTTPBasic)
	}

	if c.Authorize != nil {
		rules, err := c.Authorize.Build()
		if err != nil {
			return nil, err
		}
		entryPoint := c.EntryPoint
		if entryPoint == nil {
			entryPoint = resolveEntryPoint(entryPoints)
		}
		builder.AddAt(NewAuthorizationFilter(
			rules,
			WithEntryPoint(entryPoint),
			WithAuthorizationLogger(c.Logger),
		), OrderAuthorization)
	}

	return builder.Build()
}

// resolveEntryPoint picks the entry point for authorization denials from the
// mechanism-contributed candidates: the single candidate directly, several
// behind a delegating entry point whose fallback is the last registered.
func resolveEntryPoint(entries []EntryPointEntry) EntryPoint {
	switch len(entries) {
	case 0:
		return BasicEntryPoint{}
	case 1:
		return entries[0].EntryPoint
	default:
		return NewDelegatingEntryPoint(entries[len(entries)-1].EntryPoint, entries...)
	}
}
