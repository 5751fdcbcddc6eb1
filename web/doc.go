// Package web is the request-processing core of the security library: the
// filter chain, the authentication and authorization filters, entry points,
// and the chain assembly that orders everything deterministically at
// startup.
//
// # Filter chains
//
// A SecurityFilterChain is an ordered list of filters scoped to a top-level
// request matcher. It is assembled once, validated eagerly, and shared
// immutably across all concurrent requests. The highest-level way to build
// one is the explicit Config struct:
//
//	users := map[string]authn.User{
//	    "user": {Password: "password", Authorities: []string{"ROLE_USER"}},
//	}
//
//	chain, err := web.Config{
//	    AuthenticationManager: authn.NewInMemoryManager(users),
//	    Basic:                 &web.BasicAuthConfig{},
//	    Authorize: authz.NewBuilder().
//	        Match(matcher.Path("/admin/**")).HasRole("ADMIN").
//	        AnyRequest().Authenticated(),
//	}.Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	http.ListenAndServe(":8080", chain.Handler(mux))
//
// Several chains with disjoint matchers compose behind a ChainMux, which
// routes each request to the first chain whose matcher matches.
//
// # Authentication
//
// AuthenticationFilter sequences converter, manager, security context
// persistence, and the success or failure handler. Context persistence
// completes before the success handler runs; authentication failures are
// answered by the failure handler while unexpected errors surface as opaque
// server errors.
//
// # Authorization
//
// AuthorizationFilter consults the ordered rule chain built by authz; denials
// for unauthenticated requests commence the entry point (challenge or login
// redirect, selected by content negotiation), denials for authenticated
// principals return 403.
//
// # Custom filters
//
// ChainBuilder accepts custom filters at explicit positions or relative to
// the well-known ones:
//
//	chain, err := web.NewChainBuilder().
//	    Add(web.NewHeaderWriterFilter(headers.Composite(headers.Default()...))).
//	    AddBefore(auditFilter, web.FilterAuthorization).
//	    Build()
//
// Misconfigurations (unknown references, duplicate positions, filters
// without a placement) fail at Build, never at request time.
package web
