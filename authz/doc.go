// Package authz provides authorization decisions for the security pipeline:
// built-in access rules, custom rule support, and an ordered matcher-based
// rule chain with first-match-wins semantics.
//
// Rules are registered in order; the first matcher that matches an incoming
// request selects the rule that decides it, and requests matching no rule
// are denied:
//
//	rules, err := authz.NewBuilder().
//	    Match(matcher.Path("/admin/**")).HasRole("ADMIN").
//	    Match(matcher.Path("/health")).PermitAll().
//	    AnyRequest().Authenticated().
//	    Build()
//
// Registration invariants are checked when rules are registered, never at
// request time: a matcher registered after AnyRequest is a configuration
// error, as is a matcher left without an access rule.
//
// Custom rules implement Manager. They receive a lazy token supplier (the
// request may not be authenticated yet when authorization runs) and the
// request context including matcher variables:
//
//	ownOrders := authz.ManagerFunc(func(ctx context.Context, token authz.TokenSupplier, ac *authz.Context) (authz.Decision, error) {
//	    t := token()
//	    if t != nil && t.Principal() == ac.Variables["user"] {
//	        return authz.Grant(), nil
//	    }
//	    return authz.Deny("not the order owner"), nil
//	})
package authz
