// Package matcher provides request matchers: stateless predicates over
// incoming HTTP requests used to scope filter chains, authentication filters,
// and authorization rules.
//
// Matchers answer match/no-match and can extract variables from the request,
// such as path template values:
//
//	m := matcher.Path("/users/{id}")
//	result := m.Matches(req)
//	if result.Matched {
//	    id := result.Variables["id"]
//	}
//
// Matchers compose with And, Or, and Not:
//
//	adminWrites := matcher.And(
//	    matcher.Method(http.MethodPost),
//	    matcher.Path("/admin/**"),
//	)
//
// All matchers in this package are safe for concurrent use by multiple
// goroutines.
package matcher
