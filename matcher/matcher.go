package matcher

import "net/http"

// MatchResult is the outcome of testing a request against a RequestMatcher.
// Variables carries values extracted from the request (e.g. path template
// variables) and is nil when the matcher extracts nothing.
type MatchResult struct {
	Matched   bool
	Variables map[string]string
}

// Match returns a positive result carrying the provided variables.
func Match(variables map[string]string) MatchResult {
	return MatchResult{Matched: true, Variables: variables}
}

// NotMatch returns a negative result.
func NotMatch() MatchResult {
	return MatchResult{}
}

// RequestMatcher is a predicate over an incoming HTTP request.
//
// Implementations must be stateless and side-effect free: a single matcher
// instance is shared across all concurrent requests of a filter chain.
type RequestMatcher interface {
	Matches(r *http.Request) MatchResult
}

// Func adapts a plain function to the RequestMatcher interface.
type Func func(r *http.Request) MatchResult

// Matches calls the underlying function.
func (f Func) Matches(r *http.Request) MatchResult {
	return f(r)
}

// Any returns a matcher that matches every request.
func Any() RequestMatcher {
	return Func(func(*http.Request) MatchResult {
		return Match(nil)
	})
}

// Method returns a matcher that matches requests with the given HTTP method.
func Method(method string) RequestMatcher {
	return Func(func(r *http.Request) MatchResult {
		if r.Method == method {
			return Match(nil)
		}
		return NotMatch()
	})
}

// Header returns a matcher that matches requests carrying the given header
// with the exact value. An empty value matches mere presence of the header.
func Header(name, value string) RequestMatcher {
	return Func(func(r *http.Request) MatchResult {
		got := r.Header.Get(name)
		if got == "" {
			return NotMatch()
		}
		if value == "" || got == value {
			return Match(nil)
		}
		return NotMatch()
	})
}

// And returns a matcher that matches only if all child matchers match.
// Variables extracted by the children are merged; later children win on
// duplicate names.
func And(matchers ...RequestMatcher) RequestMatcher {
	return Func(func(r *http.Request) MatchResult {
		var variables map[string]string
		for _, m := range matchers {
			result := m.Matches(r)
			if !result.Matched {
				return NotMatch()
			}
			for name, value := range result.Variables {
				if variables == nil {
					variables = make(map[string]string)
				}
				variables[name] = value
			}
		}
		return Match(variables)
	})
}

// Or returns a matcher that matches if any child matcher matches. The result
// of the first matching child is returned.
func Or(matchers ...RequestMatcher) RequestMatcher {
	return Func(func(r *http.Request) MatchResult {
		for _, m := range matchers {
			if result := m.Matches(r); result.Matched {
				return result
			}
		}
		return NotMatch()
	})
}

// Not returns a matcher that inverts the given matcher. Extracted variables
// are discarded.
func Not(m RequestMatcher) RequestMatcher {
	return Func(func(r *http.Request) MatchResult {
		if m.Matches(r).Matched {
			return NotMatch()
		}
		return Match(nil)
	})
}
