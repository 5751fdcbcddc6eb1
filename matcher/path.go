package matcher

import (
	"net/http"
	"strings"
)

// Path returns a matcher for the request path against an Ant-style pattern.
//
// Pattern segments:
//   - a literal segment matches itself exactly
//   - "*" matches exactly one path segment
//   - "**" matches zero or more path segments (only meaningful as the final
//     segment, e.g. "/admin/**")
//   - "{name}" matches one segment and captures it as a variable
//
// Examples:
//
//	Path("/admin/**")        // "/admin", "/admin/users", "/admin/users/42"
//	Path("/users/{id}")      // "/users/42" with Variables["id"] == "42"
//	Path("/files/*/meta")    // "/files/a/meta" but not "/files/a/b/meta"
func Path(pattern string) RequestMatcher {
	patternSegments := splitPath(pattern)
	return Func(func(r *http.Request) MatchResult {
		return matchSegments(patternSegments, splitPath(r.URL.Path))
	})
}

// PathMethod returns a matcher combining an HTTP method and a path pattern.
func PathMethod(method, pattern string) RequestMatcher {
	return And(Method(method), Path(pattern))
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func matchSegments(pattern, path []string) MatchResult {
	var variables map[string]string

	for i, segment := range pattern {
		if segment == "**" {
			// Matches the remainder of the path, including nothing.
			return Match(variables)
		}
		if i >= len(path) {
			return NotMatch()
		}
		switch {
		case segment == "*":
			// any single segment
		case strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}"):
			if variables == nil {
				variables = make(map[string]string)
			}
			variables[segment[1:len(segment)-1]] = path[i]
		case segment != path[i]:
			return NotMatch()
		}
	}

	if len(path) != len(pattern) {
		return NotMatch()
	}
	return Match(variables)
}
