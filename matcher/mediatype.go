package matcher

import (
	"mime"
	"net/http"
	"strings"
)

// MediaTypeMatcher matches requests whose Accept header is compatible with
// at least one of the configured media types.
//
// Ignored media types are treated as if the client had declared nothing: a
// request accepting only "*/*" does not match, which avoids false positives
// on generic clients that accept anything. "*/*" is ignored by default.
type MediaTypeMatcher struct {
	mediaTypes []string
	ignored    map[string]bool
}

// MediaType returns a matcher for the given media types (e.g. "text/html",
// "application/json").
func MediaType(mediaTypes ...string) *MediaTypeMatcher {
	return &MediaTypeMatcher{
		mediaTypes: mediaTypes,
		ignored:    map[string]bool{"*/*": true},
	}
}

// IgnoredMediaTypes replaces the set of accepted media types that are
// disregarded during matching. By default only "*/*" is ignored.
func (m *MediaTypeMatcher) IgnoredMediaTypes(mediaTypes ...string) *MediaTypeMatcher {
	m.ignored = make(map[string]bool, len(mediaTypes))
	for _, mt := range mediaTypes {
		m.ignored[mt] = true
	}
	return m
}

// Matches tests the request's Accept header against the configured types.
// A request without an Accept header does not match.
func (m *MediaTypeMatcher) Matches(r *http.Request) MatchResult {
	for _, accepted := range parseAccept(r.Header.Get("Accept")) {
		if m.ignored[accepted] {
			continue
		}
		for _, mt := range m.mediaTypes {
			if mediaTypeCompatible(mt, accepted) {
				return Match(nil)
			}
		}
	}
	return NotMatch()
}

// parseAccept extracts the normalized media types from an Accept header
// value, dropping parameters such as q-values.
func parseAccept(header string) []string {
	if header == "" {
		return nil
	}
	var types []string
	for _, part := range strings.Split(header, ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		types = append(types, mediaType)
	}
	return types
}

// mediaTypeCompatible reports whether an accepted media type covers the
// configured one, honoring type wildcards like "text/*".
func mediaTypeCompatible(configured, accepted string) bool {
	if configured == accepted || accepted == "*/*" {
		return true
	}
	acceptedParts := strings.SplitN(accepted, "/", 2)
	configuredParts := strings.SplitN(configured, "/", 2)
	if len(acceptedParts) != 2 || len(configuredParts) != 2 {
		return false
	}
	return acceptedParts[1] == "*" && acceptedParts[0] == configuredParts[0]
}
