// Package secctx holds the security context of a request: the current
// authentication token, the per-request slot the filter chain publishes it
// through, and the repositories that persist it across requests.
//
// Handlers read the authenticated token from the request context:
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//	    sc, ok := secctx.FromContext(r.Context())
//	    if !ok {
//	        http.Error(w, "not authenticated", http.StatusUnauthorized)
//	        return
//	    }
//	    principal := sc.Token().Principal()
//	    // ...
//	}
//
// Two repositories are provided: RequestAttributeRepository (request-scoped,
// nothing survives the response) and SessionRepository (cookie-keyed
// in-memory sessions with a TTL, used by form login).
package secctx
