package web

import (
	"bufio"
	"fmt"
	"net"
	"net/http"

	"github.com/Maxvgrad/spring-security/matcher"
	"github.com/Maxvgrad/spring-security/secctx"
)

// Logger is an interface for optional logging in filters.
type Logger interface {
	Printf(format string, args ...any)
}

// Filter intercepts a request on its way through a security filter chain.
//
// A filter either handles the response itself (short-circuiting the chain)
// or delegates to the rest of the chain via chain.Next. A returned error is
// an unexpected processing error: the chain surfaces it as a plain 500
// response if nothing has been written yet. Authentication and authorization
// failures are never returned as errors; they are answered by the configured
// handlers and entry points.
type Filter interface {
	DoFilter(w http.ResponseWriter, r *http.Request, chain *FilterChain) error
}

// FilterFunc adapts a plain function to the Filter interface.
type FilterFunc func(w http.ResponseWriter, r *http.Request, chain *FilterChain) error

// DoFilter calls the underlying function.
func (f FilterFunc) DoFilter(w http.ResponseWriter, r *http.Request, chain *FilterChain) error {
	return f(w, r, chain)
}

// FilterChain is the per-request cursor over the ordered filter list. A new
// chain value is created for every request; the underlying filter slice is
// shared immutable state.
type FilterChain struct {
	filters  []Filter
	position int
	terminal http.Handler
}

// Next passes the request to the next filter, or to the terminal handler
// once every filter has run.
func (c *FilterChain) Next(w http.ResponseWriter, r *http.Request) error {
	if c.position < len(c.filters) {
		filter := c.filters[c.position]
		c.position++
		return filter.DoFilter(w, r, c)
	}
	if c.terminal != nil {
		c.terminal.ServeHTTP(w, r)
	}
	return nil
}

// SecurityFilterChain is an assembled, immutable filter chain scoped to a
// top-level request matcher. It is built once at startup and safely shared
// across all concurrent requests.
type SecurityFilterChain struct {
	matcher matcher.RequestMatcher
	filters []Filter
}

// NewSecurityFilterChain creates a chain over the given pre-ordered filters.
// Most callers should use ChainBuilder or Config instead, which order and
// validate the filter set.
func NewSecurityFilterChain(m matcher.RequestMatcher, filters ...Filter) *SecurityFilterChain {
	if m == nil {
		m = matcher.Any()
	}
	copied := make([]Filter, len(filters))
	copy(copied, filters)
	return &SecurityFilterChain{matcher: m, filters: copied}
}

// Matches reports whether this chain applies to the request.
func (c *SecurityFilterChain) Matches(r *http.Request) bool {
	return c.matcher.Matches(r).Matched
}

// Filters returns a copy of the ordered filter list.
func (c *SecurityFilterChain) Filters() []Filter {
	copied := make([]Filter, len(c.filters))
	copy(copied, c.filters)
	return copied
}

// Handler wraps the given handler with this chain. Requests not matching the
// chain's matcher bypass every filter.
func (c *SecurityFilterChain) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !c.Matches(r) {
			next.ServeHTTP(w, r)
			return
		}
		c.serve(w, r, next)
	})
}

func (c *SecurityFilterChain) serve(w http.ResponseWriter, r *http.Request, terminal http.Handler) {
	// Install the per-request security context slot before any filter runs.
	r = r.WithContext(secctx.WithHolder(r.Context()))

	cw := &commitWriter{ResponseWriter: w}
	chain := &FilterChain{filters: c.filters, terminal: terminal}
	if err := chain.Next(cw, r); err != nil && !cw.committed {
		// Unexpected processing error: opaque server error, no details.
		http.Error(cw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// ChainMux routes each request to the first chain whose matcher matches.
// Requests matching no chain go straight to the fallback handler.
type ChainMux struct {
	chains   []*SecurityFilterChain
	fallback http.Handler
}

// NewChainMux creates a mux over the given chains, consulted in order.
func NewChainMux(fallback http.Handler, chains ...*SecurityFilterChain) *ChainMux {
	copied := make([]*SecurityFilterChain, len(chains))
	copy(copied, chains)
	return &ChainMux{chains: copied, fallback: fallback}
}

// ServeHTTP dispatches to the first matching chain.
func (m *ChainMux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	for _, chain := range m.chains {
		if chain.Matches(r) {
			chain.serve(w, r, m.fallback)
			return
		}
	}
	if m.fallback != nil {
		m.fallback.ServeHTTP(w, r)
	}
}

// commitWriter tracks whether a response has been committed so the chain can
// decide if an error may still be answered with a generic server error.
type commitWriter struct {
	http.ResponseWriter
	committed bool
}

func (w *commitWriter) WriteHeader(status int) {
	w.committed = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *commitWriter) Write(b []byte) (int, error) {
	w.committed = true
	return w.ResponseWriter.Write(b)
}

// Flush forwards to the underlying writer when it supports streaming.
func (w *commitWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		w.committed = true
		flusher.Flush()
	}
}

// Hijack forwards to the underlying writer so handlers behind the chain can
// take over the connection (e.g. for WebSockets).
func (w *commitWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("web: underlying ResponseWriter does not support hijacking")
	}
	w.committed = true
	return hijacker.Hijack()
}
