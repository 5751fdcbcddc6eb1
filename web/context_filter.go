package web

import (
	"fmt"
	"net/http"

	"github.com/Maxvgrad/spring-security/headers"
	"github.com/Maxvgrad/spring-security/secctx"
)

// SecurityContextFilter restores a persisted security context at the start
// of the chain so downstream filters and the application observe the
// authentication state of earlier requests (e.g. a session established by
// form login).
type SecurityContextFilter struct {
	repository secctx.Repository
	logger     Logger
}

// NewSecurityContextFilter creates the filter around the given repository.
func NewSecurityContextFilter(repository secctx.Repository) *SecurityContextFilter {
	return &SecurityContextFilter{repository: repository}
}

// DoFilter loads the persisted context, publishes it for the request, and
// continues the chain.
func (f *SecurityContextFilter) DoFilter(w http.ResponseWriter, r *http.Request, chain *FilterChain) error {
	sc, err := f.repository.Load(r)
	if err != nil {
		return fmt.Errorf("web: failed to load security context: %w", err)
	}
	if sc != nil && !secctx.Set(r.Context(), sc) {
		r = r.WithContext(secctx.NewContext(r.Context(), sc))
	}
	return chain.Next(w, r)
}

// HeaderWriterFilter applies the configured security header writers to the
// response before delegating to the rest of the chain.
type HeaderWriterFilter struct {
	writer headers.Writer
}

// NewHeaderWriterFilter creates the filter around a composite writer.
func NewHeaderWriterFilter(writer headers.Writer) *HeaderWriterFilter {
	return &HeaderWriterFilter{writer: writer}
}

// DoFilter writes the headers and continues.
func (f *HeaderWriterFilter) DoFilter(w http.ResponseWriter, r *http.Request, chain *FilterChain) error {
	f.writer.WriteHeaders(w.Header())
	return chain.Next(w, r)
}
