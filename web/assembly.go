package web

import (
	"fmt"
	"sort"

	"github.com/Maxvgrad/spring-security/matcher"
)

// Well-known filter positions. The gaps leave room for custom filters placed
// with At, Before, and After.
const (
	OrderHeadersWriter        = 100
	OrderSecurityContext      = 200
	OrderHTTPBasic            = 300
	OrderFormLogin            = 400
	OrderAuthentication       = 500
	OrderExceptionTranslation = 600
	OrderAuthorization        = 700
	OrderLast                 = 900
)

// Named references for relative placement with AddBefore and AddAfter.
const (
	FilterHeadersWriter   = "HeadersWriter"
	FilterSecurityContext = "SecurityContext"
	FilterHTTPBasic       = "HTTPBasic"
	FilterFormLogin       = "FormLogin"
	FilterAuthentication  = "Authentication"
	FilterAuthorization   = "Authorization"
)

var referenceOrders = map[string]int{
	FilterHeadersWriter:   OrderHeadersWriter,
	FilterSecurityContext: OrderSecurityContext,
	FilterHTTPBasic:       OrderHTTPBasic,
	FilterFormLogin:       OrderFormLogin,
	FilterAuthentication:  OrderAuthentication,
	FilterAuthorization:   OrderAuthorization,
}

type registration struct {
	filter Filter
	order  int
	// offset places relative registrations around their reference: -1 for
	// Before, +1 for After, 0 for exact positions. Ties are broken by the
	// stable sort, so registration order is preserved.
	offset int
}

// ChainBuilder assembles a SecurityFilterChain from an unordered set of
// filters, each tagged with an explicit position or a placement relative to
// a well-known reference filter.
//
// Validation is eager: Build reports a configuration error when a filter has
// no known position, when a relative placement names an unknown reference,
// or when two filters claim the same exact position without an explicit
// tiebreak. The sort is stable, so assembling the same registrations twice
// yields the same order.
type ChainBuilder struct {
	matcher       matcher.RequestMatcher
	registrations []registration
	err           error
}

// NewChainBuilder creates an empty builder matching every request.
func NewChainBuilder() *ChainBuilder {
	return &ChainBuilder{
		matcher: matcher.Any(),
	}
}

// SecurityMatcher scopes the assembled chain to requests matching m.
func (b *ChainBuilder) SecurityMatcher(m matcher.RequestMatcher) *ChainBuilder {
	if m != nil {
		b.matcher = m
	}
	return b
}

// Add registers a filter at its default position, derived from the filter's
// concrete type. Filters without a known default must be placed explicitly
// with AddAt, AddBefore, or AddAfter.
func (b *ChainBuilder) Add(f Filter) *ChainBuilder {
	order, ok := defaultOrder(f)
	if !ok {
		b.fail(fmt.Errorf("web: filter %T has no known default position: place it with AddAt, AddBefore, or AddAfter", f))
		return b
	}
	return b.AddAt(f, order)
}

// AddAt registers a filter at an explicit position.
func (b *ChainBuilder) AddAt(f Filter, order int) *ChainBuilder {
	if b.err != nil {
		return b
	}
	b.registrations = append(b.registrations, registration{filter: f, order: order})
	return b
}

// AddBefore registers a filter immediately before the named reference
// position. Multiple filters placed before the same reference keep their
// registration order.
func (b *ChainBuilder) AddBefore(f Filter, reference string) *ChainBuilder {
	order, ok := referenceOrders[reference]
	if !ok {
		b.fail(fmt.Errorf("web: unknown filter reference %q", reference))
		return b
	}
	if b.err != nil {
		return b
	}
	b.registrations = append(b.registrations, registration{filter: f, order: order, offset: -1})
	return b
}

// AddAfter registers a filter immediately after the named reference
// position. Multiple filters placed after the same reference keep their
// registration order.
func (b *ChainBuilder) AddAfter(f Filter, reference string) *ChainBuilder {
	order, ok := referenceOrders[reference]
	if !ok {
		b.fail(fmt.Errorf("web: unknown filter reference %q", reference))
		return b
	}
	if b.err != nil {
		return b
	}
	b.registrations = append(b.registrations, registration{filter: f, order: order, offset: 1})
	return b
}

// Build validates the registrations and returns the immutable, ordered
// chain. It may be called repeatedly; the result is deterministic.
func (b *ChainBuilder) Build() (*SecurityFilterChain, error) {
	if b.err != nil {
		return nil, b.err
	}

	exact := make(map[int]Filter)
	for _, reg := range b.registrations {
		if reg.offset != 0 {
			continue
		}
		if previous, ok := exact[reg.order]; ok {
			return nil, fmt.Errorf("web: filters %T and %T are both registered at position %d without an explicit tiebreak", previous, reg.filter, reg.order)
		}
		exact[reg.order] = reg.filter
	}

	sorted := make([]registration, len(b.registrations))
	copy(sorted, b.registrations)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].order != sorted[j].order {
			return sorted[i].order < sorted[j].order
		}
		return sorted[i].offset < sorted[j].offset
	})

	filters := make([]Filter, len(sorted))
	for i, reg := range sorted {
		filters[i] = reg.filter
	}
	return NewSecurityFilterChain(b.matcher, filters...), nil
}

func (b *ChainBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func defaultOrder(f Filter) (int, bool) {
	switch f.(type) {
	case *HeaderWriterFilter:
		return OrderHeadersWriter, true
	case *SecurityContextFilter:
		return OrderSecurityContext, true
	case *AuthenticationFilter:
		return OrderAuthentication, true
	case *AuthorizationFilter:
		return OrderAuthorization, true
	default:
		return 0, false
	}
}
