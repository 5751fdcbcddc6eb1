package headers

import (
	"fmt"
	"net/http"
	"time"
)

// Writer contributes security headers to a response. Writers are applied
// unconditionally and independently of one another.
type Writer interface {
	WriteHeaders(h http.Header)
}

// WriterFunc adapts a plain function to the Writer interface.
type WriterFunc func(h http.Header)

// WriteHeaders calls the underlying function.
func (f WriterFunc) WriteHeaders(h http.Header) {
	f(h)
}

// Composite applies the given writers in order.
func Composite(writers ...Writer) Writer {
	return WriterFunc(func(h http.Header) {
		for _, w := range writers {
			w.WriteHeaders(h)
		}
	})
}

// CacheControl disables caching of secured responses.
type CacheControl struct{}

// WriteHeaders sets Cache-Control, Pragma, and Expires.
func (CacheControl) WriteHeaders(h http.Header) {
	h.Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
}

// ContentTypeOptions prevents MIME sniffing.
type ContentTypeOptions struct{}

// WriteHeaders sets X-Content-Type-Options.
func (ContentTypeOptions) WriteHeaders(h http.Header) {
	h.Set("X-Content-Type-Options", "nosniff")
}

// StrictTransportSecurity writes the HSTS header.
type StrictTransportSecurity struct {
	// MaxAge is the HSTS max-age. Zero uses one year.
	MaxAge time.Duration
	// IncludeSubDomains extends the policy to subdomains.
	IncludeSubDomains bool
}

// WriteHeaders sets Strict-Transport-Security.
func (w StrictTransportSecurity) WriteHeaders(h http.Header) {
	maxAge := w.MaxAge
	if maxAge == 0 {
		maxAge = 365 * 24 * time.Hour
	}
	value := fmt.Sprintf("max-age=%d", int64(maxAge.Seconds()))
	if w.IncludeSubDomains {
		value += " ; includeSubDomains"
	}
	h.Set("Strict-Transport-Security", value)
}

// FrameOptionsMode is the X-Frame-Options policy.
type FrameOptionsMode string

const (
	// FrameOptionsDeny forbids all framing.
	FrameOptionsDeny FrameOptionsMode = "DENY"
	// FrameOptionsSameOrigin allows framing by the same origin only.
	FrameOptionsSameOrigin FrameOptionsMode = "SAMEORIGIN"
)

// FrameOptions writes the X-Frame-Options header.
type FrameOptions struct {
	// Mode is the framing policy. Empty uses DENY.
	Mode FrameOptionsMode
}

// WriteHeaders sets X-Frame-Options.
func (w FrameOptions) WriteHeaders(h http.Header) {
	mode := w.Mode
	if mode == "" {
		mode = FrameOptionsDeny
	}
	h.Set("X-Frame-Options", string(mode))
}

// XSSProtection writes the legacy X-XSS-Protection header in block mode.
type XSSProtection struct{}

// WriteHeaders sets X-XSS-Protection.
func (XSSProtection) WriteHeaders(h http.Header) {
	h.Set("X-XSS-Protection", "1; mode=block")
}

// Default returns the standard writer set: cache control, content type
// options, HSTS, frame options, and XSS protection.
func Default() []Writer {
	return []Writer{
		CacheControl{},
		ContentTypeOptions{},
		StrictTransportSecurity{},
		FrameOptions{},
		XSSProtection{},
	}
}
