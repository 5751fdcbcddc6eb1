// Package headers provides the security header writers applied by the
// filter chain to every matched response: cache control, content type
// options, Strict-Transport-Security, X-Frame-Options, and X-XSS-Protection.
//
// Writers are independent and composable:
//
//	writer := headers.Composite(headers.Default()...)
//	writer.WriteHeaders(w.Header())
package headers
