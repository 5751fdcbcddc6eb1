package authn

import (
	"encoding/base64"
	"net/http"
	"strings"
)

// Converter extracts candidate credentials from an incoming request.
//
// A nil token with a nil error means the converter found nothing to
// authenticate; this is not an error and the filter chain continues
// unauthenticated. A non-nil error signals a malformed request (for example
// an undecodable Authorization header) and surfaces as a generic processing
// error, not as an authentication failure.
type Converter interface {
	Convert(r *http.Request) (*Token, error)
}

// ConverterFunc adapts a plain function to the Converter interface.
type ConverterFunc func(r *http.Request) (*Token, error)

// Convert calls the underlying function.
func (f ConverterFunc) Convert(r *http.Request) (*Token, error) {
	return f(r)
}

// BasicConverter extracts credentials from an HTTP Basic Authorization
// header (RFC 7617).
type BasicConverter struct{}

// Convert returns a candidate token holding the username and password, or
// (nil, nil) if the request carries no Basic Authorization header.
func (BasicConverter) Convert(r *http.Request) (*Token, error) {
	value, ok := schemeValue(r, "Basic")
	if !ok {
		return nil, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, &Error{Reason: ReasonMalformed, Message: "invalid base64 in basic authorization header", Cause: err}
	}

	username, password, found := strings.Cut(string(decoded), ":")
	if !found {
		return nil, &Error{Reason: ReasonMalformed, Message: "basic authorization header is missing the credential separator"}
	}

	return NewCandidate(username, password), nil
}

// BearerConverter extracts a bearer token from the Authorization header.
type BearerConverter struct{}

// Convert returns a candidate token holding the raw bearer token, or
// (nil, nil) if the request carries no Bearer Authorization header.
func (BearerConverter) Convert(r *http.Request) (*Token, error) {
	value, ok := schemeValue(r, "Bearer")
	if !ok || value == "" {
		return nil, nil
	}
	return NewCandidate("", value), nil
}

// FormLoginConverter extracts credentials from a form login submission:
// a POST with application/x-www-form-urlencoded body carrying username and
// password parameters.
type FormLoginConverter struct {
	// UsernameParameter overrides the form field holding the username.
	// Default is "username".
	UsernameParameter string
	// PasswordParameter overrides the form field holding the password.
	// Default is "password".
	PasswordParameter string
}

// Convert returns a candidate token from the submitted form, or (nil, nil)
// when the request is not a form submission or omits the credential fields.
func (c FormLoginConverter) Convert(r *http.Request) (*Token, error) {
	if r.Method != http.MethodPost {
		return nil, nil
	}
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
		return nil, nil
	}
	if err := r.ParseForm(); err != nil {
		return nil, &Error{Reason: ReasonMalformed, Message: "invalid form login submission", Cause: err}
	}

	usernameParam := c.UsernameParameter
	if usernameParam == "" {
		usernameParam = "username"
	}
	passwordParam := c.PasswordParameter
	if passwordParam == "" {
		passwordParam = "password"
	}

	username := r.PostForm.Get(usernameParam)
	password := r.PostForm.Get(passwordParam)
	if username == "" {
		return nil, nil
	}

	return NewCandidate(username, password), nil
}

// schemeValue returns the value of the Authorization header for the given
// scheme, matched case-insensitively.
func schemeValue(r *http.Request, scheme string) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	prefix := scheme + " "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}
