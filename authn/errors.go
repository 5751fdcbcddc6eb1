package authn

import (
	"errors"
	"fmt"
)

// ErrAuthenticationFailed is the common sentinel for all authentication
// failures. errors.Is(err, ErrAuthenticationFailed) reports whether an error
// produced by a Manager is an authentication failure (recoverable by a
// failure handler) as opposed to an unexpected processing error.
var ErrAuthenticationFailed = errors.New("authn: authentication failed")

// Reason classifies an authentication failure.
type Reason string

const (
	// ReasonBadCredentials indicates the presented credentials are wrong.
	ReasonBadCredentials Reason = "bad_credentials"
	// ReasonExpired indicates the presented credentials have expired.
	ReasonExpired Reason = "expired"
	// ReasonMalformed indicates the presented credentials could not be parsed.
	ReasonMalformed Reason = "malformed"
	// ReasonUnsupported indicates no manager supports the presented credentials.
	ReasonUnsupported Reason = "unsupported"
)

// Error is an authentication failure raised by a Manager. It always satisfies
// errors.Is(err, ErrAuthenticationFailed).
type Error struct {
	Reason  Reason
	Message string
	Cause   error
}

// Error returns the failure message.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("authn: %s: %v", e.Message, e.Cause)
	}
	return "authn: " + e.Message
}

// Unwrap exposes the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is enables errors.Is(err, ErrAuthenticationFailed).
func (e *Error) Is(target error) bool {
	return target == ErrAuthenticationFailed
}

// BadCredentials creates an authentication failure for invalid credentials.
func BadCredentials(message string) *Error {
	return &Error{Reason: ReasonBadCredentials, Message: message}
}

// Expired creates an authentication failure for expired credentials.
func Expired(message string, cause error) *Error {
	return &Error{Reason: ReasonExpired, Message: message, Cause: cause}
}

// Malformed creates an authentication failure for unparseable credentials.
func Malformed(message string, cause error) *Error {
	return &Error{Reason: ReasonMalformed, Message: message, Cause: cause}
}

// Unsupported creates an authentication failure indicating that a manager
// does not know how to validate the presented credentials. DelegatingManager
// uses it to try the next delegate.
func Unsupported(message string) *Error {
	return &Error{Reason: ReasonUnsupported, Message: message}
}

// IsAuthenticationError reports whether err is an authentication failure as
// opposed to an unexpected processing error.
func IsAuthenticationError(err error) bool {
	return errors.Is(err, ErrAuthenticationFailed)
}
