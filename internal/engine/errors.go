package engine

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain failure. The set is closed: every error crossing
// a transport boundary carries exactly one of these codes, so callers can
// branch on the code string without knowing which transport was used.
type Code string

const (
	CodeInvalidArgument     Code = "InvalidArgument"
	CodeVideoUnavailable    Code = "VideoUnavailable"
	CodeNoCaptionsAvailable Code = "NoCaptionsAvailable"
	CodePolicyRejected      Code = "PolicyRejected"
	CodeNetworkError        Code = "NetworkError"
	CodeRateLimited         Code = "RateLimited"
)

// HTTPStatus returns the fixed HTTP status for a code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidArgument:
		return http.StatusUnprocessableEntity
	case CodeVideoUnavailable, CodeNoCaptionsAvailable:
		return http.StatusNotFound
	case CodePolicyRejected:
		return http.StatusForbidden
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusServiceUnavailable
	}
}

// Error is a domain error with a transport-agnostic status classification.
type Error struct {
	Code    Code           `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// With attaches a detail key/value and returns the error for chaining.
func (e *Error) With(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any, 1)
	}
	e.Details[key] = value
	return e
}

// E builds a domain error with the given code and message.
func E(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Ef builds a domain error with a formatted message.
func Ef(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapErr builds a domain error that wraps an underlying cause.
func WrapErr(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// AsDomain extracts a domain error from err's chain.
func AsDomain(err error) (*Error, bool) {
	var derr *Error
	if errors.As(err, &derr) {
		return derr, true
	}
	return nil, false
}

// Normalize coerces any error into a domain error. Errors that already carry
// a code pass through; everything else becomes NetworkError, so no
// transport-specific failure type leaks into a response body.
func Normalize(err error) *Error {
	if derr, ok := AsDomain(err); ok {
		return derr
	}
	return WrapErr(CodeNetworkError, "upstream request failed", err)
}
