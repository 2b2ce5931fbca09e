package types

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Every CustomError unwraps to exactly one of these.
var (
	ErrInvalidURL       = errors.New("invalid url")
	ErrValidation       = errors.New("validation failed")
	ErrFetch            = errors.New("fetch failed")
	ErrParse            = errors.New("parse failed")
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrConflict         = errors.New("conflict")
)

// CustomError carries the HTTP status, a client-facing message and the error type tag
// rendered in the JSON error envelope.
type CustomError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`

	kind  error
	cause error
}

func (e *CustomError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%d: %s [type: %s]: %v", e.Code, e.Message, e.Type, e.cause)
	}
	return fmt.Sprintf("%d: %s [type: %s]", e.Code, e.Message, e.Type)
}

// Unwrap exposes both the kind sentinel and the underlying cause to errors.Is/As.
func (e *CustomError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.kind != nil {
		errs = append(errs, e.kind)
	}
	if e.cause != nil {
		errs = append(errs, e.cause)
	}
	return errs
}

// InvalidURL reports input that cannot be parsed as an http(s) URL.
func InvalidURL(format string, args ...interface{}) *CustomError {
	return &CustomError{
		Code:    http.StatusBadRequest,
		Message: fmt.Sprintf(format, args...),
		Type:    "link.validation.url",
		kind:    ErrInvalidURL,
	}
}

// Validation reports a malformed request payload.
func Validation(format string, args ...interface{}) *CustomError {
	return &CustomError{
		Code:    http.StatusBadRequest,
		Message: fmt.Sprintf(format, args...),
		Type:    "data.validation.input",
		kind:    ErrValidation,
	}
}

// FetchError reports a failed outbound request. Timeouts map to 504, everything else to 502.
func FetchError(cause error, timeout bool, format string, args ...interface{}) *CustomError {
	code := http.StatusBadGateway
	if timeout {
		code = http.StatusGatewayTimeout
	}
	return &CustomError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Type:    "metadata.fetch",
		kind:    ErrFetch,
		cause:   cause,
	}
}

// ParseError reports a response body that could not be read as HTML.
func ParseError(cause error, format string, args ...interface{}) *CustomError {
	return &CustomError{
		Code:    http.StatusBadGateway,
		Message: fmt.Sprintf(format, args...),
		Type:    "metadata.parse",
		kind:    ErrParse,
		cause:   cause,
	}
}

// NotFound reports an entity that is absent or hidden from the viewer.
func NotFound(format string, args ...interface{}) *CustomError {
	return &CustomError{
		Code:    http.StatusNotFound,
		Message: fmt.Sprintf(format, args...),
		Type:    "data.notfound",
		kind:    ErrNotFound,
	}
}

// PermissionDenied reports an anonymous or unauthorized mutation.
func PermissionDenied(format string, args ...interface{}) *CustomError {
	return &CustomError{
		Code:    http.StatusForbidden,
		Message: fmt.Sprintf(format, args...),
		Type:    "data.authorization",
		kind:    ErrPermissionDenied,
	}
}

// Conflict reports a unique constraint violation.
func Conflict(cause error, format string, args ...interface{}) *CustomError {
	return &CustomError{
		Code:    http.StatusConflict,
		Message: fmt.Sprintf(format, args...),
		Type:    "data.conflict",
		kind:    ErrConflict,
		cause:   cause,
	}
}
