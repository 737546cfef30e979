package constants

import (
	"fmt"
	"net/http"
)

// Machine-readable error kinds. Callers branch on these, never on message
// text.
const (
	KindValidation          = "validation_error"
	KindAuthorizationDenied = "authorization_denied"
	KindQueryTimeout        = "query_timeout"
	KindQueryFailed         = "query_failed"
	KindNotFound            = "not_found"
	KindInternal            = "internal"
)

// CodedError is an error carrying an HTTP-equivalent status code and a
// machine-readable kind. The API error handler unwraps to the outermost
// CodedError in a chain.
type CodedError struct {
	code    int
	kind    string
	message string
	cause   error
}

func NewCodedError(code int, kind, message string) *CodedError {
	return &CodedError{code: code, kind: kind, message: message}
}

func (e *CodedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s", e.message, e.cause.Error())
	}
	return e.message
}

func (e *CodedError) Code() int { return e.code }

// Message is the caller-safe message, without the underlying cause.
func (e *CodedError) Message() string { return e.message }

func (e *CodedError) Kind() string { return e.kind }

func (e *CodedError) Unwrap() error { return e.cause }

// WithCause returns a copy of e carrying cause for diagnostics. The cause is
// logged but never serialized to untrusted callers.
func (e *CodedError) WithCause(cause error) *CodedError {
	cp := *e
	cp.cause = cause
	return &cp
}

var (
	ErrDBNotFound   = NewCodedError(http.StatusNotFound, KindNotFound, "record not found")
	ErrUnauthorized = NewCodedError(http.StatusUnauthorized, KindAuthorizationDenied, "unauthorized")

	ErrQueryTimeout = NewCodedError(http.StatusGatewayTimeout, KindQueryTimeout, "query timed out")
	ErrQueryFailed  = NewCodedError(http.StatusInternalServerError, KindQueryFailed, "database query failed")
)

// ValidationError reports a malformed request, naming the offending field.
func ValidationError(field, message string) *CodedError {
	return NewCodedError(http.StatusBadRequest, KindValidation, fmt.Sprintf("%s: %s", field, message))
}

// AuthorizationDeniedError reports a geographic area outside the caller's
// authorized set.
func AuthorizationDeniedError(areaID string) *CodedError {
	return NewCodedError(http.StatusForbidden, KindAuthorizationDenied,
		fmt.Sprintf("geographic area %s is outside the caller's authorized set", areaID))
}

// InternalError reports a programmer error, e.g. an unsupported grouping
// dimension reaching the compiler.
func InternalError(message string) *CodedError {
	return NewCodedError(http.StatusInternalServerError, KindInternal, message)
}
