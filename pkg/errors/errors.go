package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Code identifies an error class that the API maps to a status and a
// client-facing message.
type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeIdempotency   Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit     Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"
)

// codeInfo drives the public rendering of each code. passMessage marks the
// error's own message safe to surface to clients; otherwise the fallback is
// sent. allowDetails gates the structured details payload the same way.
type codeInfo struct {
	status       int
	fallback     string
	passMessage  bool
	allowDetails bool
}

var infoByCode = map[Code]codeInfo{
	CodeValidation:    {http.StatusBadRequest, "validation failed", true, true},
	CodeUnauthorized:  {http.StatusUnauthorized, "authentication required", true, false},
	CodeForbidden:     {http.StatusForbidden, "access denied", true, false},
	CodeNotFound:      {http.StatusNotFound, "resource not found", true, false},
	CodeConflict:      {http.StatusConflict, "conflict detected", true, false},
	CodeStateConflict: {http.StatusUnprocessableEntity, "state transition disallowed", true, true},
	CodeIdempotency:   {http.StatusConflict, "idempotency key reused", true, true},
	CodeRateLimit:     {http.StatusTooManyRequests, "rate limit exceeded", true, false},
	CodeInternal:      {http.StatusInternalServerError, "internal server error", false, false},
	CodeDependency:    {http.StatusServiceUnavailable, "dependency unavailable", false, true},
}

func (c Code) info() codeInfo {
	if info, ok := infoByCode[c]; ok {
		return info
	}
	return infoByCode[CodeInternal]
}

// HTTPStatus maps the code to its response status. Unknown codes read as
// internal errors.
func (c Code) HTTPStatus() int {
	return c.info().status
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

// PublicMessage is what clients see. Internal and dependency failures hide
// the operator-facing message behind a canned one.
func (e *Error) PublicMessage() string {
	info := e.Code().info()
	if info.passMessage && e.Message() != "" {
		return e.Message()
	}
	return info.fallback
}

// PublicDetails returns the details payload when the code permits exposing
// it, nil otherwise.
func (e *Error) PublicDetails() any {
	if e == nil || !e.code.info().allowDetails {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As extracts the typed error from anywhere in err's chain, nil when absent.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}
