package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

const (
	CodeValidation          = "VALIDATION_FAILED"
	CodeNotFound            = "NOT_FOUND"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeAccessDenied        = "ACCESS_DENIED"
	CodeConflict            = "CONFLICT"
	CodeRetryExhausted      = "CONFLICT_RETRY_EXHAUSTED"
	CodeTooManyRequests     = "TOO_MANY_REQUESTS"
	CodeInternal            = "INTERNAL_ERROR"
	internalMessage         = "internal server error"
	retryExhaustedMessageFm = "transaction aborted after %d conflicting attempts"
)

// ErrWiring marks a service operation that was composed incorrectly, e.g. an
// authorization middleware running without a connection in scope. It is a
// programming defect and is never shown to clients.
var ErrWiring = errors.New("service wiring error")

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

// NewAccessDenied reports a resolved principal lacking the required privileges.
func NewAccessDenied(message string) error {
	return NewDomainError(CodeAccessDenied, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

// NewRetryExhausted wraps the last conflict observed by a retrying transaction.
func NewRetryExhausted(attempts int, last error) error {
	return &DomainError{
		Code:       CodeRetryExhausted,
		Message:    fmt.Sprintf(retryExhaustedMessageFm, attempts),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"attempts": attempts},
		Err:        last,
	}
}

func NewTooManyRequests(message string) error {
	return NewDomainError(CodeTooManyRequests, message, http.StatusTooManyRequests, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    internalMessage,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewWiringError returns an error wrapping ErrWiring.
func NewWiringError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrWiring, fmt.Sprintf(format, args...))
}

// HasCode reports whether err carries a DomainError with the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

func IsUnauthorized(err error) bool { return HasCode(err, CodeUnauthorized) }

func IsAccessDenied(err error) bool { return HasCode(err, CodeAccessDenied) }

func IsRetryExhausted(err error) bool { return HasCode(err, CodeRetryExhausted) }

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	if de, ok := NewInternalError(err).(*DomainError); ok {
		return de
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    internalMessage,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
