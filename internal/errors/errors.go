// Package errors provides error handling utilities.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Type identifies the category of error
type Type string

const (
	// TypeValidation indicates malformed or out-of-range input
	TypeValidation Type = "VALIDATION_ERROR"

	// TypeConfig indicates a missing or invalid configuration value (e.g. encryption key)
	TypeConfig Type = "CONFIG_ERROR"

	// TypeEncryption indicates encryption could not be performed
	TypeEncryption Type = "ENCRYPTION_ERROR"

	// TypeDecryption indicates a malformed or tampered ciphertext envelope
	TypeDecryption Type = "DECRYPTION_ERROR"

	// TypeOverflow indicates an amount left the representable range
	TypeOverflow Type = "ARITHMETIC_OVERFLOW"

	// TypeConflict indicates a uniqueness violation
	TypeConflict Type = "CONFLICT"

	// TypeNotFound indicates a resource not found error
	TypeNotFound Type = "NOT_FOUND"

	// TypeInternal indicates an internal error
	TypeInternal Type = "INTERNAL_ERROR"
)

// Error represents a domain error with context
type Error struct {
	Type    Type                   `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same Type.
// This lets errors.Is(err, errors.New(TypeConflict, "")) match on category.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new error
func New(errType Type, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
	}
}

// Newf creates a new formatted error
func Newf(errType Type, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with context
func Wrap(errType Type, message string, cause error) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// TypeOf returns the Type of the first *Error in err's chain, or
// TypeInternal when there is none.
func TypeOf(err error) Type {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return TypeInternal
}

// IsType checks if an error is of a specific type
func IsType(err error, t Type) bool {
	if err == nil {
		return false
	}
	var e *Error
	return stderrors.As(err, &e) && e.Type == t
}

// HTTPStatus maps an error to the status code a request handler should return.
func HTTPStatus(err error) int {
	switch TypeOf(err) {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeOverflow, TypeDecryption:
		return http.StatusUnprocessableEntity
	case TypeConflict:
		return http.StatusConflict
	case TypeNotFound:
		return http.StatusNotFound
	case TypeConfig:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Validation creates a validation error
func Validation(message string) *Error {
	return New(TypeValidation, message)
}

// Validationf creates a formatted validation error
func Validationf(format string, args ...interface{}) *Error {
	return Newf(TypeValidation, format, args...)
}

// Config creates a configuration error
func Config(message string, cause error) *Error {
	return Wrap(TypeConfig, message, cause)
}

// Encryption creates an encryption error
func Encryption(message string, cause error) *Error {
	return Wrap(TypeEncryption, message, cause)
}

// Decryption creates a decryption error
func Decryption(message string, cause error) *Error {
	return Wrap(TypeDecryption, message, cause)
}

// Overflow creates an arithmetic overflow error
func Overflow(operation string) *Error {
	return Newf(TypeOverflow, "amount out of range in %s", operation)
}

// Conflict creates a conflict error
func Conflict(message string, cause error) *Error {
	return Wrap(TypeConflict, message, cause)
}

// NotFound creates a not found error
func NotFound(resourceType, identifier string) *Error {
	return Newf(TypeNotFound, "%s not found: %s", resourceType, identifier)
}

// Internal creates an internal error
func Internal(message string, cause error) *Error {
	return Wrap(TypeInternal, message, cause)
}
