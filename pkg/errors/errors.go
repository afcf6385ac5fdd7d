package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the category of an error
type ErrorType string

const (
	// ErrorTypeConnection means the record store is unreachable or the handshake failed.
	ErrorTypeConnection ErrorType = "CONNECTION"
	// ErrorTypeValidation means a malformed record or request.
	ErrorTypeValidation ErrorType = "VALIDATION"
	// ErrorTypeNotFound means the identifier has no matching record.
	ErrorTypeNotFound ErrorType = "NOT_FOUND"
	// ErrorTypeStore means an unexpected failure against an otherwise ready connection.
	ErrorTypeStore ErrorType = "STORE"
)

// AppError is the custom error type for the application
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewConnection creates a connection error carrying the underlying cause
func NewConnection(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeConnection,
		Message: message,
		Err:     err,
	}
}

// NewValidation creates a validation error
func NewValidation(message string) error {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewNotFound creates a not found error
func NewNotFound(message string) error {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewStore creates a store error
func NewStore(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeStore,
		Message: message,
		Err:     err,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	// If it's already an AppError, preserve the type
	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{
			Type:    appErr.Type,
			Message: fmt.Sprintf("%s: %s", message, appErr.Message),
			Err:     appErr.Err,
		}
	}

	return &AppError{
		Type:    ErrorTypeStore,
		Message: message,
		Err:     err,
	}
}

// TypeOf returns the error type, or the empty string for foreign errors
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsConnection checks if an error is a connection error
func IsConnection(err error) bool {
	return TypeOf(err) == ErrorTypeConnection
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return TypeOf(err) == ErrorTypeValidation
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return TypeOf(err) == ErrorTypeNotFound
}

// IsStore checks if an error is a store error
func IsStore(err error) bool {
	return TypeOf(err) == ErrorTypeStore
}

// HTTPStatus maps an error to its HTTP status code. Errors that are not
// AppErrors are treated as store failures.
func HTTPStatus(err error) int {
	switch TypeOf(err) {
	case ErrorTypeConnection:
		return http.StatusServiceUnavailable
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing message of an error.
func Message(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
