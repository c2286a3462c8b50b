package service

import (
	"errors"
	"fmt"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check for them with errors.Is; the API layer maps them to HTTP
// status codes.
var (
	// ErrUnknownStudents indicates that a request referenced student IDs that
	// do not exist. API layer should map this to HTTP 400 Bad Request.
	ErrUnknownStudents = errors.New("unknown students")

	// ErrInvalidSpreadsheet indicates that an uploaded file could not be read
	// as an xlsx workbook. API layer should map this to HTTP 400 Bad Request.
	ErrInvalidSpreadsheet = errors.New("invalid spreadsheet")
)

// ServiceError wraps errors from a service operation with context.
type ServiceError struct {
	// Service is the service that failed (e.g., "course", "student")
	Service string
	// Operation is the operation that failed (e.g., "create", "import")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s failed: %s: %v", e.Service, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s service %s failed: %s", e.Service, e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// newServiceError wraps err, returning nil for a nil err.
func newServiceError(service, operation, message string, err error) error {
	if err == nil {
		return nil
	}
	return &ServiceError{
		Service:   service,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
