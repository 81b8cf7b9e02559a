package errors

import (
	"fmt"

	"github.com/google/uuid"
)

// DomainError represents a structured domain-level error that can be
// converted into an HTTP response and logged with context.
type DomainError struct {
	Code    string                 // Stable machine-readable error code
	Message string                 // Human-readable message (safe for clients)
	Details map[string]interface{} // Optional structured details
	Cause   error                  // Wrapped underlying error (not exposed directly)
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithDetails attaches structured details to the error.
func (e *DomainError) WithDetails(details map[string]interface{}) *DomainError {
	e.Details = details
	return e
}

// WithCause wraps an underlying cause error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// Predefined generic domain errors.
var (
	ErrNotFound     = &DomainError{Code: CodeNotFound, Message: "resource not found"}
	ErrUnauthorized = &DomainError{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrForbidden    = &DomainError{Code: CodeForbidden, Message: "forbidden"}
	ErrValidation   = &DomainError{Code: CodeValidation, Message: "validation failed"}
	ErrConflict     = &DomainError{Code: CodeConflict, Message: "resource conflict"}
)

// Helper constructors for common domain-specific errors.

func ErrSourceNotFound(id uuid.UUID) *DomainError {
	return &DomainError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("source with ID %s not found", id),
		Details: map[string]interface{}{"source_id": id},
	}
}

func ErrBodyNotFound(id uuid.UUID) *DomainError {
	return &DomainError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("body with ID %s not found", id),
		Details: map[string]interface{}{"body_id": id},
	}
}

// ErrSchemaMissing is fatal: the sentinel table the engine expects to find
// on startup (§6.3) is absent. The caller should abort before any job starts.
func ErrSchemaMissing(table string) *DomainError {
	return &DomainError{
		Code:    CodeSchemaMissing,
		Message: fmt.Sprintf("sentinel table %q not found; run `oparlsync migrate up` first", table),
		Details: map[string]interface{}{"table": table},
	}
}

// ErrCancelled wraps a context cancellation as a DomainError so it can be
// reported alongside other job errors instead of propagating as a bare
// context.Canceled.
func ErrCancelled(cause error) *DomainError {
	return &DomainError{Code: CodeCancelled, Message: "sync cancelled", Cause: cause}
}

// ErrFetchTransient wraps a retryable HTTP failure once retries are exhausted.
func ErrFetchTransient(url string, cause error) *DomainError {
	return &DomainError{
		Code:    CodeFetchTransient,
		Message: fmt.Sprintf("transient fetch failure for %s", url),
		Details: map[string]interface{}{"url": url},
		Cause:   cause,
	}
}

// ErrFetchPermanent wraps a non-retryable HTTP failure (4xx other than 429,
// or a malformed response body).
func ErrFetchPermanent(url string, cause error) *DomainError {
	return &DomainError{
		Code:    CodeFetchPermanent,
		Message: fmt.Sprintf("permanent fetch failure for %s", url),
		Details: map[string]interface{}{"url": url},
		Cause:   cause,
	}
}

