package errors

// Standard error codes used across the engine. These mirror the error
// taxonomy in §7 of the specification so the dashboard and CLI can map
// DomainErrors directly to structured responses and exit codes.

const (
	// Generic codes
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeConflict     = "CONFLICT"
	CodeInternal     = "INTERNAL_ERROR"
	CodeRateLimit    = "RATE_LIMIT_EXCEEDED"
	CodeBadRequest   = "BAD_REQUEST"

	// Sync-specific codes (§7)
	CodeFetchTransient = "FETCH_TRANSIENT"
	CodeFetchPermanent = "FETCH_PERMANENT"
	CodeParseError     = "PARSE_ERROR"
	CodeFKUnresolved   = "FK_UNRESOLVED"
	CodeSchemaMissing  = "SCHEMA_MISSING"
	CodeStoreConflict  = "STORE_CONFLICT"
	CodeCancelled      = "CANCELLED"
)

