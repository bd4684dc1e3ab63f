// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case. Generic codes mirror HTTP status
// semantics; domain codes name the service error that produced them so
// clients can branch without parsing messages.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "conflict",
//	  "message": "welder \"Ivanov\": constraint violation"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeInvalidQuantity   = "invalid_quantity"
	ErrCodeMalformedSnapshot = "malformed_snapshot"
	ErrCodeImportAborted     = "import_aborted"
	ErrCodeExportFailed      = "export_failed"
)
