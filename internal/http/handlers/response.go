// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response helpers shared by all endpoints. Every
// error is written as an ErrorResponse with a stable code; 5xx responses are
// also logged through the request-scoped logger.
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "record 42: not found"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/welder-tracker/internal/http/middleware"
	"github.com/tbourn/welder-tracker/internal/services"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code"`
	// Human-readable message
	Message string `json:"message"`
}

// fail aborts the request with a structured error. Server errors are logged.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	}
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail().
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failErr maps a service error onto status and code:
//
//	ErrConstraintViolation        → 409 conflict
//	ErrNotFound                   → 404 not_found
//	ErrInvalidQuantity            → 400 invalid_quantity
//	ErrEmptyName, ErrEmptyArticle → 400 bad_request
//	ErrMalformedSnapshot          → 400 malformed_snapshot
//	ErrImportAborted              → 409 import_aborted
//	anything else                 → 500 with fallback code
func failErr(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrConstraintViolation):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, services.ErrNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidQuantity):
		fail(c, http.StatusBadRequest, ErrCodeInvalidQuantity, err.Error())
	case errors.Is(err, services.ErrEmptyName), errors.Is(err, services.ErrEmptyArticle):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrMalformedSnapshot):
		fail(c, http.StatusBadRequest, ErrCodeMalformedSnapshot, err.Error())
	case errors.Is(err, services.ErrImportAborted):
		fail(c, http.StatusConflict, ErrCodeImportAborted, err.Error())
	default:
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, fallback, "internal server error")
	}
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes an HTTP 204 No Content response.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
