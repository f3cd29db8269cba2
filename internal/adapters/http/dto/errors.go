// Package dto provides the request and response bodies of the gateway API.
// DTOs convert to and from domain types; handlers never expose domain structs.
package dto

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// ErrorResponse is the error envelope of every non-2xx gateway response.
type ErrorResponse struct {
	Error   ErrorDetail `json:"error"`
	TraceID string      `json:"traceId,omitempty"`
}

// ErrorDetail contains the error information.
type ErrorDetail struct {
	// Code is a machine-readable error code (e.g., "NOT_FOUND", "VALIDATION_ERROR").
	Code string `json:"code"`

	// Message is a human-readable error message.
	Message string `json:"message"`

	// Details carries field-level validation messages, or the upstream
	// status and code of a classified EcoMarket failure.
	Details map[string]string `json:"details,omitempty"`
}

// Error codes of the gateway API.
const (
	ErrorCodeBadRequest   = "BAD_REQUEST"
	ErrorCodeValidation   = "VALIDATION_ERROR"
	ErrorCodeUnauthorized = "UNAUTHORIZED"
	ErrorCodeNotFound     = "NOT_FOUND"
	ErrorCodeConflict     = "CONFLICT"

	// ErrorCodeUpstream means EcoMarket answered with a failure or an
	// unexpected response.
	ErrorCodeUpstream = "UPSTREAM_ERROR"

	// ErrorCodeUnavailable means EcoMarket could not be reached.
	ErrorCodeUnavailable = "SERVICE_UNAVAILABLE"

	ErrorCodeInternal = "INTERNAL_ERROR"
)

// NewErrorResponse creates a new error response with the given code and message.
func NewErrorResponse(code, message string) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	}
}

// NewErrorResponseWithDetails creates an error response with additional details.
func NewErrorResponseWithDetails(code, message string, details map[string]string) *ErrorResponse {
	resp := NewErrorResponse(code, message)
	if len(details) > 0 {
		resp.Error.Details = details
	}

	return resp
}

// WithTraceID sets the trace ID and returns e.
func (e *ErrorResponse) WithTraceID(traceID string) *ErrorResponse {
	e.TraceID = traceID
	return e
}

// TraceID returns the OpenTelemetry trace ID of ctx, or "".
func TraceID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}

	return ""
}
