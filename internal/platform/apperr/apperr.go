// Copyright (c) 2026 Subly. All rights reserved.

/*
Package apperr defines the centralized error handling framework for Subly.

It provides a rich error type that bridges the gap between low-level Domain/Storage
errors and high-level HTTP responses.

Architecture:

  - AppError: A struct containing machine-readable ErrorCode and user-friendly messages.
  - Taxonomy: Credential, permission, gateway, and webhook failures each carry a
    distinct code so that API clients can branch on them.
  - Mapping: Explicit mapping from AppError to standard HTTP Status Codes.

Every error that leaves the service layer should be wrapped as an [AppError] to ensure
consistent API responses.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the canonical error type for the Subly API.
//
// It carries an HTTP status code, a machine-readable code, a client-safe
// message, and an optional slice of field-level validation errors.
//
// # Security
//
// The Cause field is for server-side logging only and is never sent to clients
// to avoid leaking internal implementation details (e.g., SQL queries).
type AppError struct {
	// Code is a machine-readable error identifier (e.g. "NOT_FOUND", "FORBIDDEN").
	Code string `json:"code"`
	// Message is a human-readable description safe to return to the client.
	Message string `json:"error"`
	// HTTPStatus is the HTTP response status code.
	HTTPStatus int `json:"-"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
	// Details holds per-field validation errors for VALIDATION_ERROR responses.
	Details []FieldError `json:"details,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	// Field is the JSON field name that failed validation.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// # Credential Errors (401)

// MissingCredential creates a 401 [AppError] for an absent or malformed
// Authorization header. The bearer scheme and a non-empty value are both
// required; anything else is treated as "no credential".
func MissingCredential() *AppError {
	return &AppError{
		Code:       "MISSING_CREDENTIAL",
		Message:    "Missing or malformed authorization credential",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// InvalidCredential creates a 401 [AppError] for a well-formed credential
// that failed signature, expiry, or claims verification.
func InvalidCredential(cause error) *AppError {
	return &AppError{
		Code:       "INVALID_CREDENTIAL",
		Message:    "Invalid or expired credential",
		HTTPStatus: http.StatusUnauthorized,
		Cause:      cause,
	}
}

// NoActiveSession creates a 401 [AppError] for an absent or expired
// cookie-backed session record.
func NoActiveSession() *AppError {
	return &AppError{
		Code:       "NO_ACTIVE_SESSION",
		Message:    "No active session",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// # Client Errors (4xx)

// NotFound creates a 404 [AppError] for a named resource.
//
// Example:
//
//	apperr.NotFound("User") // Returns "User not found"
func NotFound(resource string) *AppError {
	return &AppError{
		Code:       "NOT_FOUND",
		Message:    resource + " not found",
		HTTPStatus: http.StatusNotFound,
	}
}

// Unauthorized creates a 401 [AppError].
func Unauthorized(msg string) *AppError {
	return &AppError{
		Code:       "UNAUTHORIZED",
		Message:    msg,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// Forbidden creates a 403 [AppError] for a role below the operation's requirement.
func Forbidden(msg string) *AppError {
	return &AppError{
		Code:       "FORBIDDEN",
		Message:    msg,
		HTTPStatus: http.StatusForbidden,
	}
}

// Conflict creates a 409 [AppError] for duplicate or unique-constraint violations.
func Conflict(msg string) *AppError {
	return &AppError{
		Code:       "CONFLICT",
		Message:    msg,
		HTTPStatus: http.StatusConflict,
	}
}

// ValidationError creates a 400 [AppError] with optional per-field details.
func ValidationError(msg string, details ...FieldError) *AppError {
	return &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// RateLimited creates a 429 [AppError].
func RateLimited(retryAfterSeconds int) *AppError {
	return &AppError{
		Code:       "RATE_LIMITED",
		Message:    fmt.Sprintf("Too many requests. Try again in %ds.", retryAfterSeconds),
		HTTPStatus: http.StatusTooManyRequests,
	}
}

// # Payment Errors

// Gateway creates an [AppError] that surfaces a payment-processor failure
// verbatim. The processor's message is part of the contract visible to the
// frontend, so it is NOT rewritten; only the cause stays server-side.
func Gateway(httpStatus int, processorMessage string, cause error) *AppError {
	if httpStatus == 0 {
		httpStatus = http.StatusBadGateway
	}
	return &AppError{
		Code:       "GATEWAY_ERROR",
		Message:    processorMessage,
		HTTPStatus: httpStatus,
		Cause:      cause,
	}
}

// WebhookVerification creates a 400 [AppError] for a webhook payload that
// failed signature verification or decoding. The fixed "Webhook Error:"
// prefix is part of the endpoint's contract.
func WebhookVerification(cause error) *AppError {
	return &AppError{
		Code:       "WEBHOOK_VERIFICATION_ERROR",
		Message:    "Webhook Error: " + cause.Error(),
		HTTPStatus: http.StatusBadRequest,
		Cause:      cause,
	}
}

// # Server Errors (5xx)

// Internal creates a 500 [AppError] wrapping an unexpected server-side error.
// The cause is stored for logging but is never sent to the client.
func Internal(cause error) *AppError {
	return &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// ServiceUnavailable creates a 503 [AppError] for maintenance mode.
func ServiceUnavailable(msg string) *AppError {
	return &AppError{
		Code:       "SERVICE_UNAVAILABLE",
		Message:    msg,
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}
