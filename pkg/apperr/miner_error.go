// Package apperr defines the structured error taxonomy of the pipeline.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Error codes
const (
	// Retryable upstream failures
	CodeTransientNetwork = "TRANSIENT_NETWORK"
	CodeServiceWarmingUp = "SERVICE_WARMING_UP"

	// Non-retryable in principle (current policy retries anyway, see retry pkg)
	CodeAuthError = "AUTH_ERROR"

	// Per-message conditions, never fatal to a pipeline
	CodeMalformedMessage   = "MALFORMED_MESSAGE"
	CodeConstraintConflict = "CONSTRAINT_CONFLICT"

	// Generic
	CodeBadRequest    = "BAD_REQUEST"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeDatabaseError = "DATABASE_ERROR"
	CodeExternalError = "EXTERNAL_ERROR"
	CodeInternalError = "INTERNAL_ERROR"
)

// AppError is a structured application error.
type AppError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Status  int            `json:"-"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`

	// RetryAfter is a provider-supplied wait hint, set for SERVICE_WARMING_UP.
	RetryAfter time.Duration `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code for the trigger surface.
func (e *AppError) HTTPStatus() int {
	if e.Status == 0 {
		return http.StatusInternalServerError
	}
	return e.Status
}

func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// Constructor functions

func New(code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, Status: status}
}

func Wrap(err error, code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, Status: status, Err: err}
}

// TransientNetwork wraps a retryable upstream failure.
func TransientNetwork(err error, upstream string) *AppError {
	return &AppError{
		Code:    CodeTransientNetwork,
		Message: fmt.Sprintf("transient %s failure", upstream),
		Status:  http.StatusBadGateway,
		Err:     err,
	}
}

// ServiceWarmingUp wraps a "model loading" style reply carrying the provider's
// wait hint.
func ServiceWarmingUp(upstream string, hint time.Duration) *AppError {
	return &AppError{
		Code:       CodeServiceWarmingUp,
		Message:    fmt.Sprintf("%s warming up, retry after %s", upstream, hint),
		Status:     http.StatusServiceUnavailable,
		RetryAfter: hint,
	}
}

// AuthError marks a credential failure that re-authentication must resolve.
func AuthError(err error, userEmail string) *AppError {
	return &AppError{
		Code:    CodeAuthError,
		Message: fmt.Sprintf("no valid credentials for %s", userEmail),
		Status:  http.StatusUnauthorized,
		Err:     err,
	}
}

// MalformedMessage marks a message that could not be decoded. The message is
// skipped and counted; the pipeline continues.
func MalformedMessage(err error, messageID string) *AppError {
	return &AppError{
		Code:    CodeMalformedMessage,
		Message: fmt.Sprintf("cannot decode message %s", messageID),
		Status:  http.StatusUnprocessableEntity,
		Err:     err,
	}
}

func Unauthorized(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return &AppError{Code: CodeUnauthorized, Message: message, Status: http.StatusUnauthorized}
}

func BadRequest(message string) *AppError {
	return &AppError{Code: CodeBadRequest, Message: message, Status: http.StatusBadRequest}
}

// Inspection helpers

// CodeOf returns the AppError code of err, or "" when err is not an AppError.
func CodeOf(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// WarmupHint returns the provider wait hint carried by err, if any.
func WarmupHint(err error) (time.Duration, bool) {
	var ae *AppError
	if errors.As(err, &ae) && ae.Code == CodeServiceWarmingUp {
		return ae.RetryAfter, true
	}
	return 0, false
}

// IsMalformed reports whether err marks an undecodable message.
func IsMalformed(err error) bool {
	return CodeOf(err) == CodeMalformedMessage
}

// IsAuth reports whether err marks a credential failure.
func IsAuth(err error) bool {
	return CodeOf(err) == CodeAuthError
}
