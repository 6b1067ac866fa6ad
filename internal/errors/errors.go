// Package errors provides the structured error type shared by the API and
// the worker. Every job failure is expressed as an AppError with a
// machine-readable code so status reads never surface a bare string.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried by resubmission.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// As extracts an *AppError from err, wrapping unknown errors as Internal.
func As(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// --- Constructors ---

// InvalidInput creates a new AppError for a missing or empty audio input.
func InvalidInput(reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// UnknownEngine creates a new AppError for an unrecognized engine name.
func UnknownEngine(engine string) *AppError {
	return &AppError{
		Code: ErrCodeUnknownEngine, Message: fmt.Sprintf("Unknown engine: %q", engine),
		HTTPStatus: http.StatusUnprocessableEntity, Retryable: false,
		Details: map[string]any{"engine": engine},
	}
}

// Timeout creates a new AppError for an engine run that exceeded the ceiling.
func Timeout(engine string, seconds float64) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: fmt.Sprintf("Transcription exceeded the %.0fs time limit.", seconds),
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
		Details: map[string]any{"engine": engine},
	}
}

// EngineExecution creates a new AppError for a non-zero engine exit.
func EngineExecution(engine, stderr string) *AppError {
	return &AppError{
		Code: ErrCodeEngineExecution, Message: fmt.Sprintf("%s exited with an error.", engine),
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
		Details: map[string]any{"engine": engine, "stderr": stderr},
	}
}

// EngineOutputMissing creates a new AppError for a missing output artifact.
// This signals a contract mismatch between the orchestrator and the engine
// version, not a transient failure.
func EngineOutputMissing(engine, artifact string) *AppError {
	return &AppError{
		Code: ErrCodeEngineOutputMissing, Message: fmt.Sprintf("%s exited cleanly but produced no output artifact.", engine),
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
		Details: map[string]any{"engine": engine, "artifact": artifact},
	}
}

// NotFound creates a new AppError for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Retryable: false, Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// Internal creates a new AppError for an unexpected error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}
