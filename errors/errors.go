package errors

import (
	stderrors "errors"
	"fmt"
)

// Sentinels for errors.Is comparisons. Matching is by code only.
var (
	ErrClosed          = &AppError{Code: ErrCodeClosed, Message: "closed"}
	ErrInvalidDemand   = &AppError{Code: ErrCodeInvalidDemand, Message: "invalid demand"}
	ErrExecutorStopped = &AppError{Code: ErrCodeExecutorStopped, Message: "executor stopped"}
)

// AppError is the unified error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
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

// Is reports whether target is an AppError with the same code.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !stderrors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

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

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// --- Constructors ---

// Closed creates an AppError for an operation on a closed resource.
func Closed(resource string) *AppError {
	return &AppError{
		Code: ErrCodeClosed, Message: fmt.Sprintf("The %s is closed.", resource),
		Details: map[string]any{"resource": resource},
	}
}

// Aborted creates an AppError describing a stream terminated by cause.
// Use it only for aborts the library initiates itself.
func Aborted(reason string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeAborted, Message: reason, Cause: cause,
	}
}

// ExecutorStopped creates an AppError for a task posted to an exited loop.
func ExecutorStopped(name string) *AppError {
	return &AppError{
		Code: ErrCodeExecutorStopped, Message: fmt.Sprintf("Executor %s is not running.", name),
		Details: map[string]any{"executor": name},
	}
}

// InvalidInput creates an AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		Details: details,
	}
}

// Validation creates an AppError for struct validation failures.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidInput, Message: message}
}

// InvalidDemand creates an AppError for a non-positive request amount.
func InvalidDemand(n int) *AppError {
	return &AppError{
		Code: ErrCodeInvalidDemand, Message: fmt.Sprintf("Request amount must be positive (got %d).", n),
		Details: map[string]any{"requested": n},
	}
}

// Internal creates an AppError for an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		Cause: cause,
	}
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
