package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Lifecycle errors
const (
	// ErrCodeClosed indicates an operation on a queue that no longer accepts values.
	ErrCodeClosed ErrorCode = "CLOSED"
	// ErrCodeAborted indicates the stream was terminated with an error.
	ErrCodeAborted ErrorCode = "ABORTED"
	// ErrCodeExecutorStopped indicates a task was posted to a loop that has exited.
	ErrCodeExecutorStopped ErrorCode = "EXECUTOR_STOPPED"
	// ErrCodeFull indicates a non-blocking push found no room. Retrying later may succeed.
	ErrCodeFull ErrorCode = "FULL"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeInvalidDemand indicates a subscriber requested a non-positive amount.
	ErrCodeInvalidDemand ErrorCode = "INVALID_DEMAND"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected internal failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeExecutorStopped: false,
	ErrCodeClosed:          false,
	ErrCodeInternal:        false,
	ErrCodeFull:            true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
