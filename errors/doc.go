// Package errors provides the structured error type used across pubqueue.
//
// Every failure the library itself produces is an *AppError carrying a
// machine-readable ErrorCode, optional details and an optional cause.
// Errors supplied by the application (for example the reason passed to
// Queue.Abort) are never wrapped: subscribers receive them verbatim.
//
// AppError values compare by code through errors.Is, so callers can test
// against the exported sentinels:
//
//	if errors.Is(err, pqerrors.ErrClosed) {
//	    // the queue was closed while Push was waiting
//	}
package errors
