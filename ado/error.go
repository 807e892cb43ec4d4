package ado

import (
	"errors"
	"fmt"
	"time"
)

// Error is a classified remote failure. It is created once per failed call
// and never mutated afterwards.
//
// Details may carry structured context (work item ID, result counts). It
// must never contain raw credential values; anything derived from a caught
// exception is sanitized before logging.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	RetryAfter time.Duration // only set for rate limiting
	Details    map[string]any
	cause      error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("[%d] %s", e.StatusCode, e.Message)
	}
	return e.Message
}

// Unwrap exposes the original transport error for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.cause
}

// Retryable reports whether the resilience chain may re-attempt the call.
func (e *Error) Retryable() bool {
	return e.Kind.Retryable()
}

// AsError extracts a classified error from an error chain.
func AsError(err error) (*Error, bool) {
	var adoErr *Error
	if errors.As(err, &adoErr) {
		return adoErr, true
	}
	return nil, false
}

// IsKind reports whether err carries the given classification.
func IsKind(err error, kind Kind) bool {
	adoErr, ok := AsError(err)
	return ok && adoErr.Kind == kind
}

// NewTimeoutError builds the classification raised when an operation
// deadline elapses. Callers must treat it as "outcome unknown": a mutation
// dispatched before cancellation may still have been applied upstream.
func NewTimeoutError(timeout time.Duration, cause error) *Error {
	msg := "request timed out; the service may be slow or the query too complex"
	details := map[string]any(nil)
	if timeout > 0 {
		msg = fmt.Sprintf(
			"request timeout after %s; the service may be slow or the query too complex", timeout)
		details = map[string]any{"timeout_seconds": timeout.Seconds()}
	}
	return &Error{
		Kind:       KindTimeout,
		StatusCode: 408,
		Message:    msg,
		Details:    details,
		cause:      cause,
	}
}

// NewUnknownError wraps a failure that carries no status signal at all.
func NewUnknownError(context string, cause error) *Error {
	msg := "unexpected error"
	if context != "" {
		msg = fmt.Sprintf("unexpected error in %s", context)
	}
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return &Error{Kind: KindUnknown, Message: msg, cause: cause}
}

// NewQueryTooLargeError is raised locally when a query matches more items
// than the upstream result cap, before any batch fetch is attempted.
func NewQueryTooLargeError(resultCount int) *Error {
	return &Error{
		Kind:       KindQueryTooLarge,
		StatusCode: 413,
		Message: fmt.Sprintf(
			"query matched %d items (max %d); add a TOP clause or more specific filters",
			resultCount, MaxQueryResults),
		Details: map[string]any{"result_count": resultCount, "max_results": MaxQueryResults},
	}
}

// NewNotFoundError builds a 404 classification for a specific work item.
func NewNotFoundError(workItemID int, cause error) *Error {
	msg := "work item not found; verify the ID exists and you have access"
	details := map[string]any(nil)
	if workItemID > 0 {
		msg = fmt.Sprintf("work item %d not found; verify it exists and you have access", workItemID)
		details = map[string]any{"work_item_id": workItemID}
	}
	return &Error{Kind: KindNotFound, StatusCode: 404, Message: msg, Details: details, cause: cause}
}
