package ado

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultRetryAfter is used when a 429 response carries a Retry-After header
// that cannot be parsed as an integer second count.
const DefaultRetryAfter = 60 * time.Second

// MaxQueryResults is the upstream cap on WIQL result sets.
const MaxQueryResults = 20000

// Signal is the normalized shape of a transport failure. The REST client is
// the single place that builds one; nothing else in the core inspects raw
// responses or probes exception attributes.
type Signal struct {
	Code    int
	Headers map[string]string
	Message string
	Cause   error
}

// Classify maps a failure signal onto the error taxonomy. It never fails;
// unrecognized codes become KindUnknown.
func Classify(sig Signal) *Error {
	switch {
	case sig.Code == 400:
		msg := "bad request; check your input values"
		if sig.Message != "" {
			msg = "bad request: " + sig.Message
		}
		return &Error{Kind: KindBadRequest, StatusCode: 400, Message: msg, cause: sig.Cause}

	case sig.Code == 401:
		return &Error{
			Kind:       KindUnauthorized,
			StatusCode: 401,
			Message:    "authentication failed; your token may have expired, refresh credentials",
			cause:      sig.Cause,
		}

	case sig.Code == 403:
		return &Error{
			Kind:       KindForbidden,
			StatusCode: 403,
			Message:    "permission denied; check your credentials and project permissions",
			cause:      sig.Cause,
		}

	case sig.Code == 404:
		return NewNotFoundError(0, sig.Cause)

	case sig.Code == 408:
		return &Error{
			Kind:       KindTimeout,
			StatusCode: 408,
			Message:    "request timed out upstream; the service may be slow or the query too complex",
			cause:      sig.Cause,
		}

	case sig.Code == 409:
		return &Error{
			Kind:       KindConflict,
			StatusCode: 409,
			Message:    "conflict detected; the resource has been modified by another user",
			cause:      sig.Cause,
		}

	case sig.Code == 413:
		return &Error{
			Kind:       KindQueryTooLarge,
			StatusCode: 413,
			Message: fmt.Sprintf(
				"query result too large (max %d items); add a TOP clause or more specific filters",
				MaxQueryResults),
			Details: map[string]any{"max_results": MaxQueryResults},
			cause:   sig.Cause,
		}

	case sig.Code == 429:
		retryAfter := parseRetryAfter(sig.Headers)
		msg := "rate limit exceeded; retry after a brief delay"
		details := map[string]any(nil)
		if retryAfter > 0 {
			msg = fmt.Sprintf("rate limit exceeded; retry after %s", retryAfter)
			details = map[string]any{"retry_after_seconds": retryAfter.Seconds()}
		}
		return &Error{
			Kind:       KindRateLimited,
			StatusCode: 429,
			Message:    msg,
			RetryAfter: retryAfter,
			Details:    details,
			cause:      sig.Cause,
		}

	case sig.Code >= 500 && sig.Code <= 599:
		return &Error{
			Kind:       KindTransient,
			StatusCode: sig.Code,
			Message: fmt.Sprintf(
				"service temporarily unavailable (HTTP %d); this failure is transient", sig.Code),
			cause: sig.Cause,
		}

	default:
		msg := fmt.Sprintf("remote API error: HTTP %d", sig.Code)
		if sig.Message != "" {
			msg = fmt.Sprintf("%s: %s", msg, sig.Message)
		}
		return &Error{
			Kind:       KindUnknown,
			StatusCode: sig.Code,
			Message:    msg,
			Details:    map[string]any{"status_code": sig.Code},
			cause:      sig.Cause,
		}
	}
}

// parseRetryAfter reads a Retry-After style header as an integer second
// count. HTTP-date or garbage values fall back to DefaultRetryAfter; a
// missing header yields zero (no hint, backoff decides the delay).
func parseRetryAfter(headers map[string]string) time.Duration {
	for key, value := range headers {
		if !strings.EqualFold(key, "Retry-After") {
			continue
		}
		secs, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || secs < 0 {
			return DefaultRetryAfter
		}
		return time.Duration(secs) * time.Second
	}
	return 0
}
