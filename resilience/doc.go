// Package resilience wraps remote operations in a fixed chain of
// protections: a deadline on the whole call, retry with backoff for
// transient failures, and normalization of every failure into the
// classified error taxonomy. The chain order never varies; the timeout
// bounds the entire call including retry sleeps.
package resilience
