package ado

// Kind classifies a remote failure into a fixed taxonomy. Every error that
// leaves the bridge core carries exactly one Kind.
type Kind string

const (
	KindBadRequest    Kind = "bad_request"
	KindUnauthorized  Kind = "unauthorized"
	KindForbidden     Kind = "forbidden"
	KindNotFound      Kind = "not_found"
	KindConflict      Kind = "conflict"
	KindTimeout       Kind = "timeout"
	KindRateLimited   Kind = "rate_limited"
	KindQueryTooLarge Kind = "query_too_large"
	KindTransient     Kind = "transient"
	KindUnknown       Kind = "unknown"
)

// Retryable reports whether operations failing with this kind may be
// re-attempted. Only rate limiting and transient server failures qualify;
// everything else surfaces immediately.
func (k Kind) Retryable() bool {
	return k == KindRateLimited || k == KindTransient
}

func (k Kind) String() string {
	return string(k)
}
