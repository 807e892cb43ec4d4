package health

import "errors"

var (
	// ErrCheckFailed indicates a health check failed.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout indicates a health check ran past its deadline.
	ErrCheckTimeout = errors.New("health: check timeout")
)
