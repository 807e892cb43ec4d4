package resilience

import (
	"context"
	"errors"

	"github.com/jonwraymond/boardbridge/ado"
)

// ErrorMapping is the innermost link of the chain. It guarantees that
// every failure leaving an operation is a classified error: already
// classified errors pass through untouched, deadline failures become
// timeout errors, and anything else becomes an unknown-kind error naming
// the operation.
type ErrorMapping struct {
	op string
}

// NewErrorMapping creates an error mapper for the named operation.
func NewErrorMapping(op string) *ErrorMapping {
	return &ErrorMapping{op: op}
}

// Execute runs op and normalizes its failure.
func (m *ErrorMapping) Execute(ctx context.Context, op func(context.Context) error) error {
	return m.Map(op(ctx))
}

// Map normalizes err into the classified taxonomy.
func (m *ErrorMapping) Map(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := ado.AsError(err); ok {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ado.NewTimeoutError(0, err)
	}
	return ado.NewUnknownError(m.op, err)
}
