package resilience

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jonwraymond/boardbridge/ado"
)

func TestErrorMapping_NilPassesThrough(t *testing.T) {
	m := NewErrorMapping("get_work_item")
	if err := m.Map(nil); err != nil {
		t.Errorf("Map(nil) = %v, want nil", err)
	}
}

func TestErrorMapping_ClassifiedPassesThrough(t *testing.T) {
	m := NewErrorMapping("get_work_item")

	in := ado.Classify(ado.Signal{Code: 403, Message: "forbidden"})
	out, ok := ado.AsError(m.Map(in))
	if !ok || out != in {
		t.Errorf("classified error should pass through unchanged, got %v", out)
	}
}

func TestErrorMapping_WrappedClassifiedPassesThrough(t *testing.T) {
	m := NewErrorMapping("get_work_item")

	inner := ado.Classify(ado.Signal{Code: 429})
	wrapped := fmt.Errorf("call failed: %w", inner)
	out := m.Map(wrapped)
	if !ado.IsKind(out, ado.KindRateLimited) {
		t.Errorf("wrapped classified error lost its kind: %v", out)
	}
}

func TestErrorMapping_DeadlineBecomesTimeout(t *testing.T) {
	m := NewErrorMapping("query_work_items")

	out := m.Map(context.DeadlineExceeded)
	if !ado.IsKind(out, ado.KindTimeout) {
		t.Errorf("Map(DeadlineExceeded) = %v, want timeout kind", out)
	}
}

func TestErrorMapping_UnknownNamesOperation(t *testing.T) {
	m := NewErrorMapping("create_work_item")

	out := m.Map(errors.New("wire snapped"))
	if !ado.IsKind(out, ado.KindUnknown) {
		t.Fatalf("Map = %v, want unknown kind", out)
	}
	if !strings.Contains(out.Error(), "create_work_item") {
		t.Errorf("unknown error should name the operation: %v", out)
	}
	if !strings.Contains(out.Error(), "wire snapped") {
		t.Errorf("unknown error should carry the cause: %v", out)
	}
}

func TestErrorMapping_Execute(t *testing.T) {
	m := NewErrorMapping("update_work_item")

	err := m.Execute(context.Background(), func(ctx context.Context) error {
		return errors.New("boom")
	})
	if !ado.IsKind(err, ado.KindUnknown) {
		t.Errorf("Execute error = %v, want unknown kind", err)
	}
}
