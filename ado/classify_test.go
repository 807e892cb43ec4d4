package ado

import (
	"errors"
	"testing"
	"time"
)

func TestClassify_StatusMapping(t *testing.T) {
	cases := []struct {
		code      int
		kind      Kind
		retryable bool
	}{
		{400, KindBadRequest, false},
		{401, KindUnauthorized, false},
		{403, KindForbidden, false},
		{404, KindNotFound, false},
		{408, KindTimeout, false},
		{409, KindConflict, false},
		{413, KindQueryTooLarge, false},
		{429, KindRateLimited, true},
		{500, KindTransient, true},
		{502, KindTransient, true},
		{503, KindTransient, true},
		{504, KindTransient, true},
		{418, KindUnknown, false},
	}

	for _, tc := range cases {
		err := Classify(Signal{Code: tc.code})
		if err.Kind != tc.kind {
			t.Errorf("Classify(%d).Kind = %v, want %v", tc.code, err.Kind, tc.kind)
		}
		if err.Retryable() != tc.retryable {
			t.Errorf("Classify(%d).Retryable() = %v, want %v", tc.code, err.Retryable(), tc.retryable)
		}
	}
}

func TestClassify_RetryAfterHeader(t *testing.T) {
	t.Run("integer seconds", func(t *testing.T) {
		err := Classify(Signal{Code: 429, Headers: map[string]string{"Retry-After": "30"}})
		if err.RetryAfter != 30*time.Second {
			t.Errorf("RetryAfter = %v, want 30s", err.RetryAfter)
		}
	})

	t.Run("case insensitive header", func(t *testing.T) {
		err := Classify(Signal{Code: 429, Headers: map[string]string{"retry-after": "15"}})
		if err.RetryAfter != 15*time.Second {
			t.Errorf("RetryAfter = %v, want 15s", err.RetryAfter)
		}
	})

	t.Run("unparseable falls back to 60s", func(t *testing.T) {
		err := Classify(Signal{Code: 429, Headers: map[string]string{"Retry-After": "Wed, 21 Oct 2026 07:28:00 GMT"}})
		if err.RetryAfter != DefaultRetryAfter {
			t.Errorf("RetryAfter = %v, want %v", err.RetryAfter, DefaultRetryAfter)
		}
	})

	t.Run("missing header yields no hint", func(t *testing.T) {
		err := Classify(Signal{Code: 429})
		if err.RetryAfter != 0 {
			t.Errorf("RetryAfter = %v, want 0", err.RetryAfter)
		}
	})
}

func TestClassify_UnknownKeepsRawCode(t *testing.T) {
	err := Classify(Signal{Code: 418, Message: "teapot"})
	if err.StatusCode != 418 {
		t.Errorf("StatusCode = %d, want 418", err.StatusCode)
	}
	if got := err.Details["status_code"]; got != 418 {
		t.Errorf("Details[status_code] = %v, want 418", got)
	}
}

func TestClassify_PreservesCause(t *testing.T) {
	cause := errors.New("wrapped transport failure")
	err := Classify(Signal{Code: 503, Cause: cause})
	if !errors.Is(err, cause) {
		t.Error("classified error should unwrap to the original cause")
	}
}

func TestError_Format(t *testing.T) {
	err := &Error{Kind: KindNotFound, StatusCode: 404, Message: "work item 7 not found"}
	want := "[404] work item 7 not found"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	noCode := &Error{Kind: KindUnknown, Message: "boom"}
	if noCode.Error() != "boom" {
		t.Errorf("Error() = %q, want %q", noCode.Error(), "boom")
	}
}

func TestIsKind(t *testing.T) {
	err := Classify(Signal{Code: 429})
	if !IsKind(err, KindRateLimited) {
		t.Error("IsKind should match the classified kind")
	}
	if IsKind(err, KindTransient) {
		t.Error("IsKind should not match a different kind")
	}
	if IsKind(errors.New("plain"), KindUnknown) {
		t.Error("IsKind should be false for unclassified errors")
	}
}

func TestNewTimeoutError(t *testing.T) {
	err := NewTimeoutError(30*time.Second, nil)
	if err.Kind != KindTimeout {
		t.Errorf("Kind = %v, want timeout", err.Kind)
	}
	if err.Retryable() {
		t.Error("timeout must not be retryable")
	}
	if err.Details["timeout_seconds"] != 30.0 {
		t.Errorf("Details[timeout_seconds] = %v, want 30", err.Details["timeout_seconds"])
	}
}
