// internal/core/errors_test.go
package core

import (
	"errors"
	"testing"
)

func TestError_Error(t *testing.T) {
	err := &Error{Code: "TEST_ERROR", Message: "test message"}
	if err.Error() != "[TEST_ERROR] test message" {
		t.Errorf("unexpected error string: %s", err.Error())
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{Code: "WRAP", Message: "wrapped", Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("Unwrap should return cause")
	}
}

func TestError_Is(t *testing.T) {
	if !errors.Is(ErrBudgetExceeded, ErrBudgetExceeded) {
		t.Error("same error should match")
	}
	if errors.Is(ErrBudgetExceeded, ErrAllProvidersFailed) {
		t.Error("different codes should not match")
	}
}

func TestWrapError(t *testing.T) {
	cause := errors.New("original")
	wrapped := WrapError(ErrAllProvidersFailed, cause)
	if wrapped.Cause != cause {
		t.Error("cause not set")
	}
	if wrapped.Code != ErrAllProvidersFailed.Code {
		t.Error("code not preserved")
	}
}

func TestErrorKind_Transient(t *testing.T) {
	transient := []ErrorKind{KindUnavailable, KindRateLimited, KindInternal, KindProtocol}
	for _, k := range transient {
		if !k.Transient() {
			t.Errorf("expected %s to be transient", k)
		}
	}

	terminal := []ErrorKind{KindAuth, KindModelNotFound, KindContentFiltered, KindCancelled}
	for _, k := range terminal {
		if k.Transient() {
			t.Errorf("expected %s to be non-transient", k)
		}
	}
}

func TestDriverError_Error(t *testing.T) {
	err := &DriverError{Provider: "azure", Kind: KindUnavailable, Message: "connection refused"}
	want := "azure: unavailable (connection refused)"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestMultiError_Error(t *testing.T) {
	m := &MultiError{Failures: []FailureRecord{
		{Provider: "azure", Kind: KindUnavailable, Message: "timeout"},
		{Provider: "aws", Kind: KindRateLimited, Message: "429"},
	}}
	got := m.Error()
	if got != "azure=unavailable(timeout); aws=rate_limited(429)" {
		t.Errorf("unexpected message: %s", got)
	}
}
