package errors

import (
	"fmt"
	"testing"
)

func TestLedgerError(t *testing.T) {
	err := NewLedgerError("cannot pause", ErrTaskNotFound).WithTask("ab12")

	if !Is(err, ErrTaskNotFound) {
		t.Error("wrapped sentinel should match via Is")
	}
	want := "cannot pause (task ab12): task not found"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestLedgerError_NoCause(t *testing.T) {
	err := NewLedgerError("bad state", nil)
	if err.Error() != "bad state" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if Unwrap(err) != nil {
		t.Error("no cause to unwrap")
	}
}

func TestStoreError(t *testing.T) {
	cause := New("permission denied")
	err := NewStoreError("save failed", cause).WithPath("/tmp/session.json")

	if !Is(err, cause) {
		t.Error("wrapped cause should match via Is")
	}
	want := "save failed (/tmp/session.json): permission denied"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("task", "ab12")
	if err.Error() != `task "ab12" not found` {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !Is(err, ErrTaskNotFound) {
		t.Error("task not-found should match the sentinel")
	}
	if Is(NewNotFoundError("rule", "r1"), ErrTaskNotFound) {
		t.Error("non-task not-found must not match the task sentinel")
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(NewNotFoundError("task", "x")) {
		t.Error("NotFoundError should be not-found")
	}
	if !IsNotFound(fmt.Errorf("lookup: %w", ErrTaskNotFound)) {
		t.Error("wrapped sentinel should be not-found")
	}
	if IsNotFound(New("boom")) {
		t.Error("arbitrary error should not be not-found")
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("idle_threshold", "must be positive")
	if err.Error() != "invalid idle_threshold: must be positive" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestAs(t *testing.T) {
	var le *LedgerError
	err := fmt.Errorf("outer: %w", NewLedgerError("inner", nil))
	if !As(err, &le) {
		t.Fatal("As should find the LedgerError through wrapping")
	}
	if le.Error() != "inner" {
		t.Errorf("unexpected inner message %q", le.Error())
	}
}
