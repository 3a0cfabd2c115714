package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHasCode(t *testing.T) {
	t.Run("direct error carries its code", func(t *testing.T) {
		err := New(CodeValidation, "title is required")
		if !HasCode(err, CodeValidation) {
			t.Fatalf("expected CodeValidation on %v", err)
		}
		if HasCode(err, CodeNotFound) {
			t.Fatalf("did not expect CodeNotFound on %v", err)
		}
	})

	t.Run("wrapped chain is searched", func(t *testing.T) {
		inner := New(CodeConflict, "version mismatch")
		outer := Wrap(inner, CodeInternal, "failed to update asset")
		if !HasCode(outer, CodeConflict) {
			t.Fatalf("expected CodeConflict in chain of %v", outer)
		}
		if !HasCode(outer, CodeInternal) {
			t.Fatalf("expected CodeInternal in chain of %v", outer)
		}
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		if HasCode(errors.New("boom"), CodeInternal) {
			t.Fatal("plain error should not match any code")
		}
	})

	t.Run("fmt wrapped domain error still matches", func(t *testing.T) {
		err := fmt.Errorf("store: %w", New(CodeNotFound, "asset not found"))
		if !HasCode(err, CodeNotFound) {
			t.Fatalf("expected CodeNotFound through fmt wrapping of %v", err)
		}
	})
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(New(CodeForbidden, "viewer cannot mutate")); got != CodeForbidden {
		t.Fatalf("expected CodeForbidden, got %s", got)
	}
	if got := CodeOf(errors.New("boom")); got != CodeInternal {
		t.Fatalf("uncoded errors default to CodeInternal, got %s", got)
	}
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:         http.StatusBadRequest,
		CodeInvariantViolation: http.StatusBadRequest,
		CodeBadRequest:         http.StatusBadRequest,
		CodeUnauthorized:       http.StatusUnauthorized,
		CodeForbidden:          http.StatusForbidden,
		CodeNotFound:           http.StatusNotFound,
		CodeConflict:           http.StatusConflict,
		CodeConfiguration:      http.StatusInternalServerError,
		CodeInternal:           http.StatusInternalServerError,
	}
	for code, want := range cases {
		if got := ToHTTPStatus(code); got != want {
			t.Fatalf("code %s: expected %d, got %d", code, want, got)
		}
	}
}
