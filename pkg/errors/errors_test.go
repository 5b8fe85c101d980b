package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusKnownCodes(t *testing.T) {
	cases := []struct {
		code   Code
		status int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeStateConflict, http.StatusUnprocessableEntity},
		{CodeDependency, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		if got := tc.code.HTTPStatus(); got != tc.status {
			t.Fatalf("code %s: expected status %d, got %d", tc.code, tc.status, got)
		}
	}
}

func TestHTTPStatusUnknownCodeFallsBackToInternal(t *testing.T) {
	if got := Code("SOMETHING_ELSE").HTTPStatus(); got != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", got)
	}
}

func TestPublicMessageHidesInternalDetail(t *testing.T) {
	err := Wrap(CodeInternal, stdErrors.New("pg: connection refused"), "persisting cart")
	if got := err.PublicMessage(); got != "internal server error" {
		t.Fatalf("internal messages must not leak, got %q", got)
	}

	visible := New(CodeConflict, "already in cart")
	if got := visible.PublicMessage(); got != "already in cart" {
		t.Fatalf("expected the conflict message passed through, got %q", got)
	}
}

func TestPublicDetailsGatedByCode(t *testing.T) {
	details := map[string]string{"field": "quantity"}

	allowed := New(CodeValidation, "validation failed").WithDetails(details)
	if allowed.PublicDetails() == nil {
		t.Fatal("expected validation details exposed")
	}

	hidden := New(CodeInternal, "boom").WithDetails(details)
	if hidden.PublicDetails() != nil {
		t.Fatal("internal details must stay private")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("boom")
	err := Wrap(CodeDependency, cause, "calling upstream")
	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable via errors.Is")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("expected dependency code, got %s", err.Code())
	}
}

func TestAsUnwrapsThroughFmtErrorf(t *testing.T) {
	inner := New(CodeConflict, "already in cart")
	wrapped := fmt.Errorf("adding item: %w", inner)

	typed := As(wrapped)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	if typed.Code() != CodeConflict {
		t.Fatalf("expected conflict, got %s", typed.Code())
	}
	if typed.Message() != "already in cart" {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}

func TestAsReturnsNilForPlainErrors(t *testing.T) {
	if As(stdErrors.New("plain")) != nil {
		t.Fatal("expected nil for untyped error")
	}
	if As(nil) != nil {
		t.Fatal("expected nil for nil error")
	}
}
