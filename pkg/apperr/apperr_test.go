package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "validation", err: Validation("items required"), want: KindValidation},
		{name: "notFound", err: NotFound("order %s not found", "ORD001"), want: KindNotFound},
		{name: "auth", err: Auth("account frozen"), want: KindAuth},
		{name: "conflict", err: Conflict("phone taken"), want: KindConflict},
		{name: "persistence", err: Persistence(errors.New("db down"), "failed to save"), want: KindPersistence},
		{name: "wrapped", err: fmt.Errorf("create order: %w", Validation("bad")), want: KindValidation},
		{name: "plain", err: errors.New("boom"), want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPersistenceUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Persistence(cause, "failed to save bill")

	if !errors.Is(err, cause) {
		t.Error("Persistence error should unwrap to its cause")
	}
	if Message(err) != "failed to save bill" {
		t.Errorf("Message() = %q, want %q", Message(err), "failed to save bill")
	}
	if err.Error() != "failed to save bill: connection reset" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("wrap: %w", NotFound("order ORD009 not found"))

	if !errors.Is(err, &Error{Kind: KindNotFound}) {
		t.Error("errors.Is should match on kind when target message is empty")
	}
	if errors.Is(err, &Error{Kind: KindValidation}) {
		t.Error("errors.Is should not match a different kind")
	}
}
