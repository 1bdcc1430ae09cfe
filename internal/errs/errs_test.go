package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, fiber.StatusBadRequest},
		{KindInvalidTransition, fiber.StatusUnprocessableEntity},
		{KindNotFound, fiber.StatusNotFound},
		{KindPermission, fiber.StatusForbidden},
		{KindConflict, fiber.StatusConflict},
		{Kind("mystery"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := tt.kind.HTTPStatus(); got != tt.want {
			t.Errorf("%s.HTTPStatus() = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestAs(t *testing.T) {
	base := NotFound("order")

	got, ok := As(base)
	if !ok || got.Kind != KindNotFound {
		t.Fatalf("As(direct) = %v, %v", got, ok)
	}

	wrapped := fmt.Errorf("loading: %w", base)
	got, ok = As(wrapped)
	if !ok || got.Kind != KindNotFound {
		t.Fatalf("As(wrapped) = %v, %v", got, ok)
	}

	if _, ok := As(errors.New("plain")); ok {
		t.Error("As matched a plain error")
	}
}

func TestValidationFields(t *testing.T) {
	err := ValidationFields("resource validation failed", map[string]string{
		"candidate_photo": "a file is required",
		"whatsapp_number": "must contain at least 10 digits",
	})

	if err.Kind != KindValidation {
		t.Errorf("kind = %s, want %s", err.Kind, KindValidation)
	}
	if len(err.Fields) != 2 {
		t.Errorf("fields = %d, want 2", len(err.Fields))
	}
	if msg := err.Error(); msg == "" {
		t.Error("empty error string")
	}
}

func TestInvalidTransitionMessage(t *testing.T) {
	err := InvalidTransition("completed", "in_progress")
	want := "cannot transition from completed to in_progress"
	if err.Message != want {
		t.Errorf("message = %q, want %q", err.Message, want)
	}
}
