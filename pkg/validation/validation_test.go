package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/labfoundry/workbench-engine/pkg/apperrors"
)

type sampleInput struct {
	ID    string `validate:"required,min=1,max=16"`
	Email string `validate:"required,email"`
}

func TestEnsureValid_Passes(t *testing.T) {
	s := New()

	err := s.EnsureValid(sampleInput{ID: "p1", Email: "user@example.com"})
	if err != nil {
		t.Fatalf("expected valid input to pass, got %v", err)
	}
}

func TestEnsureValid_ReportsAllFailingFields(t *testing.T) {
	s := New()

	err := s.EnsureValid(sampleInput{ID: "", Email: "not-an-email"})
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "ID") || !strings.Contains(msg, "Email") {
		t.Errorf("expected both failing fields in message, got %q", msg)
	}
}

func TestEnsureValid_IsBadRequestClass(t *testing.T) {
	s := New()

	err := s.EnsureValid(sampleInput{})
	if !apperrors.IsBadRequestClass(err) {
		t.Fatalf("validation failures must map to the BadRequest class, got %v", err)
	}
}
