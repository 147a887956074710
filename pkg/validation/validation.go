// Package validation checks service inputs against their declared
// schemas before they reach the record store.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/labfoundry/workbench-engine/pkg/apperrors"
)

// Service validates input payloads using struct-tag schemas.
type Service struct {
	validate *validator.Validate
}

// New creates a validation service.
func New() *Service {
	return &Service{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// EnsureValid checks the input against its schema and fails with a
// Validation error naming every offending field.
func (s *Service) EnsureValid(input any) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.Validationf("%v", err)
	}

	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, fmt.Sprintf("%s failed %q validation", fe.Field(), fe.Tag()))
	}
	return apperrors.Validationf("%s", strings.Join(problems, "; "))
}
