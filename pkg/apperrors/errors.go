// Package apperrors defines the error taxonomy shared across the
// workbench services. All errors are terminal from this subsystem's
// point of view; nothing here is retried automatically.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrForbidden marks an authorization or association denial.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound marks a missing record.
	ErrNotFound = errors.New("not found")
	// ErrBadRequest marks a request the caller must correct before retrying.
	ErrBadRequest = errors.New("bad request")
	// ErrAlreadyExists marks a conditional create that found the id present.
	ErrAlreadyExists = errors.New("already exists")
	// ErrRevisionConflict marks a conditional update whose expected rev
	// did not match the stored rev.
	ErrRevisionConflict = errors.New("revision conflict")
	// ErrValidation marks schema validation failure. Treated as a
	// BadRequest-class failure at the HTTP boundary.
	ErrValidation = errors.New("validation failed")
)

// Forbiddenf returns an error matching ErrForbidden via errors.Is,
// carrying a human-readable message.
func Forbiddenf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}

// NotFoundf returns an error matching ErrNotFound via errors.Is.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// BadRequestf returns an error matching ErrBadRequest via errors.Is.
func BadRequestf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, fmt.Sprintf(format, args...))
}

// Validationf returns an error matching ErrValidation via errors.Is.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// IsBadRequestClass reports whether the error belongs to the
// BadRequest family surfaced as HTTP 400: schema violations, duplicate
// creates, revision conflicts and referential-integrity violations.
func IsBadRequestClass(err error) bool {
	return errors.Is(err, ErrBadRequest) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrRevisionConflict)
}
