package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/arinony/madarun/internal/validation"
	"gorm.io/gorm"
)

// Sentinel errors returned by the services. Callers branch with errors.Is.
var (
	ErrValidation           = errors.New("validation failed")
	ErrNegativeStock        = errors.New("stock cannot go negative")
	ErrConstraintViolation  = errors.New("constraint violation")
	ErrNotFound             = errors.New("not found")
	ErrStoreUnavailable     = errors.New("store unavailable")
	ErrAuthenticationFailed = errors.New("authentication failed")
)

// ValidationError carries the per-field violations behind ErrValidation.
type ValidationError struct {
	Fields validation.Violations
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, code := range e.Fields {
		parts = append(parts, field+": "+code)
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// storeErr translates GORM errors into the service taxonomy.
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err):
		return ErrConstraintViolation
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate")
}
