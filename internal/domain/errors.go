package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an entity does not exist or is not owned by the caller.
// Both cases look the same from the outside so that ownership is never leaked.
var ErrNotFound = errors.New("not found")

// ErrNegativePrincipal guards the cost-basis invariant of investments.
var ErrNegativePrincipal = errors.New("principal cannot become negative")

// ValidationError describes a rejected input. Field names the offending input
// using its wire name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Invalid builds a ValidationError for field.
func Invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
