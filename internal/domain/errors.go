package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Lifecycle errors.
var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnknownStatus     = errors.New("unknown incident status")
)

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("validation error")

// FieldError describes one failed field rule.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"message"`
}

// ValidationError is returned when input fails validation. No write is attempted.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Rule))
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, ", "))
}

// Is makes errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
