package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidation is the sentinel every *ValidationError unwraps to.
var ErrValidation = errors.New("validation error")

// FieldError describes one invalid field. Block and Exercise are -1 when the
// field is not inside a block or exercise.
type FieldError struct {
	Path     string `json:"path"`
	Block    int    `json:"block"`
	Exercise int    `json:"exercise"`
	Message  string `json:"message"`
}

func (f FieldError) String() string {
	return f.Path + ": " + f.Message
}

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "validation: no field errors"
	case 1:
		return "validation: " + e.Errors[0].String()
	}
	parts := make([]string, len(e.Errors))
	for i, f := range e.Errors {
		parts[i] = f.String()
	}
	return fmt.Sprintf("validation: %d errors: %s", len(e.Errors), strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(path string, block, exercise int, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Path: path, Block: block, Exercise: exercise, Message: message}},
	}
}
