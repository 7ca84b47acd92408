// Package payload turns raw invocation inputs into verified-ready values.
//
// It is the boundary of the fact lock: every malformed input becomes an
// InputError here, and Evaluate converts those into an ERROR outcome so the
// verifier itself only ever sees well-typed data.
package payload

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is the sentinel every InputError matches with errors.Is
var ErrInvalidInput = errors.New("invalid input")

// ErrMissingTarget is returned when no target price was supplied.
// Nothing may be verified, let alone sent, without an established target price.
var ErrMissingTarget = errors.New("target price is required")

// InputError describes one malformed input
type InputError struct {
	Field string // Offending input, e.g. "comps[1].sqft"
	Err   error
}

// Error implements the error interface
func (e *InputError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid input: %v", e.Err)
	}
	return fmt.Sprintf("invalid input %s: %v", e.Field, e.Err)
}

// Unwrap returns the underlying cause
func (e *InputError) Unwrap() error {
	return e.Err
}

// Is makes every InputError match ErrInvalidInput
func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func inputError(field string, err error) error {
	return &InputError{Field: field, Err: err}
}
