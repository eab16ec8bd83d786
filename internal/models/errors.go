package models

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when a referenced goal or check-in does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the viewer lacks the capability for an action.
	ErrForbidden = errors.New("forbidden")

	// ErrValidationFailed covers bad confidence values and model invariant violations.
	ErrValidationFailed = errors.New("validation failed")

	// ErrInvalidDate is returned for date strings that cannot be parsed.
	ErrInvalidDate = errors.New("invalid date")

	// ErrCycleDetected is returned when a new link would close a cycle in the goal graph.
	ErrCycleDetected = errors.New("link would create a cycle")
)

// ValidationError collects every failed check so callers can show them together.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// MergeValidation folds several errors into one ValidationError. Non-validation
// errors are returned as-is, first one wins.
func MergeValidation(errs ...error) error {
	var msgs []string
	for _, err := range errs {
		if err == nil {
			continue
		}
		var ve *ValidationError
		if !errors.As(err, &ve) {
			return err
		}
		msgs = append(msgs, ve.Messages...)
	}
	if len(msgs) == 0 {
		return nil
	}
	return &ValidationError{Messages: msgs}
}
