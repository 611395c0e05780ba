package lifecycle

import "errors"

var (
	// ErrValidation covers malformed transition input: missing organization,
	// bad or past pickup date, unknown time slot.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTransition is returned when the request is no longer pending.
	ErrInvalidTransition = errors.New("invalid transition")
)
