package compilation

import "errors"

var (
	// ErrResourceGeneration wraps a failure of the resource producer.
	ErrResourceGeneration = errors.New("resource generation failed")
	// ErrInvalidTransition is returned when the driver advances the run out of order.
	ErrInvalidTransition = errors.New("invalid pipeline transition")
)
