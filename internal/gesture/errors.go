package gesture

import "errors"

var (
	// ErrUnknownContact is returned when finalize or discard references a
	// contact the buffer is not tracking.
	ErrUnknownContact = errors.New("unknown contact")

	// ErrInsufficientData is returned when a sequence has fewer than two
	// samples and cannot be classified. Callers treat it as a None gesture.
	ErrInsufficientData = errors.New("insufficient samples for classification")

	// ErrUnknownDisplay is returned when a decision or lifecycle call
	// references a display that is not registered. No state is mutated.
	ErrUnknownDisplay = errors.New("unknown display")
)
