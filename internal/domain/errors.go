package domain

import (
	"errors"
	"fmt"
)

// Error kinds shared by the core and its adapters. Wrap with %w and match
// with errors.Is.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrConflict       = errors.New("conflict")
	ErrInvalidReading = fmt.Errorf("%w: invalid reading", ErrInvalidInput)

	ErrInvalidTimeRange = fmt.Errorf("%w: end time precedes start time", ErrInvalidInput)
	ErrActiveTripExists = fmt.Errorf("%w: driver already has an active trip", ErrConflict)
	ErrAlreadyFinalized = fmt.Errorf("%w: trip already finalized", ErrConflict)
	ErrTripClosed       = fmt.Errorf("%w: trip is finalized and no longer accepts readings", ErrConflict)
)
