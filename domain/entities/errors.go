package entities

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNoFinders is returned by LocateRequest.Validate for a request without finders
	ErrNoFinders = errors.New("locate request has no finders")

	// ErrSessionUnusable marks faults of the automation session itself
	ErrSessionUnusable = errors.New("automation session unusable")

	// ErrOperatorInterrupt marks an operator stop (signal or pointer in a screen corner)
	ErrOperatorInterrupt = errors.New("interrupted by operator")

	// ErrCoordinateFinderUnavailable is returned when screen-absolute input cannot be trusted
	ErrCoordinateFinderUnavailable = errors.New("coordinate-based finder unavailable")

	// ErrResidentNumberLength is returned for numbers that are not 13 digits long
	ErrResidentNumberLength = errors.New("resident number must be 13 digits")

	// ErrResidentNumberFormat is returned for numbers containing non-digits
	ErrResidentNumberFormat = errors.New("resident number must contain only digits and hyphens")

	// ErrDestinationExists is returned when relocation would replace an existing file
	ErrDestinationExists = errors.New("destination already exists")
)

// IsFatal reports errors that end a run rather than a single attempt:
// session faults, operator interrupts and context cancellation
func IsFatal(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	return errors.Is(err, ErrSessionUnusable) ||
		errors.Is(err, ErrOperatorInterrupt) ||
		errors.Is(err, context.Canceled)
}

// MissingDependencyError reports an absent automation dependency with its install instruction
type MissingDependencyError struct {
	Name    string
	Install string
	Err     error
}

func (e *MissingDependencyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s is not available: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("%s is not available", e.Name)
}

func (e *MissingDependencyError) Unwrap() error {
	return e.Err
}
