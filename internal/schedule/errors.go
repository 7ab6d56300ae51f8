package schedule

import "errors"

// Domain errors for the schedule package.
var (
	// ErrScheduleNotFound is returned when no schedule has the given name.
	ErrScheduleNotFound = errors.New("schedule: not found")

	// ErrInvalidName is returned when a schedule name is empty or too long.
	ErrInvalidName = errors.New("schedule: invalid name")

	// ErrInvalidEvent is returned when an event's time, days or action is
	// malformed.
	ErrInvalidEvent = errors.New("schedule: invalid event")

	// ErrNoEvents is returned when a schedule has no events.
	ErrNoEvents = errors.New("schedule: no events")

	// ErrStopped is returned by Activate after Stop.
	ErrStopped = errors.New("schedule: engine stopped")
)
