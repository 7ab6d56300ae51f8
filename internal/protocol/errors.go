package protocol

import "errors"

var (
	// ErrInvalidCount is returned when a DEVICE_COUNT value is not a
	// non-negative integer.
	ErrInvalidCount = errors.New("protocol: invalid device count")

	// ErrInvalidPercent is returned for a brightness value that is not a number.
	ErrInvalidPercent = errors.New("protocol: invalid percentage")

	// ErrInvalidObject is returned for a malformed device object.
	ErrInvalidObject = errors.New("protocol: invalid device object")
)
