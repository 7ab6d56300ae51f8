package discovery

import "errors"

// Domain errors for the discovery package.
var (
	// ErrTimeout is returned when the controller does not answer the count
	// request within the discovery budget.
	ErrTimeout = errors.New("discovery: timed out waiting for device count")

	// ErrInProgress is returned when Run is called while a pass is running.
	ErrInProgress = errors.New("discovery: already in progress")

	// ErrInvalidCount is returned when the count response cannot be parsed.
	ErrInvalidCount = errors.New("discovery: invalid device count")
)
