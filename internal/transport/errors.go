package transport

import "errors"

// Domain errors for the transport package.
var (
	// ErrNotConnected is returned by Send while the channel is down.
	ErrNotConnected = errors.New("transport: not connected")

	// ErrConnectionFailed is returned when the initial dial or handshake fails.
	ErrConnectionFailed = errors.New("transport: connection failed")

	// ErrSendFailed is returned when a frame cannot be written.
	ErrSendFailed = errors.New("transport: send failed")

	// ErrInvalidURL is returned for a URL that is not ws:// or wss://.
	ErrInvalidURL = errors.New("transport: invalid URL")
)
